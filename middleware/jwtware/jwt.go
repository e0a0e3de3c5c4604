// Package jwtware gates routes behind a bearer session token. It validates
// the credential and attaches the verified claims to the request; it never
// touches the credential store, so parallel requests stay independent.
package jwtware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrJWTMissing is returned when a request carries no credential at all.
	ErrJWTMissing = errors.New("missing JWT")
	// ErrJWTMissingOrMalformed is returned when the credential cannot be read.
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

// AuthClaims is the validated-claims surface the middleware needs. It mirrors
// careerpilot.SessionClaims without importing it, to avoid import cycles.
type AuthClaims interface {
	Subject() string
}

// TokenValidator validates a raw token string into claims. This mirrors the
// TokenService.Validate method from the root package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

type Config struct {
	// Filter defines a function to skip the middleware
	Filter func(*fiber.Ctx) bool
	// SuccessHandler runs after validation succeeds; defaults to c.Next()
	SuccessHandler fiber.Handler
	// ErrorHandler turns a validation failure into a response
	ErrorHandler fiber.ErrorHandler
	// ContextKey is the locals key the claims are stored under
	ContextKey string
	// AuthScheme is the expected credential prefix, "Bearer" by default.
	// A bare token without the scheme is also accepted for compatibility.
	AuthScheme string
	// HeaderName is the metadata field carrying the credential
	HeaderName string

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// ContextEnricher is an optional function to propagate claims to the
	// standard Go context. Called after successful token validation.
	ContextEnricher func(ctx context.Context, claims AuthClaims) context.Context
}

// New returns a middleware that rejects requests without a valid session
// token. Missing and invalid credentials both produce an unauthenticated
// response; expired versus malformed is deliberately not surfaced.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := TokenFromHeader(c.Get(cfg.HeaderName), cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))
		}

		return cfg.SuccessHandler(c)
	}
}

// GetDefaultConfig fills in the blanks of a partial configuration.
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			if errors.Is(err, ErrJWTMissing) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "no token supplied"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "invalid or expired token"})
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: JWT middleware configuration: TokenValidator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = fiber.HeaderAuthorization
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// TokenFromHeader extracts the raw token from an Authorization-style header
// value. Both "<scheme> <token>" and a bare "<token>" are accepted.
func TokenFromHeader(header, authScheme string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrJWTMissing
	}

	if strings.EqualFold(header, authScheme) {
		return "", ErrJWTMissingOrMalformed
	}

	l := len(authScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], authScheme) && header[l] == ' ' {
		token := strings.TrimSpace(header[l:])
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}

	if strings.ContainsRune(header, ' ') {
		// some unknown scheme rather than a bare token
		return "", ErrJWTMissingOrMalformed
	}

	return header, nil
}

// ClaimsFromLocals recovers the validated claims a successful run stored on
// the request.
func ClaimsFromLocals(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user"
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}
