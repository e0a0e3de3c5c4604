package careerpilot

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/careerpilot/middleware/jwtware"
)

// ChatResponder answers a user's chat message. Implemented by chat.Service;
// declared here so the controller does not depend on the concrete package.
type ChatResponder interface {
	Reply(ctx context.Context, userID, message string) string
}

// ContactMailer delivers a contact-form submission.
type ContactMailer interface {
	SendContactMessage(ctx context.Context, name, email, message string) error
}

// HTTPController exposes the account service, the chat proxy, and the
// contact mailer as a JSON API.
type HTTPController struct {
	Accounts   *AccountService
	Tokens     TokenService
	Assistant  ChatResponder
	Mailer     ContactMailer
	Logger     Logger
	ContextKey string
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func WithChat(chat ChatResponder) HTTPControllerOption {
	return func(h *HTTPController) *HTTPController {
		h.Assistant = chat
		return h
	}
}

func WithMailer(m ContactMailer) HTTPControllerOption {
	return func(h *HTTPController) *HTTPController {
		h.Mailer = m
		return h
	}
}

func WithHTTPLogger(logger Logger) HTTPControllerOption {
	return func(h *HTTPController) *HTTPController {
		h.Logger = logger
		return h
	}
}

// NewHTTPController wires the controller. Accounts and Tokens are mandatory;
// chat and mail are optional collaborators with degraded behavior when absent.
func NewHTTPController(accounts *AccountService, tokens TokenService, opts ...HTTPControllerOption) *HTTPController {
	h := &HTTPController{
		Accounts:   accounts,
		Tokens:     tokens,
		Logger:     defLogger{},
		ContextKey: "user",
	}

	for _, opt := range opts {
		h = opt(h)
	}

	if h.Accounts == nil {
		panic("Missing AccountService in HTTP controller...")
	}
	if h.Tokens == nil {
		panic("Missing TokenService in HTTP controller...")
	}

	return h
}

// RegisterRoutes mounts the API. Auth routes are public; everything touching
// an identity goes behind the session middleware.
func (h *HTTPController) RegisterRoutes(app *fiber.App) {
	protected := h.ProtectedRoute()

	api := app.Group("/api")
	api.Get("/health", h.Health)

	auth := api.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Get("/me", protected, h.Me)
	auth.Put("/profile", protected, h.UpdateProfile)

	api.Post("/onboarding", protected, h.Onboarding)
	api.Post("/chat", protected, h.Chat)
	api.Post("/contact", h.Contact)
}

// ProtectedRoute builds the bearer-token gate for identity-bearing routes.
func (h *HTTPController) ProtectedRoute() fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: tokenValidatorAdapter{tokens: h.Tokens},
		ContextKey:     h.ContextKey,
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			ctx = WithSubject(ctx, claims.Subject())
			if session, ok := claims.(*SessionClaims); ok {
				ctx = WithClaimsContext(ctx, session)
			}
			return ctx
		},
	})
}

// tokenValidatorAdapter narrows TokenService to the middleware's mirror
// interface.
type tokenValidatorAdapter struct {
	tokens TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (h *HTTPController) subject(c *fiber.Ctx) (string, bool) {
	claims, ok := jwtware.ClaimsFromLocals(c, h.ContextKey)
	if !ok {
		return "", false
	}
	return claims.Subject(), true
}

// Health is the liveness probe.
func (h *HTTPController) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// Signup registers an account and returns the public view plus a session
// token.
func (h *HTTPController) Signup(c *fiber.Ctx) error {
	payload := new(RegisterInput)
	if err := c.BodyParser(payload); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse body"))
	}

	result, err := h.Accounts.Register(c.UserContext(), *payload)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Login authenticates and returns the public view plus a fresh session token.
func (h *HTTPController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse body"))
	}

	if err := payload.Validate(); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryValidation, "invalid login payload"))
	}

	result, err := h.Accounts.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(result)
}

// Me returns the account behind the verified subject. Role comes from the
// store, never from the token.
func (h *HTTPController) Me(c *fiber.Ctx) error {
	subject, ok := h.subject(c)
	if !ok {
		return h.renderError(c, ErrNoToken)
	}

	account, err := h.Accounts.CurrentIdentity(c.UserContext(), subject)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{"user": account})
}

// UpdateProfile mutates the profile attributes of the verified subject.
func (h *HTTPController) UpdateProfile(c *fiber.Ctx) error {
	subject, ok := h.subject(c)
	if !ok {
		return h.renderError(c, ErrNoToken)
	}

	payload := new(ProfileInput)
	if err := c.BodyParser(payload); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse body"))
	}

	account, err := h.Accounts.UpdateProfile(c.UserContext(), subject, *payload)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{"user": account})
}

// Onboarding applies the first-login onboarding form.
func (h *HTTPController) Onboarding(c *fiber.Ctx) error {
	subject, ok := h.subject(c)
	if !ok {
		return h.renderError(c, ErrNoToken)
	}

	payload := new(OnboardingInput)
	if err := c.BodyParser(payload); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse body"))
	}

	account, err := h.Accounts.CompleteOnboarding(c.UserContext(), subject, *payload)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "msg": "Profile updated successfully", "user": account})
}

// ChatRequest payload
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat proxies a message to the assistant.
func (h *HTTPController) Chat(c *fiber.Ctx) error {
	subject, ok := h.subject(c)
	if !ok {
		return h.renderError(c, ErrNoToken)
	}

	payload := new(ChatRequest)
	if err := c.BodyParser(payload); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse body"))
	}

	if payload.Message == "" {
		return h.renderError(c, errors.New("no message", errors.CategoryValidation))
	}

	if h.Assistant == nil {
		return h.renderError(c, errors.New("chat is not enabled", errors.CategoryOperation))
	}

	reply := h.Assistant.Reply(c.UserContext(), subject, payload.Message)

	return c.JSON(fiber.Map{"reply": reply})
}

// ContactRequest payload
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate will run validation rules
func (r ContactRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Message, validation.Required),
	)
}

// Contact submits the contact form.
func (h *HTTPController) Contact(c *fiber.Ctx) error {
	payload := new(ContactRequest)
	if err := c.BodyParser(payload); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryBadInput, "unable to parse body"))
	}

	if err := payload.Validate(); err != nil {
		return h.renderError(c, errors.Wrap(err, errors.CategoryValidation, "all fields are required"))
	}

	if h.Mailer == nil {
		return h.renderError(c, errors.New("email service not configured", errors.CategoryOperation))
	}

	if err := h.Mailer.SendContactMessage(c.UserContext(), payload.Name, payload.Email, payload.Message); err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "msg": "Message received. A confirmation email was sent if possible."})
}

// renderError maps the error taxonomy onto HTTP statuses: client faults keep
// their message, server faults get logged and return a generic message.
func (h *HTTPController) renderError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred")
	}

	status := statusForError(richErr)

	if status >= fiber.StatusInternalServerError {
		h.Logger.Error("server fault category=%s: %s", richErr.Category, richErr.Message)
	}
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"msg": "internal server error"})
	}

	return c.Status(status).JSON(fiber.Map{"msg": richErr.Message})
}

func statusForError(err *errors.Error) int {
	switch err.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	case errors.CategoryOperation:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
