package careerpilot

import (
	"os"
	"strconv"

	"github.com/goliatone/go-errors"
)

// Config holds the process configuration, sourced from the environment. The
// signing key is the only hard requirement: without it every token would be
// forgeable, so startup refuses to proceed rather than fall back to a
// default secret.
type Config struct {
	Port          string
	ClientURL     string
	MongoURI      string
	MongoDatabase string

	SigningKey      string
	TokenExpiration int

	GoogleAPIKey string

	EmailHost string
	EmailPort int
	EmailUser string
	EmailPass string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            envOr("PORT", "5000"),
		ClientURL:       envOr("CLIENT_URL", "*"),
		MongoURI:        envOr("MONGODB_URI", envOr("MONGO_URI", "mongodb://localhost:27017/careerpilot")),
		MongoDatabase:   envOr("MONGODB_DB", "careerpilot"),
		SigningKey:      os.Getenv("JWT_SECRET"),
		TokenExpiration: envIntOr("TOKEN_TTL_HOURS", DefaultTokenExpiration),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		EmailHost:       envOr("EMAIL_HOST", "smtp.gmail.com"),
		EmailPort:       envIntOr("EMAIL_PORT", 465),
		EmailUser:       os.Getenv("EMAIL_USER"),
		EmailPass:       os.Getenv("EMAIL_PASS"),
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("JWT_SECRET is not set, refusing to start", errors.CategoryValidation)
	}

	return cfg, nil
}

// MailerConfigured reports whether the contact-form mailer has credentials.
func (c *Config) MailerConfigured() bool {
	return c.EmailUser != "" && c.EmailPass != ""
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envIntOr(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}
