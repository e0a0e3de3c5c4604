package careerpilot_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/careerpilot"
)

// memoryUsers is an in-memory Users store with the same uniqueness contract
// as the real one.
type memoryUsers struct {
	mu   sync.Mutex
	byID map[string]*careerpilot.Account
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*careerpilot.Account{}}
}

func (m *memoryUsers) Create(ctx context.Context, account *careerpilot.Account) (*careerpilot.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == account.Email {
			return nil, careerpilot.ErrEmailTaken
		}
	}
	clone := *account
	m.byID[clone.ID] = &clone
	return &clone, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*careerpilot.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, careerpilot.ErrAccountNotFound
}

func (m *memoryUsers) GetByID(ctx context.Context, id string) (*careerpilot.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, careerpilot.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (m *memoryUsers) UpdateProfile(ctx context.Context, id string, update careerpilot.ProfileUpdate) (*careerpilot.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, careerpilot.ErrAccountNotFound
	}
	if update.FullName != "" {
		a.Name = update.FullName
	}
	a.EducationLevel = update.EducationLevel
	a.Skills = update.Skills
	a.CareerGoal = update.CareerGoal
	if update.Onboarded {
		a.Onboarded = true
	}
	clone := *a
	return &clone, nil
}

type stubAssistant struct {
	lastUserID string
}

func (s *stubAssistant) Reply(ctx context.Context, userID, message string) string {
	s.lastUserID = userID
	return "stub reply to: " + message
}

type stubContactMailer struct {
	sent int
	fail error
}

func (s *stubContactMailer) SendContactMessage(ctx context.Context, name, email, message string) error {
	if s.fail != nil {
		return s.fail
	}
	s.sent++
	return nil
}

type testEnv struct {
	app       *fiber.App
	users     *memoryUsers
	assistant *stubAssistant
	mailer    *stubContactMailer
}

func newTestEnv(t *testing.T, extra ...careerpilot.HTTPControllerOption) *testEnv {
	t.Helper()

	users := newMemoryUsers()
	tokens, err := careerpilot.NewTokenService(testSigningKey, 1, "careerpilot", nil)
	require.NoError(t, err)

	accounts := careerpilot.NewAccountService(users, tokens)

	assistant := &stubAssistant{}
	mailer := &stubContactMailer{}

	opts := append([]careerpilot.HTTPControllerOption{
		careerpilot.WithChat(assistant),
		careerpilot.WithMailer(mailer),
	}, extra...)

	controller := careerpilot.NewHTTPController(accounts, tokens, opts...)

	app := fiber.New()
	controller.RegisterRoutes(app)

	return &testEnv{app: app, users: users, assistant: assistant, mailer: mailer}
}

func jsonRequest(t *testing.T, method, target, token string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
}

func signup(t *testing.T, env *testEnv, email string) (token string, userID string) {
	t.Helper()
	resp, err := env.app.Test(jsonRequest(t, "POST", "/api/auth/signup", "", fiber.Map{
		"name":     "Ada Lovelace",
		"email":    email,
		"password": "securePassword123!",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Token string                    `json:"token"`
		User  careerpilot.PublicAccount `json:"user"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token, body.User.ID
}

func TestSignupEndpoint(t *testing.T) {
	env := newTestEnv(t)

	token, _ := signup(t, env, "ada@example.com")
	assert.NotEmpty(t, token)

	t.Run("Duplicate email conflicts", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/auth/signup", "", fiber.Map{
			"name":     "Someone Else",
			"email":    "ADA@example.com",
			"password": "anotherPassword!",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("Short password rejected", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/auth/signup", "", fiber.Map{
			"name":     "Ada Lovelace",
			"email":    "ada2@example.com",
			"password": "short",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Password never leaks into the response", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/auth/signup", "", fiber.Map{
			"name":     "Ada Lovelace",
			"email":    "ada3@example.com",
			"password": "securePassword123!",
		}), -1)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "securePassword123!")
		assert.NotContains(t, string(raw), "password_hash")
	})
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	signup(t, env, "ada@example.com")

	tests := []struct {
		name       string
		email      string
		password   string
		wantStatus int
	}{
		{"Valid credentials", "ada@example.com", "securePassword123!", fiber.StatusOK},
		{"Case-insensitive email", "ADA@Example.com", "securePassword123!", fiber.StatusOK},
		{"Wrong password", "ada@example.com", "wrong-password", fiber.StatusUnauthorized},
		{"Unknown email", "nobody@example.com", "securePassword123!", fiber.StatusUnauthorized},
		{"Malformed email", "not-an-email", "securePassword123!", fiber.StatusBadRequest},
		{"Missing password", "ada@example.com", "", fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.app.Test(jsonRequest(t, "POST", "/api/auth/login", "", fiber.Map{
				"email":    tt.email,
				"password": tt.password,
			}), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	t.Run("Unknown email and wrong password share one response body", func(t *testing.T) {
		wrong, err := env.app.Test(jsonRequest(t, "POST", "/api/auth/login", "", fiber.Map{
			"email": "ada@example.com", "password": "wrong-password",
		}), -1)
		require.NoError(t, err)
		unknown, err := env.app.Test(jsonRequest(t, "POST", "/api/auth/login", "", fiber.Map{
			"email": "nobody@example.com", "password": "whatever123",
		}), -1)
		require.NoError(t, err)

		wrongBody, _ := io.ReadAll(wrong.Body)
		unknownBody, _ := io.ReadAll(unknown.Body)
		assert.Equal(t, string(wrongBody), string(unknownBody))
	})
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token, userID := signup(t, env, "ada@example.com")

	t.Run("With valid token", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "GET", "/api/auth/me", token, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			User careerpilot.PublicAccount `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, userID, body.User.ID)
		assert.Equal(t, careerpilot.RoleStudent, body.User.Role)
	})

	t.Run("Without token", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "GET", "/api/auth/me", "", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("With garbage token", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "GET", "/api/auth/me", "garbage", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Token for a deleted account", func(t *testing.T) {
		delete(env.users.byID, userID)
		resp, err := env.app.Test(jsonRequest(t, "GET", "/api/auth/me", token, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestProfileAndOnboardingEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token, _ := signup(t, env, "ada@example.com")

	t.Run("Onboarding stamps the account", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/onboarding", token, fiber.Map{
			"fullName":       "Ada King",
			"educationLevel": "undergraduate",
			"skills":         []string{"go", "sql"},
			"careerGoal":     "backend engineer",
		}), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Success bool                      `json:"success"`
			User    careerpilot.PublicAccount `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.True(t, body.Success)
		assert.True(t, body.User.Onboarded)
		assert.Equal(t, "Ada King", body.User.Name)
	})

	t.Run("Profile update", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "PUT", "/api/auth/profile", token, fiber.Map{
			"educationLevel": "graduate",
			"skills":         []string{"go", "distributed systems"},
			"careerGoal":     "platform engineer",
		}), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			User careerpilot.PublicAccount `json:"user"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "graduate", body.User.EducationLevel)
	})

	t.Run("Profile update with missing fields", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "PUT", "/api/auth/profile", token, fiber.Map{
			"educationLevel": "graduate",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Requires a token", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/onboarding", "", fiber.Map{}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestChatEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token, userID := signup(t, env, "ada@example.com")

	t.Run("Replies for authenticated users", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/chat", token, fiber.Map{
			"message": "how do I become a backend engineer?",
		}), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Reply string `json:"reply"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "stub reply to: how do I become a backend engineer?", body.Reply)
		assert.Equal(t, userID, env.assistant.lastUserID)
	})

	t.Run("Empty message rejected", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/chat", token, fiber.Map{}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Requires a token", func(t *testing.T) {
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/chat", "", fiber.Map{
			"message": "hello",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestContactEndpoint(t *testing.T) {
	t.Run("Delivers the message", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/contact", "", fiber.Map{
			"name":    "Visitor",
			"email":   "visitor@example.com",
			"message": "hello there",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, env.mailer.sent)
	})

	t.Run("All fields required", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/contact", "", fiber.Map{
			"name": "Visitor",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, 0, env.mailer.sent)
	})

	t.Run("Mailer failure is an availability fault", func(t *testing.T) {
		env := newTestEnv(t)
		env.mailer.fail = fmt.Errorf("smtp: connection refused")

		resp, err := env.app.Test(jsonRequest(t, "POST", "/api/contact", "", fiber.Map{
			"name":    "Visitor",
			"email":   "visitor@example.com",
			"message": "hello there",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest(t, "GET", "/api/health", "", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedRouteEnrichesContext(t *testing.T) {
	users := newMemoryUsers()
	tokens, err := careerpilot.NewTokenService(testSigningKey, 1, "careerpilot", nil)
	require.NoError(t, err)

	accounts := careerpilot.NewAccountService(users, tokens)
	controller := careerpilot.NewHTTPController(accounts, tokens)

	app := fiber.New()
	app.Get("/whoami", controller.ProtectedRoute(), func(c *fiber.Ctx) error {
		subject, ok := careerpilot.SubjectFromContext(c.UserContext())
		if !ok {
			return fiber.ErrInternalServerError
		}
		claims, ok := careerpilot.GetClaims(c.UserContext())
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{
			"subject": subject,
			"claims":  claims.Subject(),
		})
	})

	token, err := tokens.Generate("account-123")
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest(t, "GET", "/whoami", token, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Subject string `json:"subject"`
		Claims  string `json:"claims"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "account-123", body.Subject)
	assert.Equal(t, "account-123", body.Claims)
}
