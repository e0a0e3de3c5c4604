// Package chat proxies user messages to a generative-language provider and
// falls back to a degraded reply when the provider is unconfigured or
// unreachable. The provider is an opaque external collaborator: one request,
// one response, no retries.
package chat

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/goliatone/careerpilot"
)

const systemPrompt = "You are CareerPilot, a career guidance assistant. " +
	"Provide practical, concise advice on jobs, skills, education, or resumes."

const degradedReply = "The career assistant is temporarily unavailable. " +
	"Please try again in a moment."

// Generator produces an assistant reply for a user message.
type Generator interface {
	GenerateReply(ctx context.Context, message string) (string, error)
}

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator builds a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiGenerator{
		client: client,
		model:  "gemini-1.5-flash",
	}, nil
}

// GenerateReply sends the persona prompt plus the user message and returns
// the provider's text.
func (g *GeminiGenerator) GenerateReply(ctx context.Context, message string) (string, error) {
	prompt := systemPrompt + "\nUser: " + message

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: 500,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text()), nil
}

// Service answers chat messages and records successful turns.
type Service struct {
	generator Generator
	logs      careerpilot.ChatLogs
	logger    careerpilot.Logger
}

// NewService returns a chat service. A nil generator selects the echo
// fallback used when no provider API key is configured.
func NewService(generator Generator, logs careerpilot.ChatLogs, logger careerpilot.Logger) *Service {
	return &Service{
		generator: generator,
		logs:      logs,
		logger:    logger,
	}
}

// Reply produces the assistant's answer for one user message. Provider
// failures degrade to a canned reply instead of failing the request; the
// recorded turn is best-effort and never blocks the response.
func (s *Service) Reply(ctx context.Context, userID, message string) string {
	if s.generator == nil {
		return "Echo: " + message
	}

	reply, err := s.generator.GenerateReply(ctx, message)
	if err != nil {
		s.logger.Error("chat provider error: %v", err)
		return degradedReply
	}

	if userID != "" && s.logs != nil {
		turn := &careerpilot.ChatTurn{
			UserID:   userID,
			Message:  message,
			Response: reply,
		}
		if err := s.logs.Record(ctx, turn); err != nil {
			s.logger.Error("chat turn not recorded: %v", err)
		}
	}

	return reply
}
