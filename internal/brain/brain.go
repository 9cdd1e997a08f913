// Package brain contains the chat responders. Exactly one is chosen at
// startup from configuration.
package brain

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"vox/internal/config"
	"vox/internal/session"
)

// Brain produces a reply for the latest user input given the conversation so
// far. history already ends with the user turn for input. Failures are
// reported inside the returned text.
type Brain interface {
	Name() string
	Reply(ctx context.Context, history []session.Turn, input string) string
}

// Streamer is implemented by brains that can emit a reply incrementally.
// emit is called with each fragment in arrival order; an emit error aborts
// the stream and is returned.
type Streamer interface {
	Stream(ctx context.Context, history []session.Turn, input string, emit func(fragment string) error) error
}

// New builds the brain selected by cfg.
func New(ctx context.Context, cfg *config.Chat, httpClient *http.Client) (Brain, error) {
	switch cfg.Brain {
	case config.BrainRules, "":
		return NewRules(nil), nil

	case config.BrainGroq:
		if cfg.GroqAPIKey == "" {
			return nil, errors.New("GROQ_API_KEY is not set")
		}
		return NewOpenAI(OpenAIConfig{
			Service:      "Groq",
			APIKey:       cfg.GroqAPIKey,
			BaseURL:      config.GroqBaseURL,
			Model:        cfg.GroqModel,
			Sampling:     cfg.Sampling,
			SystemPrompt: cfg.SystemPrompt,
			Timeout:      cfg.LLMTimeout,
			HTTPClient:   httpClient,
		}), nil

	case config.BrainOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return NewOpenAI(OpenAIConfig{
			Service:      "OpenAI",
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			Sampling:     cfg.Sampling,
			SystemPrompt: cfg.SystemPrompt,
			Timeout:      cfg.LLMTimeout,
			HTTPClient:   httpClient,
		}), nil

	case config.BrainGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is not set")
		}
		return NewGemini(ctx, GeminiConfig{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.GeminiModel,
			Sampling:     cfg.Sampling,
			SystemPrompt: cfg.SystemPrompt,
			Timeout:      cfg.LLMTimeout,
			HTTPClient:   httpClient,
		})
	}

	return nil, fmt.Errorf("unknown brain %q", cfg.Brain)
}

// Service is the display name of b used in user-facing messages.
func Service(b Brain) string {
	if s, ok := b.(interface{ Service() string }); ok {
		return s.Service()
	}
	return b.Name()
}

// FailureText is the user-facing text for a failed completion.
func FailureText(service string, err error) string {
	return fmt.Sprintf("(%s error: %v) Please try again.", service, err)
}

// endsWithInput reports whether history already carries input as its last user turn.
func endsWithInput(history []session.Turn, input string) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	return last.Role == session.RoleUser && last.Text == input
}
