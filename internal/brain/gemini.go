package brain

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"vox/internal/config"
	"vox/internal/session"
)

type GeminiConfig struct {
	APIKey       string
	Model        string
	Sampling     config.Sampling
	SystemPrompt string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

type Gemini struct {
	client  *genai.Client
	model   string
	gen     *genai.GenerateContentConfig
	timeout time.Duration
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   cfg.Model,
		gen:     generationConfig(cfg.Sampling, cfg.SystemPrompt),
		timeout: cfg.Timeout,
	}, nil
}

func generationConfig(s config.Sampling, system string) *genai.GenerateContentConfig {
	gen := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(s.Temperature)),
		TopP:            genai.Ptr(float32(s.TopP)),
		MaxOutputTokens: int32(s.MaxTokens),
	}
	if system != "" {
		gen.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return gen
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Service() string { return "Gemini" }

// contents maps turns onto Gemini roles; assistant turns become "model".
func contents(history []session.Turn, input string) []*genai.Content {
	out := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == session.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(t.Text, role))
	}
	if !endsWithInput(history, input) {
		out = append(out, genai.NewContentFromText(input, genai.RoleUser))
	}
	return out
}

func (g *Gemini) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gemini) Reply(ctx context.Context, history []session.Turn, input string) string {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents(history, input), g.gen)
	if err != nil {
		return FailureText("Gemini", err)
	}
	return strings.TrimSpace(resp.Text())
}

func (g *Gemini) Stream(ctx context.Context, history []session.Turn, input string, emit func(string) error) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents(history, input), g.gen) {
		if err != nil {
			return err
		}
		if text := resp.Text(); text != "" {
			if err := emit(text); err != nil {
				return err
			}
		}
	}
	return nil
}
