package brain

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"vox/internal/config"
	"vox/internal/session"
)

type OpenAIConfig struct {
	// Service names the backend in failure messages, e.g. "Groq".
	Service      string
	APIKey       string
	BaseURL      string
	Model        string
	Sampling     config.Sampling
	SystemPrompt string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Options      []option.RequestOption
}

// OpenAI talks to any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client  openai.Client
	service string
	model   openai.ChatModel
	sample  config.Sampling
	system  string
	timeout time.Duration
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	opts = append(opts, cfg.Options...)

	service := cfg.Service
	if service == "" {
		service = "OpenAI"
	}

	return &OpenAI{
		client:  openai.NewClient(opts...),
		service: service,
		model:   openai.ChatModel(cfg.Model),
		sample:  cfg.Sampling,
		system:  cfg.SystemPrompt,
		timeout: cfg.Timeout,
	}
}

func (b *OpenAI) Name() string { return strings.ToLower(b.service) }

func (b *OpenAI) Service() string { return b.service }

func (b *OpenAI) params(history []session.Turn, input string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:               b.model,
		Messages:            b.messages(history, input),
		Temperature:         openai.Float(b.sample.Temperature),
		TopP:                openai.Float(b.sample.TopP),
		MaxCompletionTokens: openai.Int(b.sample.MaxTokens),
	}
}

func (b *OpenAI) messages(history []session.Turn, input string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if b.system != "" {
		msgs = append(msgs, openai.SystemMessage(b.system))
	}
	for _, t := range history {
		if t.Role == session.RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}
	if !endsWithInput(history, input) {
		msgs = append(msgs, openai.UserMessage(input))
	}
	return msgs
}

func (b *OpenAI) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *OpenAI) Reply(ctx context.Context, history []session.Turn, input string) string {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	resp, err := b.client.Chat.Completions.New(ctx, b.params(history, input))
	if err != nil {
		return FailureText(b.service, err)
	}
	if len(resp.Choices) == 0 {
		return FailureText(b.service, errors.New("no choices in response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func (b *OpenAI) Stream(ctx context.Context, history []session.Turn, input string, emit func(string) error) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	stream := b.client.Chat.Completions.NewStreaming(ctx, b.params(history, input))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	return stream.Err()
}
