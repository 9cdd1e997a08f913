package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Brain string

const (
	BrainRules  Brain = "rules"
	BrainGroq   Brain = "groq"
	BrainOpenAI Brain = "openai"
	BrainGemini Brain = "gemini"
)

const (
	DefaultGroqModel   = "llama-3.1-8b-instant"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.5-flash"
	GroqBaseURL        = "https://api.groq.com/openai/v1"
)

// Sampling controls the completion request of the cloud brains.
type Sampling struct {
	Temperature float64
	TopP        float64
	MaxTokens   int64
}

// Chat is the environment-style configuration of the chat service.
type Chat struct {
	Brain        Brain
	APIKey       string
	AllowOrigins []string

	GroqAPIKey    string
	GroqModel     string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	Sampling     Sampling
	SystemPrompt string
	LLMTimeout   time.Duration

	STTModel string
	Proxy    string
}

// LoadChat reads the chat configuration from the process environment.
func LoadChat() (*Chat, error) {
	return ChatFromEnv(os.Getenv)
}

// ChatFromEnv reads the chat configuration through getenv.
func ChatFromEnv(getenv func(string) string) (*Chat, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	brain := Brain(strings.ToLower(get("BRAIN", string(BrainRules))))
	switch brain {
	case BrainRules, BrainGroq, BrainOpenAI, BrainGemini:
	default:
		return nil, fmt.Errorf("unknown BRAIN %q", brain)
	}

	temp, err := strconv.ParseFloat(get("MODEL_TEMP", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("MODEL_TEMP: %w", err)
	}
	topP, err := strconv.ParseFloat(get("MODEL_TOP_P", "0.95"), 64)
	if err != nil {
		return nil, fmt.Errorf("MODEL_TOP_P: %w", err)
	}
	maxTokens, err := strconv.ParseInt(get("MODEL_MAX_TOKENS", "512"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MODEL_MAX_TOKENS: %w", err)
	}
	timeout, err := parseDuration(get("LLM_TIMEOUT", ""), 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("LLM_TIMEOUT: %w", err)
	}

	var origins []string
	for _, o := range strings.Split(get("ALLOW_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Chat{
		Brain:        brain,
		APIKey:       getenv("BOT_API_KEY"),
		AllowOrigins: origins,

		GroqAPIKey:    get("GROQ_API_KEY", ""),
		GroqModel:     get("GROQ_MODEL", DefaultGroqModel),
		OpenAIAPIKey:  get("OPENAI_API_KEY", ""),
		OpenAIModel:   get("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
		GeminiAPIKey:  get("GEMINI_API_KEY", ""),
		GeminiModel:   get("GEMINI_MODEL", DefaultGeminiModel),

		Sampling: Sampling{
			Temperature: temp,
			TopP:        topP,
			MaxTokens:   maxTokens,
		},
		SystemPrompt: strings.TrimSpace(getenv("SYSTEM_PROMPT")),
		LLMTimeout:   timeout,

		STTModel: get("STT_MODEL", ""),
		Proxy:    get("PROXY", ""),
	}, nil
}
