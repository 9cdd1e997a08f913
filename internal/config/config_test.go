package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVoice(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadVoice(filepath.Join(t.TempDir(), "absent.env"))
		require.NoError(t, err)

		assert.Equal(t, "", cfg.WolframAppID)
		assert.Equal(t, "", cfg.OpenWeatherAPIKey)
		assert.Equal(t, DefaultRedirectURI, cfg.SpotifyRedirectURI)
		assert.Equal(t, DefaultSpotifyScope, cfg.SpotifyScope)
		assert.Equal(t, DefaultActivation, cfg.ActivationWord)
		assert.Equal(t, DefaultListenTimeout, cfg.ListenTimeout)
		assert.Equal(t, DefaultPhraseLimit, cfg.PhraseLimit)
	})

	t.Run("values from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vox.env")
		body := "WOLFRAM_APP_ID=abc\nOPENWEATHER_API_KEY=\"wx\"\nACTIVATION_WORD=Jarvis\nPHRASE_LIMIT=5s\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		cfg, err := LoadVoice(path)
		require.NoError(t, err)

		assert.Equal(t, "abc", cfg.WolframAppID)
		assert.Equal(t, "wx", cfg.OpenWeatherAPIKey)
		assert.Equal(t, "jarvis", cfg.ActivationWord)
		assert.Equal(t, 5*time.Second, cfg.PhraseLimit)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := VoiceFromMap(map[string]string{"LISTEN_TIMEOUT": "soon"})
		assert.Error(t, err)
	})
}

func TestVoicePath(t *testing.T) {
	t.Setenv("VOX_CONFIG", "")
	assert.Equal(t, DefaultVoiceConfig, VoicePath())

	t.Setenv("VOX_CONFIG", "/etc/vox.env")
	assert.Equal(t, "/etc/vox.env", VoicePath())
}

func TestChatFromEnv(t *testing.T) {
	env := func(kv map[string]string) func(string) string {
		return func(k string) string { return kv[k] }
	}

	t.Run("defaults", func(t *testing.T) {
		cfg, err := ChatFromEnv(env(nil))
		require.NoError(t, err)

		assert.Equal(t, BrainRules, cfg.Brain)
		assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
		assert.Equal(t, 0.7, cfg.Sampling.Temperature)
		assert.Equal(t, 0.95, cfg.Sampling.TopP)
		assert.Equal(t, int64(512), cfg.Sampling.MaxTokens)
		assert.Equal(t, DefaultGroqModel, cfg.GroqModel)
		assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := ChatFromEnv(env(map[string]string{
			"BRAIN":            "GROQ",
			"BOT_API_KEY":      "secret",
			"ALLOW_ORIGINS":    "http://a.example, http://b.example,",
			"MODEL_MAX_TOKENS": "64",
			"SYSTEM_PROMPT":    "  be brief ",
		}))
		require.NoError(t, err)

		assert.Equal(t, BrainGroq, cfg.Brain)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowOrigins)
		assert.Equal(t, int64(64), cfg.Sampling.MaxTokens)
		assert.Equal(t, "be brief", cfg.SystemPrompt)
	})

	t.Run("unknown brain", func(t *testing.T) {
		_, err := ChatFromEnv(env(map[string]string{"BRAIN": "oracle"}))
		assert.Error(t, err)
	})

	t.Run("bad temperature", func(t *testing.T) {
		_, err := ChatFromEnv(env(map[string]string{"MODEL_TEMP": "warm"}))
		assert.Error(t, err)
	})
}
