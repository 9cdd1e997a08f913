package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultVoiceConfig   = "conf/vox.env"
	DefaultRedirectURI   = "http://localhost:8888/callback"
	DefaultSpotifyScope  = "user-modify-playback-state user-read-playback-state"
	DefaultActivation    = "okay"
	DefaultTokenCache    = ".spotify-token.json"
	DefaultListenTimeout = 30 * time.Second
	DefaultPhraseLimit   = 10 * time.Second
)

// Voice holds the key/value settings of the voice assistant.
type Voice struct {
	WolframAppID        string
	OpenWeatherAPIKey   string
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SpotifyScope        string
	SpotifyDevice       string
	SpotifyTokenCache   string

	ActivationWord string
	WhisperModel   string
	Proxy          string
	LogLevel       string

	ListenTimeout time.Duration
	PhraseLimit   time.Duration
}

// VoicePath returns the configuration file the assistant reads.
func VoicePath() string {
	if p := os.Getenv("VOX_CONFIG"); p != "" {
		return p
	}
	return DefaultVoiceConfig
}

// LoadVoice reads the key/value file at path. A missing file yields defaults.
func LoadVoice(path string) (*Voice, error) {
	kv, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		kv = map[string]string{}
	}
	return VoiceFromMap(kv)
}

// VoiceFromMap builds the voice configuration from already parsed pairs.
func VoiceFromMap(kv map[string]string) (*Voice, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(kv[key]); v != "" {
			return v
		}
		return def
	}

	listen, err := parseDuration(get("LISTEN_TIMEOUT", ""), DefaultListenTimeout)
	if err != nil {
		return nil, fmt.Errorf("LISTEN_TIMEOUT: %w", err)
	}
	phrase, err := parseDuration(get("PHRASE_LIMIT", ""), DefaultPhraseLimit)
	if err != nil {
		return nil, fmt.Errorf("PHRASE_LIMIT: %w", err)
	}

	return &Voice{
		WolframAppID:        get("WOLFRAM_APP_ID", ""),
		OpenWeatherAPIKey:   get("OPENWEATHER_API_KEY", ""),
		SpotifyClientID:     get("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: get("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyRedirectURI:  get("SPOTIFY_REDIRECT_URI", DefaultRedirectURI),
		SpotifyScope:        get("SPOTIFY_SCOPE", DefaultSpotifyScope),
		SpotifyDevice:       get("SPOTIFY_DEVICE", ""),
		SpotifyTokenCache:   get("SPOTIFY_TOKEN_CACHE", DefaultTokenCache),

		ActivationWord: strings.ToLower(get("ACTIVATION_WORD", DefaultActivation)),
		WhisperModel:   get("WHISPER_MODEL", ""),
		Proxy:          get("PROXY", ""),
		LogLevel:       get("LOG_LEVEL", "info"),

		ListenTimeout: listen,
		PhraseLimit:   phrase,
	}, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}
