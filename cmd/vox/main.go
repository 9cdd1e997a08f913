package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"vox/internal/audio"
	"vox/internal/config"
	"vox/internal/ipc"
	"vox/internal/logging"
	"vox/internal/mixer"
	"vox/internal/nlu"
	"vox/internal/provider"
	"vox/internal/proxy"
	"vox/internal/tts"
	"vox/internal/voice"
	"vox/pkg/stt"
)

const (
	httpTimeout = 30 * time.Second
	duckFloor   = 10
)

func main() {
	cfgPath := config.VoicePath()
	cfg, err := config.LoadVoice(cfgPath)
	if err != nil {
		logging.Setup(os.Stderr, "info")
		log.Error("Failed to load config", "path", cfgPath, "err", err)
		os.Exit(1)
	}

	logging.Setup(os.Stderr, cfg.LogLevel)
	log.Info("Booting up", "config", cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Assistant stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Bye")
}

func run(ctx context.Context, cfg *config.Voice) error {
	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, httpTimeout)
	if err != nil {
		return err
	}
	log.Debug("Loaded HTTP client", "proxy", cfg.Proxy)

	speaker := voice.WithDucking(tts.NewEspeak(), mixer.NewDucker(mixer.Pactl{}, []string{"vox", "espeak"}, duckFloor))

	wiki := provider.NewWikipedia(httpClient, "")
	providers := nlu.Providers{
		Lookup:  wiki,
		Compute: provider.NewWolfram(cfg.WolframAppID, httpClient, "", wiki, speaker.Say),
		Media:   provider.NewMedia(connectSpotify(ctx, cfg, httpClient), cfg.SpotifyDevice),
		Weather: provider.NewOpenWeather(cfg.OpenWeatherAPIKey, httpClient, ""),
	}

	router := nlu.NewRouter(nlu.Options{
		Activation: cfg.ActivationWord,
		Speaker:    speaker,
		Help:       os.Stdout,
		Fs:         afero.NewOsFs(),
		Providers:  providers,
	})

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		return err
	}
	defer rec.Close()
	log.Debug("Loaded recorder")

	whisper, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{Language: "en"})
	if err != nil {
		return err
	}
	defer whisper.Close()
	log.Debug("Loaded whisper", "model", cfg.WhisperModel)

	injected := make(chan string, 8)
	srv, err := ipc.StartServer(ipc.SocketPath, func(msg ipc.ControlMessage) {
		if msg.Cmd != ipc.CmdSay {
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return
		}
		select {
		case injected <- msg.Text:
		default:
			log.Warn("Injected command dropped, queue full", "text", msg.Text)
		}
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	listener := &micListener{
		rec:         rec,
		stt:         whisper,
		wait:        cfg.ListenTimeout,
		phraseLimit: cfg.PhraseLimit,
	}

	log.Info("Boot up - successful", "activation", cfg.ActivationWord)
	return voice.NewAssistant(router, speaker, listener, injected).Run(ctx)
}

// connectSpotify returns nil when Spotify is not configured or authorization fails.
func connectSpotify(ctx context.Context, cfg *config.Voice, httpClient *http.Client) provider.Catalog {
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		log.Info("Spotify disabled: credentials not set")
		return nil
	}

	client, err := provider.ConnectSpotify(ctx, provider.SpotifyAuth{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURI:  cfg.SpotifyRedirectURI,
		Scope:        cfg.SpotifyScope,
		TokenCache:   cfg.SpotifyTokenCache,
		HTTPClient:   httpClient,
		Prompt: func(authURL string) {
			fmt.Println("Authorize Spotify by visiting:", authURL)
		},
	})
	if err != nil {
		log.Error("Spotify disabled", "err", err)
		return nil
	}
	return provider.NewSpotifyCatalog(client)
}
