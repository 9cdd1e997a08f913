package main

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"vox/internal/brain"
	"vox/internal/chat"
	"vox/internal/config"
	"vox/internal/logging"
	"vox/internal/proxy"
	"vox/internal/server"
	"vox/internal/session"
	"vox/pkg/stt"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	addr := cli.StringP("addr", "a", ":8000", "Listen address")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	staticDir := cli.StringP("static", "s", "public", "Frontend directory served at /")
	cli.Parse()

	logging.Setup(os.Stderr, *logLevel)
	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile, "err", err)
	}

	cfg, err := config.LoadChat()
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *addr, *staticDir); err != nil {
		log.Error("Server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Bye")
}

func run(ctx context.Context, cfg *config.Chat, addr, staticDir string) error {
	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, cfg.LLMTimeout)
	if err != nil {
		return err
	}

	b, err := brain.New(ctx, cfg, httpClient)
	if err != nil {
		return err
	}
	log.Info("Brain ready", "brain", b.Name())

	srvCfg := server.Config{
		APIKey:       cfg.APIKey,
		AllowOrigins: cfg.AllowOrigins,
		StaticDir:    staticDir,
	}
	if cfg.STTModel != "" {
		tr, err := stt.NewTranscriber(cfg.STTModel, stt.Options{Language: "auto"})
		if err != nil {
			return err
		}
		defer tr.Close()
		srvCfg.Transcriber = tr
		log.Info("Audio input enabled", "model", cfg.STTModel)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(chat.NewRouter(session.NewStore(), b), srvCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
