package main

import (
	"bufio"
	"context"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	"vox/internal/logging"
	"vox/pkg/chatclient"
)

const audioPrefix = "/audio "

func main() {
	base := cli.StringP("url", "u", "http://localhost:8000", "Chat service url")
	user := cli.String("user", "cli", "User id")
	key := cli.StringP("key", "k", "", "API key")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	reconn := cli.Duration("reconn", 2*time.Second, "Pause between reconnect attempts")
	cli.Parse()

	logging.Setup(os.Stderr, *logLevel)

	addr, err := chatclient.URL(*base, *user, *key)
	if err != nil {
		log.Error("Bad url", "err", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := chatclient.Dial(ctx, addr, *reconn)
	if err != nil {
		log.Error("Failed to connect", "url", addr, "err", err)
		os.Exit(1)
	}
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()
	go readStdin(ctx, c, stop)

	for {
		in := c.Read()
		switch in.Kind {
		case chatclient.ReadOK:
			fmt.Println(in.Text)

		case chatclient.ConnClosed, chatclient.ReadFailure:
			if ctx.Err() != nil {
				return
			}
			if !in.Retryable() {
				log.Error("Connection closed", "code", in.Code, "err", in.Err)
				os.Exit(1)
			}

			log.Warn("Trying to reconnect", "url", addr, "err", in.Err)
			if err := c.Reconnect(ctx); err != nil {
				return
			}
			log.Info("Successfully reconnected")
		}
	}
}

// readStdin sends one frame per line. "/audio <file>" uploads an audio clip.
func readStdin(ctx context.Context, c *chatclient.Client, stop func()) {
	defer stop()

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var err error
		if path, ok := strings.CutPrefix(line, audioPrefix); ok {
			err = sendAudio(c, strings.TrimSpace(path))
		} else {
			err = c.Send(line)
		}
		if err != nil {
			log.Error("Send failed", "err", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func sendAudio(c *chatclient.Client, path string) error {
	clip, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.SendAudio(clip)
}
