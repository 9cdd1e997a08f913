// Package voice runs the listen → route → speak loop of the assistant.
package voice

import (
	"context"
	"errors"
	log "log/slog"

	"vox/internal/nlu"
)

var (
	// ErrTimeout means no speech started within the listen window.
	ErrTimeout = errors.New("no speech detected")
	// ErrNotUnderstood means speech was captured but produced no text.
	ErrNotUnderstood = errors.New("speech not understood")
)

const (
	Greeting       = "All systems nominal."
	somethingWrong = "Something went wrong."
)

// Listener captures one utterance and returns its transcript.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

type Handler interface {
	Handle(ctx context.Context, words []string) nlu.Outcome
}

type Assistant struct {
	handler  Handler
	speaker  nlu.Speaker
	listener Listener
	injected <-chan string
}

// NewAssistant wires the loop. Text arriving on injected is processed before
// the next listen, as if it had been heard; injected may be nil.
func NewAssistant(handler Handler, speaker nlu.Speaker, listener Listener, injected <-chan string) *Assistant {
	return &Assistant{
		handler:  handler,
		speaker:  speaker,
		listener: listener,
		injected: injected,
	}
}

// Run greets the user and serves commands until exit is requested or ctx ends.
func (a *Assistant) Run(ctx context.Context) error {
	a.speaker.Say(Greeting)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, ok := a.next(ctx)
		if !ok {
			continue
		}

		words := nlu.Tokenize(text)
		if len(words) == 0 {
			continue
		}

		if a.dispatch(ctx, words) == nlu.Terminate {
			log.Info("Exit requested")
			return nil
		}
	}
}

func (a *Assistant) next(ctx context.Context) (string, bool) {
	select {
	case text := <-a.injected:
		log.Info("Injected", "text", text)
		return text, true
	default:
	}

	log.Info("Listening for a command...")
	text, err := a.listener.Listen(ctx)
	switch {
	case err == nil:
		log.Info("Heard", "text", text)
		return text, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", false
	case errors.Is(err, ErrTimeout):
		log.Warn("Mic timeout: no speech detected")
		a.speaker.Say("I didn't hear anything.")
	case errors.Is(err, ErrNotUnderstood):
		a.speaker.Say("I did not catch that.")
	default:
		log.Error("Speech recognition failed", "err", err)
		a.speaker.Say("Speech recognition service is unavailable.")
	}
	return "", false
}

func (a *Assistant) dispatch(ctx context.Context, words []string) (out nlu.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Error in command handler", "panic", r)
			a.speaker.Say(somethingWrong)
			out = nlu.Continue
		}
	}()
	return a.handler.Handle(ctx, words)
}
