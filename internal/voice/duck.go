package voice

import (
	"context"
	log "log/slog"
	"time"

	"vox/internal/nlu"
)

// Ducker lowers other audio while the assistant talks.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, duration time.Duration) error
	UnduckOthers(ctx context.Context, duration time.Duration) error
}

const (
	duckFactor = 0.3
	duckFade   = 150 * time.Millisecond
)

type duckingSpeaker struct {
	inner nlu.Speaker
	duck  Ducker
}

// WithDucking wraps speaker so every reply is spoken over lowered background audio.
func WithDucking(speaker nlu.Speaker, duck Ducker) nlu.Speaker {
	if duck == nil {
		return speaker
	}
	return &duckingSpeaker{inner: speaker, duck: duck}
}

func (s *duckingSpeaker) Say(text string) {
	ctx := context.Background()
	if err := s.duck.DuckOthers(ctx, duckFactor, duckFade); err != nil {
		log.Debug("Duck failed", "err", err)
	}
	defer func() {
		if err := s.duck.UnduckOthers(ctx, duckFade); err != nil {
			log.Debug("Unduck failed", "err", err)
		}
	}()
	s.inner.Say(text)
}
