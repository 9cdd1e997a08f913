package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"vox/internal/audio"
	"vox/internal/notify"
	"vox/internal/voice"
	"vox/pkg/stt"
)

const cuePath = "assets/listen.mp3"

// micListener records one utterance from the microphone and transcribes it.
type micListener struct {
	rec         *audio.Recorder
	stt         *stt.Transcriber
	wait        time.Duration
	phraseLimit time.Duration
}

func (l *micListener) Listen(ctx context.Context) (string, error) {
	if err := notify.Beep(cuePath); err != nil {
		log.Debug("No listening cue", "err", err)
	}

	pcm, err := l.rec.Record(ctx, l.wait, l.phraseLimit)
	if err != nil {
		if errors.Is(err, audio.ErrListenTimeout) {
			return "", voice.ErrTimeout
		}
		return "", fmt.Errorf("record: %w", err)
	}
	log.Debug("Recorded", "samples", len(pcm))

	text, err := l.stt.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", voice.ErrNotUnderstood
	}
	return text, nil
}
