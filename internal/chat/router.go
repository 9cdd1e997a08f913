// Package chat routes conversation turns between a user session and the
// configured brain.
package chat

import (
	"context"
	log "log/slog"
	"strings"
	"unicode/utf8"

	"vox/internal/brain"
	"vox/internal/session"
)

const (
	ResetAck = "Conversation reset. What's next?"
	// FlushThreshold is how many characters are batched before a streamed flush.
	FlushThreshold = 64
)

// IsReset reports whether message asks to clear the conversation.
func IsReset(message string) bool {
	return strings.ToLower(strings.TrimSpace(message)) == "reset"
}

type Router struct {
	store   *session.Store
	brain   brain.Brain
	flushAt int
}

func NewRouter(store *session.Store, b brain.Brain) *Router {
	return &Router{store: store, brain: b, flushAt: FlushThreshold}
}

// WithFlushThreshold overrides the streaming batch size.
func (r *Router) WithFlushThreshold(n int) *Router {
	if n > 0 {
		r.flushAt = n
	}
	return r
}

func (r *Router) Brain() brain.Brain { return r.brain }

// History returns the last n turns of userID, or all of them when n <= 0.
func (r *Router) History(userID string, n int) []session.Turn {
	return r.store.History(userID, n)
}

// Reply records message and the brain's answer in the user's session and
// returns the answer with the resulting history length. A reset clears the
// session without consulting the brain.
func (r *Router) Reply(ctx context.Context, userID, message string) (reply string, contextLen int) {
	if IsReset(message) {
		r.store.Reset(userID)
		return ResetAck, 0
	}

	r.store.With(userID, func(s *session.Session) {
		log.Debug("Reply", "user", s.ID(), "turns", s.Len())
		s.Append(session.RoleUser, message)
		reply = r.brain.Reply(ctx, s.Turns(), message)
		s.Append(session.RoleAssistant, reply)
		contextLen = s.Len()
	})
	return reply, contextLen
}

// Stream is Reply for incremental channels. Fragments from a streaming brain
// are batched and handed to send; other brains send their whole reply once.
// A send failure stops further sends but the generated text is still recorded.
func (r *Router) Stream(ctx context.Context, userID, message string, send func(chunk string) error) string {
	if IsReset(message) {
		r.store.Reset(userID)
		_ = send(ResetAck)
		return ResetAck
	}

	var reply string
	r.store.With(userID, func(s *session.Session) {
		log.Debug("Stream", "user", s.ID(), "turns", s.Len())
		s.Append(session.RoleUser, message)
		reply = r.generate(ctx, s.Turns(), message, send)
		s.Append(session.RoleAssistant, reply)
	})
	return reply
}

func (r *Router) generate(ctx context.Context, history []session.Turn, message string, send func(string) error) string {
	streamer, ok := r.brain.(brain.Streamer)
	if !ok {
		reply := r.brain.Reply(ctx, history, message)
		if err := send(reply); err != nil {
			log.Debug("Send failed", "err", err)
		}
		return reply
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := &batcher{limit: r.flushAt, send: send}
	err := streamer.Stream(ctx, history, message, b.add)
	b.flush()

	if err != nil && !b.closed {
		log.Error("Stream failed", "brain", r.brain.Name(), "err", err)
		if b.text.Len() == 0 {
			msg := brain.FailureText(brain.Service(r.brain), err)
			b.add(msg)
			b.flush()
		}
	}
	return b.text.String()
}

// batcher accumulates fragments and flushes once limit characters are pending.
type batcher struct {
	limit   int
	send    func(string) error
	pending strings.Builder
	count   int
	text    strings.Builder
	closed  bool
}

func (b *batcher) add(fragment string) error {
	b.text.WriteString(fragment)
	if b.closed {
		return errSendClosed
	}

	b.pending.WriteString(fragment)
	b.count += utf8.RuneCountInString(fragment)
	if b.count >= b.limit {
		return b.flush()
	}
	return nil
}

func (b *batcher) flush() error {
	if b.closed {
		return errSendClosed
	}
	if b.pending.Len() == 0 {
		return nil
	}

	chunk := b.pending.String()
	b.pending.Reset()
	b.count = 0

	if err := b.send(chunk); err != nil {
		log.Debug("Send failed, dropping the rest of the stream", "err", err)
		b.closed = true
		return errSendClosed
	}
	return nil
}
