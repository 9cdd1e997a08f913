package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vox/internal/brain"
	"vox/internal/session"
)

type fakeBrain struct {
	reply   string
	calls   int
	history []session.Turn
}

func (f *fakeBrain) Name() string { return "fake" }

func (f *fakeBrain) Reply(_ context.Context, history []session.Turn, _ string) string {
	f.calls++
	f.history = history
	return f.reply
}

type streamingBrain struct {
	fakeBrain
	fragments []string
	err       error
}

func (s *streamingBrain) Stream(_ context.Context, history []session.Turn, _ string, emit func(string) error) error {
	s.calls++
	s.history = history
	for _, f := range s.fragments {
		if err := emit(f); err != nil {
			return err
		}
	}
	return s.err
}

func TestReplyRecordsTurns(t *testing.T) {
	st := session.NewStore()
	b := &fakeBrain{reply: "Hey!"}
	r := NewRouter(st, b)

	reply, n := r.Reply(context.Background(), "u", "hello")
	assert.Equal(t, "Hey!", reply)
	assert.Equal(t, 2, n)

	// The brain sees the new user turn at the end of the history.
	require.Len(t, b.history, 1)
	assert.Equal(t, session.Turn{Role: session.RoleUser, Text: "hello", TS: b.history[0].TS}, b.history[0])

	h := st.History("u", 0)
	require.Len(t, h, 2)
	assert.Equal(t, session.RoleUser, h[0].Role)
	assert.Equal(t, "hello", h[0].Text)
	assert.Equal(t, session.RoleAssistant, h[1].Role)
	assert.Equal(t, "Hey!", h[1].Text)

	_, n = r.Reply(context.Background(), "u", "again")
	assert.Equal(t, 4, n)
	assert.Len(t, b.history, 3)
}

func TestResetSkipsBrain(t *testing.T) {
	for _, msg := range []string{"reset", "  RESET ", "Reset"} {
		st := session.NewStore()
		b := &fakeBrain{reply: "x"}
		r := NewRouter(st, b)

		r.Reply(context.Background(), "u", "hi")
		reply, n := r.Reply(context.Background(), "u", msg)

		assert.Equal(t, ResetAck, reply)
		assert.Equal(t, 0, n)
		assert.Equal(t, 1, b.calls)
		h := st.History("u", 0)
		assert.NotNil(t, h)
		assert.Empty(t, h)
	}
}

func TestIsReset(t *testing.T) {
	assert.True(t, IsReset(" reset\n"))
	assert.False(t, IsReset("reset please"))
	assert.False(t, IsReset(""))
}

func TestStreamConcatenation(t *testing.T) {
	fragments := []string{"The ", "quick brown fox ", "jumps over ", "the lazy dog", ", ", "again and again and again ", "ünïcödé ✓", "."}
	want := strings.Join(fragments, "")

	for _, limit := range []int{1, 5, 16, FlushThreshold, 1000} {
		st := session.NewStore()
		b := &streamingBrain{fragments: fragments}
		r := NewRouter(st, b).WithFlushThreshold(limit)

		var frames []string
		got := r.Stream(context.Background(), "u", "tell me", func(s string) error {
			frames = append(frames, s)
			return nil
		})

		assert.Equal(t, want, got, "limit %d", limit)
		assert.Equal(t, want, strings.Join(frames, ""), "limit %d", limit)

		h := st.History("u", 0)
		require.Len(t, h, 2)
		assert.Equal(t, want, h[1].Text)
		assert.Equal(t, session.RoleAssistant, h[1].Role)
	}
}

func TestStreamBatchesAtThreshold(t *testing.T) {
	frag := strings.Repeat("a", 30)
	b := &streamingBrain{fragments: []string{frag, frag, frag, "b"}}
	r := NewRouter(session.NewStore(), b)

	var frames []string
	r.Stream(context.Background(), "u", "x", func(s string) error {
		frames = append(frames, s)
		return nil
	})

	// 30 + 30 < 64, the third fragment crosses it; the tail goes out at end of stream.
	assert.Equal(t, []string{frag + frag + frag, "b"}, frames)
}

func TestStreamFallsBackToReply(t *testing.T) {
	st := session.NewStore()
	b := &fakeBrain{reply: "whole reply"}
	r := NewRouter(st, b)

	var frames []string
	got := r.Stream(context.Background(), "u", "hi", func(s string) error {
		frames = append(frames, s)
		return nil
	})

	assert.Equal(t, "whole reply", got)
	assert.Equal(t, []string{"whole reply"}, frames)
	assert.Len(t, st.History("u", 0), 2)
}

func TestStreamReset(t *testing.T) {
	st := session.NewStore()
	b := &streamingBrain{fragments: []string{"x"}}
	r := NewRouter(st, b)
	r.Stream(context.Background(), "u", "hi", func(string) error { return nil })

	var frames []string
	r.Stream(context.Background(), "u", "reset", func(s string) error {
		frames = append(frames, s)
		return nil
	})

	assert.Equal(t, []string{ResetAck}, frames)
	assert.Empty(t, st.History("u", 0))
	assert.Equal(t, 1, b.calls)
}

func TestStreamStopsSendingWhenClosed(t *testing.T) {
	st := session.NewStore()
	b := &streamingBrain{fragments: []string{"aaaa", "bbbb", "cccc"}}
	r := NewRouter(st, b).WithFlushThreshold(4)

	sends := 0
	got := r.Stream(context.Background(), "u", "x", func(string) error {
		sends++
		return errors.New("connection closed")
	})

	assert.Equal(t, 1, sends)
	assert.Equal(t, "aaaa", got)
	assert.Equal(t, "aaaa", st.History("u", 0)[1].Text)
}

func TestStreamFailureBeforeAnyFragment(t *testing.T) {
	st := session.NewStore()
	b := &streamingBrain{err: errors.New("upstream 503")}
	r := NewRouter(st, b)

	var frames []string
	got := r.Stream(context.Background(), "u", "x", func(s string) error {
		frames = append(frames, s)
		return nil
	})

	assert.Equal(t, brain.FailureText("fake", errors.New("upstream 503")), got)
	assert.Equal(t, []string{got}, frames)
}

func TestStreamFailureMidway(t *testing.T) {
	b := &streamingBrain{fragments: []string{"partial"}, err: errors.New("reset by peer")}
	r := NewRouter(session.NewStore(), b)

	var frames []string
	got := r.Stream(context.Background(), "u", "x", func(s string) error {
		frames = append(frames, s)
		return nil
	})

	assert.Equal(t, "partial", got)
	assert.Equal(t, []string{"partial"}, frames)
}
