package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vox/internal/session"
)

// Rules is the offline fallback brain.
type Rules struct {
	now func() time.Time
}

func NewRules(now func() time.Time) *Rules {
	if now == nil {
		now = time.Now
	}
	return &Rules{now: now}
}

func (r *Rules) Name() string { return "rules" }

func (r *Rules) Reply(_ context.Context, _ []session.Turn, input string) string {
	msg := strings.ToLower(strings.TrimSpace(input))
	switch {
	case strings.Contains(msg, "hello") || strings.Contains(msg, "hi"):
		return "Hey! How can I help today?"
	case strings.Contains(msg, "time"):
		return fmt.Sprintf("It's %s on the server.", r.now().Format("15:04:05"))
	}
	return fmt.Sprintf("You said: “%s”. (This is the rules fallback brain.)", input)
}
