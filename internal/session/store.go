// Package session keeps per-user conversation history in memory for the life
// of the process.
package session

import (
	"slices"
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one recorded message. Turns are never modified once appended.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	TS   time.Time `json:"ts"`
}

// Session is the ordered history of one user. Callers only see it inside
// Store.With, which holds the session's lock.
type Session struct {
	mu    sync.Mutex
	id    string
	turns []Turn
	now   func() time.Time
}

func (s *Session) ID() string { return s.id }

func (s *Session) Append(role Role, text string) Turn {
	t := Turn{Role: role, Text: text, TS: s.now()}
	s.turns = append(s.turns, t)
	return t
}

// Turns returns a copy of the history in insertion order.
func (s *Session) Turns() []Turn {
	return slices.Clone(s.turns)
}

func (s *Session) Len() int { return len(s.turns) }

// Clear drops every turn; the session itself stays.
func (s *Session) Clear() {
	s.turns = nil
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// NewStoreWithClock is NewStore with a custom timestamp source.
func NewStoreWithClock(now func() time.Time) *Store {
	s := NewStore()
	s.now = now
	return s
}

func (st *Store) get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		s = &Session{id: id, now: st.now}
		st.sessions[id] = s
	}
	return s
}

// With runs fn with exclusive access to the session of id, creating it on
// first use. Calls for the same id are serialized; different ids run in parallel.
func (st *Store) With(id string, fn func(s *Session)) {
	s := st.get(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// History returns the last n turns of id, or all of them when n <= 0.
func (st *Store) History(id string, n int) []Turn {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return []Turn{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.turns
	if len(turns) == 0 {
		return []Turn{}
	}
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return slices.Clone(turns)
}

// Reset clears the history of id.
func (st *Store) Reset(id string) {
	st.With(id, func(s *Session) { s.Clear() })
}
