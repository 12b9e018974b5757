// Package conversation keeps the bounded turn history of each chat session.
package conversation

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role
	Content string
}

// Session is the history of one conversation, capped to the most recent
// maxTurns turns. It is safe for concurrent use.
type Session struct {
	ID string

	// exchange serializes read-then-append cycles and may be held for the
	// length of a generation; mu only guards turns and is never held across fn.
	exchange sync.Mutex
	mu       sync.Mutex
	turns    []Turn
	maxTurns int
	lastUsed atomic.Int64
}

func newSession(id string, maxTurns int, now time.Time) *Session {
	s := &Session{ID: id, maxTurns: maxTurns}
	s.touch(now)
	return s
}

// Exchange runs fn with a snapshot of the history, then records the user
// query and fn's reply when commit is true. Concurrent exchanges on one
// session are serialized; readers of the history are not blocked while fn runs.
func (s *Session) Exchange(query string, fn func(history []Turn) (reply string, commit bool)) string {
	s.exchange.Lock()
	defer s.exchange.Unlock()

	history := s.Turns()
	reply, commit := fn(history)
	if commit {
		s.Append(Turn{Role: RoleUser, Content: query}, Turn{Role: RoleAssistant, Content: reply})
	}
	return reply
}

// Append adds turns, evicting the oldest beyond the cap.
func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(turns...)
}

func (s *Session) appendLocked(turns ...Turn) {
	s.turns = append(s.turns, turns...)
	if over := len(s.turns) - s.maxTurns; over > 0 {
		s.turns = append([]Turn(nil), s.turns[over:]...)
	}
}

// Turns returns a copy of the history, oldest first.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of stored turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// FormatContext renders the last n turns as "Usuario: ..." / "Asistente: ..." lines.
// It returns "" when there is no history.
func FormatContext(turns []Turn, n int) string {
	if len(turns) == 0 || n <= 0 {
		return ""
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	lines := make([]string, len(turns))
	for i, t := range turns {
		speaker := "Asistente"
		if t.Role == RoleUser {
			speaker = "Usuario"
		}
		lines[i] = speaker + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}
