package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"azusena/internal/contextutil"
)

// DefaultMaxTurns is the history cap: five user/assistant exchanges.
const DefaultMaxTurns = 10

// Manager owns the live sessions and evicts idle ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a session manager. Sessions idle for longer than ttl are
// dropped by Sweep; a zero ttl keeps sessions until they are ended.
func NewManager(maxTurns int, ttl time.Duration) *Manager {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Manager{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCreate returns the session with the given id, creating it when it does
// not exist. An empty or malformed id starts a new session with a fresh id.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s
	}

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	s := newSession(id, m.maxTurns, now)
	m.sessions[id] = s
	return s
}

// Get returns an existing session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End forgets a session. It reports whether the session existed.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.InfoContext(ctx, "evicted idle sessions", "count", n, "remaining", m.Len())
			}
		}
	}
}
