package indexer

import "sync"

// Gate orders index swaps against readers. A reader holds it from a search
// until the hits are resolved to stored articles, so both come from the same
// build. A nil Gate does no locking.
type Gate struct {
	mu sync.RWMutex
}

// NewGate creates a Gate.
func NewGate() *Gate {
	return &Gate{}
}

// Read runs fn while no swap is in progress. Read must not be nested.
func (g *Gate) Read(fn func() error) error {
	if g == nil {
		return fn()
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn()
}

// Write runs fn with every reader excluded.
func (g *Gate) Write(fn func() error) error {
	if g == nil {
		return fn()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
