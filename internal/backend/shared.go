package backend

import "sync"

// Shared wraps a Backend behind the single guard every request handler
// goes through. The contract: acquire, issue queries, copy rows into owned
// structures, release. Nothing slow (rendering, formatting) runs while the
// guard is held.
type Shared struct {
	mu      sync.Mutex
	backend *Backend
}

func NewShared(b *Backend) *Shared {
	return &Shared{backend: b}
}

// Acquire blocks until the caller holds the guard, then hands out the
// backend. Every Acquire must be paired with Release.
func (s *Shared) Acquire() *Backend {
	s.mu.Lock()
	return s.backend
}

func (s *Shared) Release() {
	s.mu.Unlock()
}

// Close closes the underlying backend. Callers must not hold the guard.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}
