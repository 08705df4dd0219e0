package settings

import (
	"context"
	"sync"
)

// Synchronized guards a Config with a read/write mutex for hosts that
// read and write settings from several goroutines.
type Synchronized struct {
	mu    sync.RWMutex
	inner Config
}

// NewSynchronized wraps c.
func NewSynchronized(c Config) *Synchronized {
	return &Synchronized{inner: c}
}

// All returns a copy of the tree's structure, since the live tree may
// change as soon as the lock is released.
func (s *Synchronized) All() Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.All().Clone()
}

// Get reads path under the read lock. Groups and structured values are
// returned as copies.
func (s *Synchronized) Get(path string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.inner.Get(path, def)
	if b, ok := v.(Branch); ok {
		return b.Clone()
	}
	return cloneValue(v)
}

// Lookup is Get without a default, returning a detached node.
func (s *Synchronized) Lookup(path string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.inner.Lookup(path)
	if !ok {
		return n, ok
	}
	return cloneNode(n), ok
}

// Has reports under the read lock whether path holds anything.
func (s *Synchronized) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Has(path)
}

// Set writes value at path under the write lock.
func (s *Synchronized) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Set(path, value)
}

// Reload holds the write lock for the whole rebuild, including the store read.
func (s *Synchronized) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Reload(ctx)
}
