// Package guard rejects a second submission of the same form instance
// while the first is still being processed.
package guard

import (
	"context"
	"sync"
	"time"
)

// Guard hands out short-lived exclusive holds on a key. ok is false when
// another holder owns the key. Callers must call release when ok is true.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu    sync.Mutex
	held  map[string]holder
	now   func() time.Time
	nextN uint64
}

type holder struct {
	token   uint64
	expires time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]holder), now: time.Now}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if h, ok := g.held[key]; ok && now.Before(h.expires) {
		return func() {}, false, nil
	}
	g.nextN++
	token := g.nextN
	g.held[key] = holder{token: token, expires: now.Add(ttl)}

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		// An expired hold may have been taken over; only drop our own.
		if h, ok := g.held[key]; ok && h.token == token {
			delete(g.held, key)
		}
	}, true, nil
}
