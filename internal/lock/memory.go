package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker is a single-process Locker for tests and local runs.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]heldLock
	opts  Options
	clock func() time.Time
}

type heldLock struct {
	token     string
	expiresAt time.Time
}

func NewMemoryLocker(opts Options) *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]heldLock),
		opts:  opts.withDefaults(),
		clock: time.Now,
	}
}

func (m *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	err := acquireLoop(ctx, m.opts, func(context.Context) (bool, error) {
		return m.tryLock(key, token), nil
	})
	if err != nil {
		return nil, err
	}

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if h, ok := m.held[key]; ok && h.token == token {
			delete(m.held, key)
		}
		return nil
	}, nil
}

func (m *MemoryLocker) tryLock(key, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if h, ok := m.held[key]; ok && now.Before(h.expiresAt) {
		return false
	}
	m.held[key] = heldLock{token: token, expiresAt: now.Add(m.opts.TTL)}
	return true
}
