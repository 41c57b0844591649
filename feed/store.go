package feed

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrViewNotFound is returned for unknown or expired page views.
var ErrViewNotFound = errors.New("feed: view not found")

// Store keeps the State of each page view. Views expire after a TTL, which
// stands in for the page being closed.
type Store interface {
	Save(ctx context.Context, view string, s State) error
	Load(ctx context.Context, view string) (State, error)
	// Update applies fn atomically to the view's state and stores the result.
	Update(ctx context.Context, view string, fn func(State) State) (State, error)
	Delete(ctx context.Context, view string) error
}

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	views map[string]memoryEntry
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

// DefaultViewTTL is used when a store is given a non-positive TTL.
const DefaultViewTTL = 30 * time.Minute

// NewMemoryStore creates a MemoryStore whose views live for ttl after their
// last write. Expired views are swept once per ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	m := &MemoryStore{
		views: make(map[string]memoryEntry),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go m.cleanup()
	return m
}

func (m *MemoryStore) cleanup() {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, e := range m.views {
				if now.After(e.expires) {
					delete(m.views, id)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Close stops the sweeper.
func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryStore) Save(_ context.Context, view string, s State) error {
	m.mu.Lock()
	m.views[view] = memoryEntry{state: s, expires: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, view string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.views[view]
	if !ok || time.Now().After(e.expires) {
		return State{}, ErrViewNotFound
	}
	return e.state, nil
}

func (m *MemoryStore) Update(_ context.Context, view string, fn func(State) State) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.views[view]
	if !ok || time.Now().After(e.expires) {
		return State{}, ErrViewNotFound
	}
	next := fn(e.state)
	m.views[view] = memoryEntry{state: next, expires: time.Now().Add(m.ttl)}
	return next, nil
}

func (m *MemoryStore) Delete(_ context.Context, view string) error {
	m.mu.Lock()
	delete(m.views, view)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live views.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}
