package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// MemorySessionStore keeps serialized records in process memory.
type MemorySessionStore struct {
	mu    sync.Mutex
	items map[string]memSession
	now   func() time.Time
}

type memSession struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{items: map[string]memSession{}, now: time.Now}
}

func (m *MemorySessionStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	m.mu.Lock()
	item, ok := m.items[id]
	if ok && !item.expiresAt.After(m.now()) {
		delete(m.items, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var rec SessionRecord
	if err := json.Unmarshal(item.data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (m *MemorySessionStore) SaveSession(ctx context.Context, id string, rec *SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = memSession{data: data, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemorySessionStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MemorySessionStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Sweep drops expired sessions and reports how many were removed.
func (m *MemorySessionStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, item := range m.items {
		if !item.expiresAt.After(now) {
			delete(m.items, id)
			removed++
		}
	}
	return removed
}

func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// StartSweeper runs Sweep on the given cron schedule until stop is called.
func (m *MemorySessionStore) StartSweeper(schedule string, onSweep func(removed int)) (stop func(), err error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		n := m.Sweep()
		if onSweep != nil {
			onSweep(n)
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
