package convstate

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[int64]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore constructs an in-process Store. State is lost on restart,
// which is acceptable because expired or missing state only makes the bot
// re-prompt the user.
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{
		entries: make(map[int64]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *memoryStore) Set(_ context.Context, userID int64, stage Stage, report *PendingReport) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[userID] = &Entry{
		Stage:         stage,
		Report:        report,
		CreatedAt:     now,
		LastTouchedAt: now,
	}
	return nil
}

func (m *memoryStore) Get(_ context.Context, userID int64) (*Entry, error) {
	m.mu.RLock()
	entry, ok := m.entries[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if m.now().Sub(entry.LastTouchedAt) > m.ttl {
		m.mu.Lock()
		// Re-check under the write lock, a Set may have raced the eviction.
		if cur, ok := m.entries[userID]; ok && m.now().Sub(cur.LastTouchedAt) > m.ttl {
			delete(m.entries, userID)
		}
		m.mu.Unlock()
		return nil, nil
	}

	cp := *entry
	return &cp, nil
}

func (m *memoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, userID)
	return nil
}
