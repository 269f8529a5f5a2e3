package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
)

type memoryEntry struct {
	sess    *Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Entries older than ttl are
// dropped on read and by Sweep.
type MemoryStore struct {
	mu    sync.Mutex
	items map[int64]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a store; ttl <= 0 keeps sessions until cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *MemoryStore) expired(e memoryEntry, now time.Time) bool {
	return m.ttl > 0 && !now.Before(e.expires)
}

// Get returns a copy of the user's session.
func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[userID]
	if !ok {
		return nil, nil
	}
	if m.expired(e, m.now()) {
		delete(m.items, userID)
		return nil, nil
	}
	return e.sess.Clone(), nil
}

// Set stores a copy of s and restarts its TTL.
func (m *MemoryStore) Set(_ context.Context, userID int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[userID] = memoryEntry{sess: s.Clone(), expires: m.now().Add(m.ttl)}
	return nil
}

// Clear drops the user's session.
func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Sweep removes expired sessions and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.items {
		if m.expired(e, now) {
			delete(m.items, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				logger.Sessions.Debug("sessions swept",
					slog.String("event", "session.sweep"),
					slog.Int("count", n),
				)
			}
		}
	}
}
