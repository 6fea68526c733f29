package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind a session cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists sessions so that logout revokes the cookie.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Lookup(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	sess    Session
	expires time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between instances.
func NewMemoryStore() Store {
	return &memoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *memoryStore) Save(_ context.Context, s *Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, id)
		}
	}
	m.entries[s.ID] = memoryEntry{sess: *s, expires: now.Add(ttl)}
	return nil
}

func (m *memoryStore) Lookup(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.now().After(e.expires) {
		delete(m.entries, id)
		return nil, ErrSessionNotFound
	}
	s := e.sess
	return &s, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
