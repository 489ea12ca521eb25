package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps refresh sessions in process. Used by tests and the
// single-node dev setup.
type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]Session{}}
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.RefreshToken] = s
	return nil
}

func (m *MemoryStore) Find(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[token]; ok {
		return s, nil
	}
	return Session{}, ErrSessionNotFound
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[token]; !ok {
		return ErrSessionNotFound
	}
	delete(m.byID, token)
	return nil
}

// DeleteExpired drops every session whose expiry is not after now.
func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.byID {
		if !s.ExpiresAt.After(now) {
			delete(m.byID, token)
			n++
		}
	}
	return n, nil
}

// Has reports whether token is still stored.
func (m *MemoryStore) Has(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[token]
	return ok
}

var _ SessionStore = (*MemoryStore)(nil)
