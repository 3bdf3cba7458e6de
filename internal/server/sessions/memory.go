package sessions

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/common"
)

type memoryEntry struct {
	secret    []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates an empty store whose sessions live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, id string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.items[id]; ok && now.Before(e.expiresAt) {
		return common.ErrAlreadyExists
	}
	s.items[id] = memoryEntry{secret: bytes.Clone(secret), expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(s.items, id)
	if !s.now().Before(e.expiresAt) {
		common.WipeByteArray(e.secret)
		return nil, common.ErrorNotFound
	}
	return e.secret, nil
}

func (s *MemoryStore) Peek(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, common.ErrorNotFound
	}
	return bytes.Clone(e.secret), nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for id, e := range s.items {
		if !now.Before(e.expiresAt) {
			common.WipeByteArray(e.secret)
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
