package sessionstore

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for tests and single-node development.
// It serialises like RedisStore so values come back with the same shapes.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return New(""), nil
	}
	m.mu.Lock()
	payload, ok := m.docs[id]
	m.mu.Unlock()
	if !ok {
		return New(id), nil
	}
	return decode(id, payload)
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	payload, err := s.encode()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[s.id] = payload
	m.mu.Unlock()
	s.modified = false
	s.isNew = false
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.docs, id)
	m.mu.Unlock()
	return nil
}

// Put seeds a raw JSON document, e.g. a legacy cart shape.
func (m *MemoryStore) Put(id string, payload []byte) {
	m.mu.Lock()
	m.docs[id] = append([]byte(nil), payload...)
	m.mu.Unlock()
}
