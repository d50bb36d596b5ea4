package connection

import (
	"context"
	"sync"
)

// MemoryStore implements Store using an in-memory map. Useful for tests and
// single-tenant deployments configured from file.
type MemoryStore struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewMemoryStore creates an in-memory connection store.
func NewMemoryStore(connections ...*Connection) *MemoryStore {
	s := &MemoryStore{connections: make(map[string]*Connection)}
	for _, c := range connections {
		s.connections[c.ID] = c
	}
	return s
}

// Put adds or replaces a connection.
func (s *MemoryStore) Put(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[c.ID] = c
}

// Get retrieves a connection by ID. Returns nil, nil if not found.
func (s *MemoryStore) Get(_ context.Context, id string) (*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.connections[id]
	if !ok {
		return nil, nil //nolint:nilnil // Store interface specifies nil,nil for not-found
	}
	return c, nil
}

// List returns all connections.
func (s *MemoryStore) List(_ context.Context) ([]*Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Connection, 0, len(s.connections))
	for _, c := range s.connections {
		result = append(result, c)
	}
	return result, nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
