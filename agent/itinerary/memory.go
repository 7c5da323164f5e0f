package itinerary

import (
	"context"
	"fmt"
	"sync"

	contractx "github.com/tualang-ai/tualang/agent/contract"
)

// MemoryStore keeps itineraries in process memory. It backs local runs
// without a database and the test suite.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]contractx.Itinerary
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]contractx.Itinerary)}
}

// Save stores the itinerary keyed by its ID.
func (s *MemoryStore) Save(_ context.Context, it contractx.Itinerary) (string, error) {
	if it.ID == "" {
		return "", fmt.Errorf("%w: itinerary id is required", contractx.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = it
	return it.ID, nil
}

// Load reads one itinerary back by ID.
func (s *MemoryStore) Load(_ context.Context, id string) (contractx.Itinerary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return contractx.Itinerary{}, fmt.Errorf("%w: %s", contractx.ErrItineraryNotFound, id)
	}
	return it, nil
}

// Len reports the number of stored itineraries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
