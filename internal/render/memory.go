package render

import (
	"context"
	"sync"
)

// NewMemoryStore returns a Store backed by an in-memory map. Used by tests and
// by local setups that run the rendering pipeline in the same process.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// MemoryStore implements Store over a mutex-guarded map.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// Get returns the state recorded for the job id, if any.
func (s *MemoryStore) Get(_ context.Context, id string) (State, bool, error) {
	s.mu.RLock()
	state, ok := s.states[id]
	s.mu.RUnlock()
	return state, ok, nil
}

// Put records state for a job id.
func (s *MemoryStore) Put(state State) {
	s.mu.Lock()
	s.states[state.ID] = state
	s.mu.Unlock()
}

// Delete removes a job record, mimicking pipeline-side expiry.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	delete(s.states, id)
	s.mu.Unlock()
}

var _ Store = (*MemoryStore)(nil)
