package identity

import (
	"context"
	"sync"

	"github.com/xraph/handlepay/types"
)

// Static is a map-backed Registry for tests and single-process wiring.
// Unregistered handles resolve to the zero address.
type Static struct {
	mu      sync.RWMutex
	entries map[string]types.Address
}

// compile-time interface check
var _ Registry = (*Static)(nil)

// NewStatic creates an empty Static registry.
func NewStatic() *Static {
	return &Static{
		entries: make(map[string]types.Address),
	}
}

// Resolve implements Registry.
func (s *Static) Resolve(_ context.Context, handle string) (types.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entries[handle], nil
}

// Register binds a handle to an owner address.
func (s *Static) Register(handle string, owner types.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[handle] = owner
}

// Unregister removes a handle binding.
func (s *Static) Unregister(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, handle)
}
