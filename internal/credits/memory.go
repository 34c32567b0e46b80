package credits

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node setups
// without a database.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[string]int
}

// NewMemoryStore creates an empty in-memory balance store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[string]int)}
}

// Grant sets a principal's balance, creating the account if needed.
func (s *MemoryStore) Grant(principal string, balance int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[principal] = balance
}

// ReadCreditBalance returns the principal's balance. Unknown principals
// have zero credits.
func (s *MemoryStore) ReadCreditBalance(_ context.Context, principal string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[principal], nil
}

// ApplyCreditDelta adjusts the balance, rejecting deltas that would drive
// it negative.
func (s *MemoryStore) ApplyCreditDelta(_ context.Context, principal string, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.balances[principal] + delta
	if next < 0 {
		return false, nil
	}
	s.balances[principal] = next
	return true, nil
}
