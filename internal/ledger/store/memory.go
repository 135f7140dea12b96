// Package store provides the ledger balance backends.
package store

import (
	"context"
	"sync"

	"custos/internal/ledger"
	"custos/pkg/domain"
)

// InMemory keeps balances in process memory guarded by a RWMutex.
type InMemory struct {
	mu       sync.RWMutex
	balances map[domain.Account]uint64
}

// NewInMemory constructs an empty in-memory balance store.
func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[domain.Account]uint64)}
}

func (s *InMemory) Balance(_ context.Context, account domain.Account) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *InMemory) Apply(_ context.Context, from, to domain.Account, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[from] < amount {
		return ledger.ErrInsufficientFunds
	}
	s.balances[from] -= amount
	s.balances[to] += amount
	return nil
}

func (s *InMemory) Credit(_ context.Context, to domain.Account, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[to] += amount
	return nil
}
