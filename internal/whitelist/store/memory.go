// Package store provides the whitelist persistence backends: in-memory for
// tests and single-node use, PostgreSQL for durable deployment-local lists,
// and Redis for secure pools shared between deployments.
package store

import (
	"context"
	"sync"

	"custos/internal/whitelist"
	"custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// InMemory keeps lists in process memory guarded by a RWMutex.
type InMemory struct {
	mu    sync.RWMutex
	lists map[string]*memoryList
}

type memoryList struct {
	meta    whitelist.List
	members map[domain.Account]struct{}
	ledgers map[domain.LedgerID]struct{}
}

// NewInMemory constructs an empty in-memory whitelist store.
func NewInMemory() *InMemory {
	return &InMemory{lists: make(map[string]*memoryList)}
}

func (s *InMemory) Create(_ context.Context, list whitelist.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[list.Name]; ok {
		return sentinel.ErrConflict
	}
	s.lists[list.Name] = &memoryList{
		meta:    list,
		members: make(map[domain.Account]struct{}),
		ledgers: make(map[domain.LedgerID]struct{}),
	}
	return nil
}

func (s *InMemory) Find(_ context.Context, name string) (whitelist.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[name]
	if !ok {
		return whitelist.List{}, sentinel.ErrNotFound
	}
	return list.meta, nil
}

func (s *InMemory) AddMember(_ context.Context, name string, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[name]
	if !ok {
		return sentinel.ErrNotFound
	}
	list.members[account] = struct{}{}
	return nil
}

func (s *InMemory) RemoveMember(_ context.Context, name string, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[name]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(list.members, account)
	return nil
}

func (s *InMemory) IsMember(_ context.Context, name string, account domain.Account) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[name]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	_, member := list.members[account]
	return member, nil
}

func (s *InMemory) Members(_ context.Context, name string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	members := make([]domain.Account, 0, len(list.members))
	for account := range list.members {
		members = append(members, account)
	}
	return members, nil
}

func (s *InMemory) RegisterLedger(_ context.Context, name string, ledgerID domain.LedgerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[name]
	if !ok {
		return sentinel.ErrNotFound
	}
	list.ledgers[ledgerID] = struct{}{}
	return nil
}

func (s *InMemory) AppliesTo(_ context.Context, name string, ledgerID domain.LedgerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[name]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	_, registered := list.ledgers[ledgerID]
	return registered, nil
}
