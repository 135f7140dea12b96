package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"custos/internal/whitelist"
	"custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// Redis persists whitelists in a shared Redis instance. This is the backend
// for secure accredited-investor pools: several ledger deployments point at
// the same Redis and each opts in per list through RegisterLedger.
type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis constructs a Redis-backed whitelist store. The prefix namespaces
// keys so unrelated services can share the instance.
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client, prefix: "custos:whitelist"}
}

func (s *Redis) metaKey(name string) string    { return fmt.Sprintf("%s:%s:meta", s.prefix, name) }
func (s *Redis) membersKey(name string) string { return fmt.Sprintf("%s:%s:members", s.prefix, name) }
func (s *Redis) ledgersKey(name string) string { return fmt.Sprintf("%s:%s:ledgers", s.prefix, name) }

func (s *Redis) Create(ctx context.Context, list whitelist.List) error {
	created, err := s.client.HSetNX(ctx, s.metaKey(list.Name), "kind", string(list.Kind)).Result()
	if err != nil {
		return fmt.Errorf("create whitelist: %w", err)
	}
	if !created {
		return sentinel.ErrConflict
	}
	if err := s.client.HSet(ctx, s.metaKey(list.Name),
		"created_at", list.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Err(); err != nil {
		return fmt.Errorf("create whitelist: %w", err)
	}
	return nil
}

func (s *Redis) Find(ctx context.Context, name string) (whitelist.List, error) {
	meta, err := s.client.HGetAll(ctx, s.metaKey(name)).Result()
	if err != nil {
		return whitelist.List{}, fmt.Errorf("find whitelist: %w", err)
	}
	if len(meta) == 0 {
		return whitelist.List{}, sentinel.ErrNotFound
	}
	list := whitelist.List{Name: name, Kind: whitelist.Kind(meta["kind"])}
	if raw, ok := meta["created_at"]; ok {
		if createdAt, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			list.CreatedAt = createdAt
		}
	}
	return list, nil
}

func (s *Redis) AddMember(ctx context.Context, name string, account domain.Account) error {
	if err := s.requireList(ctx, name); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, s.membersKey(name), account.String()).Err(); err != nil {
		return fmt.Errorf("add whitelist member: %w", err)
	}
	return nil
}

func (s *Redis) RemoveMember(ctx context.Context, name string, account domain.Account) error {
	if err := s.requireList(ctx, name); err != nil {
		return err
	}
	if err := s.client.SRem(ctx, s.membersKey(name), account.String()).Err(); err != nil {
		return fmt.Errorf("remove whitelist member: %w", err)
	}
	return nil
}

func (s *Redis) IsMember(ctx context.Context, name string, account domain.Account) (bool, error) {
	if err := s.requireList(ctx, name); err != nil {
		return false, err
	}
	member, err := s.client.SIsMember(ctx, s.membersKey(name), account.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check whitelist member: %w", err)
	}
	return member, nil
}

func (s *Redis) Members(ctx context.Context, name string) ([]domain.Account, error) {
	if err := s.requireList(ctx, name); err != nil {
		return nil, err
	}
	raw, err := s.client.SMembers(ctx, s.membersKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("list whitelist members: %w", err)
	}
	members := make([]domain.Account, 0, len(raw))
	for _, account := range raw {
		members = append(members, domain.Account(account))
	}
	return members, nil
}

func (s *Redis) RegisterLedger(ctx context.Context, name string, ledgerID domain.LedgerID) error {
	if err := s.requireList(ctx, name); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, s.ledgersKey(name), ledgerID.String()).Err(); err != nil {
		return fmt.Errorf("register ledger: %w", err)
	}
	return nil
}

func (s *Redis) AppliesTo(ctx context.Context, name string, ledgerID domain.LedgerID) (bool, error) {
	if err := s.requireList(ctx, name); err != nil {
		return false, err
	}
	registered, err := s.client.SIsMember(ctx, s.ledgersKey(name), ledgerID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check ledger registration: %w", err)
	}
	return registered, nil
}

func (s *Redis) requireList(ctx context.Context, name string) error {
	exists, err := s.client.Exists(ctx, s.metaKey(name)).Result()
	if err != nil {
		return fmt.Errorf("check whitelist exists: %w", err)
	}
	if exists == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
