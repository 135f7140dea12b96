package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"custos/internal/whitelist"
	"custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// Postgres persists deployment-local whitelists.
//
// Schema:
//
//	CREATE TABLE whitelists (
//	    name       TEXT PRIMARY KEY,
//	    kind       TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE whitelist_members (
//	    list_name TEXT NOT NULL REFERENCES whitelists(name) ON DELETE CASCADE,
//	    account   TEXT NOT NULL,
//	    PRIMARY KEY (list_name, account)
//	);
//	CREATE TABLE whitelist_ledgers (
//	    list_name TEXT NOT NULL REFERENCES whitelists(name) ON DELETE CASCADE,
//	    ledger_id UUID NOT NULL,
//	    PRIMARY KEY (list_name, ledger_id)
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed whitelist store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, list whitelist.List) error {
	query := `
		INSERT INTO whitelists (name, kind, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := s.db.ExecContext(ctx, query, list.Name, string(list.Kind), list.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert whitelist: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, name string) (whitelist.List, error) {
	query := `SELECT name, kind, created_at FROM whitelists WHERE name = $1`

	var list whitelist.List
	var kind string
	err := s.db.QueryRowContext(ctx, query, name).Scan(&list.Name, &kind, &list.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return whitelist.List{}, sentinel.ErrNotFound
	}
	if err != nil {
		return whitelist.List{}, fmt.Errorf("find whitelist: %w", err)
	}
	list.Kind = whitelist.Kind(kind)
	return list, nil
}

func (s *Postgres) AddMember(ctx context.Context, name string, account domain.Account) error {
	if err := s.requireList(ctx, name); err != nil {
		return err
	}
	query := `
		INSERT INTO whitelist_members (list_name, account)
		VALUES ($1, $2)
		ON CONFLICT (list_name, account) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, name, account.String()); err != nil {
		return fmt.Errorf("add whitelist member: %w", err)
	}
	return nil
}

func (s *Postgres) RemoveMember(ctx context.Context, name string, account domain.Account) error {
	if err := s.requireList(ctx, name); err != nil {
		return err
	}
	query := `DELETE FROM whitelist_members WHERE list_name = $1 AND account = $2`
	if _, err := s.db.ExecContext(ctx, query, name, account.String()); err != nil {
		return fmt.Errorf("remove whitelist member: %w", err)
	}
	return nil
}

func (s *Postgres) IsMember(ctx context.Context, name string, account domain.Account) (bool, error) {
	if err := s.requireList(ctx, name); err != nil {
		return false, err
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM whitelist_members WHERE list_name = $1 AND account = $2
		)
	`
	var member bool
	if err := s.db.QueryRowContext(ctx, query, name, account.String()).Scan(&member); err != nil {
		return false, fmt.Errorf("check whitelist member: %w", err)
	}
	return member, nil
}

func (s *Postgres) Members(ctx context.Context, name string) ([]domain.Account, error) {
	if err := s.requireList(ctx, name); err != nil {
		return nil, err
	}
	query := `SELECT account FROM whitelist_members WHERE list_name = $1 ORDER BY account`
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("list whitelist members: %w", err)
	}
	defer rows.Close()

	var members []domain.Account
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("scan whitelist member: %w", err)
		}
		members = append(members, domain.Account(account))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whitelist members: %w", err)
	}
	return members, nil
}

func (s *Postgres) RegisterLedger(ctx context.Context, name string, ledgerID domain.LedgerID) error {
	if err := s.requireList(ctx, name); err != nil {
		return err
	}
	query := `
		INSERT INTO whitelist_ledgers (list_name, ledger_id)
		VALUES ($1, $2)
		ON CONFLICT (list_name, ledger_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, name, ledgerID.String()); err != nil {
		return fmt.Errorf("register ledger: %w", err)
	}
	return nil
}

func (s *Postgres) AppliesTo(ctx context.Context, name string, ledgerID domain.LedgerID) (bool, error) {
	if err := s.requireList(ctx, name); err != nil {
		return false, err
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM whitelist_ledgers WHERE list_name = $1 AND ledger_id = $2
		)
	`
	var registered bool
	if err := s.db.QueryRowContext(ctx, query, name, ledgerID.String()).Scan(&registered); err != nil {
		return false, fmt.Errorf("check ledger registration: %w", err)
	}
	return registered, nil
}

func (s *Postgres) requireList(ctx context.Context, name string) error {
	query := `SELECT EXISTS (SELECT 1 FROM whitelists WHERE name = $1)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return fmt.Errorf("check whitelist exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return nil
}
