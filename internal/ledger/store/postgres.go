package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"custos/internal/ledger"
	"custos/pkg/domain"
)

// Postgres persists balances.
//
// Schema:
//
//	CREATE TABLE balances (
//	    account TEXT PRIMARY KEY,
//	    balance NUMERIC NOT NULL CHECK (balance >= 0)
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed balance store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Balance(ctx context.Context, account domain.Account) (uint64, error) {
	query := `SELECT balance FROM balances WHERE account = $1`
	var balance uint64
	err := s.db.QueryRowContext(ctx, query, account.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// Apply debits and credits inside one transaction. The conditional UPDATE
// keeps the debit atomic: zero rows affected means the balance was too
// small, and nothing is committed.
func (s *Postgres) Apply(ctx context.Context, from, to domain.Account, amount uint64) error {
	// Zero-amount transfers are decided like any other but move nothing, and
	// must not fail on accounts that have no balance row yet.
	if amount == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	debit := `
		UPDATE balances
		SET balance = balance - $2
		WHERE account = $1 AND balance >= $2
	`
	result, err := tx.ExecContext(ctx, debit, from.String(), amount)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if affected == 0 {
		return ledger.ErrInsufficientFunds
	}

	credit := `
		INSERT INTO balances (account, balance)
		VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = balances.balance + EXCLUDED.balance
	`
	if _, err := tx.ExecContext(ctx, credit, to.String(), amount); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

func (s *Postgres) Credit(ctx context.Context, to domain.Account, amount uint64) error {
	query := `
		INSERT INTO balances (account, balance)
		VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = balances.balance + EXCLUDED.balance
	`
	if _, err := s.db.ExecContext(ctx, query, to.String(), amount); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}
