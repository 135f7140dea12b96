// Package postgres provides the durable audit store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custos/pkg/domain"
	audit "custos/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id          UUID PRIMARY KEY,
//	    timestamp   TIMESTAMPTZ NOT NULL,
//	    ledger_id   UUID NOT NULL,
//	    action      TEXT NOT NULL,
//	    allowed     BOOLEAN NOT NULL,
//	    reason_code SMALLINT NOT NULL,
//	    spender     TEXT NOT NULL DEFAULT '',
//	    from_acct   TEXT NOT NULL DEFAULT '',
//	    to_acct     TEXT NOT NULL DEFAULT '',
//	    value       NUMERIC NOT NULL DEFAULT 0,
//	    actor       TEXT NOT NULL DEFAULT '',
//	    detail      TEXT NOT NULL DEFAULT '',
//	    request_id  TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_events_timestamp_idx ON audit_events (timestamp DESC);
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one audit event. Idempotent on event ID via ON CONFLICT DO
// NOTHING so a retried emit never duplicates the trail.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	query := `
		INSERT INTO audit_events (
			id, timestamp, ledger_id, action, allowed, reason_code,
			spender, from_acct, to_acct, value, actor, detail, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.LedgerID.String(),
		string(event.Action),
		event.Allowed,
		int16(event.ReasonCode),
		event.Spender.String(),
		event.From.String(),
		event.To.String(),
		event.Value,
		event.Actor.String(),
		event.Detail,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT id, timestamp, ledger_id, action, allowed, reason_code,
			   spender, from_acct, to_acct, value, actor, detail, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event      audit.Event
			ledgerID   string
			action     string
			reasonCode int16
			spender    string
			from       string
			to         string
			actor      string
		)
		err := rows.Scan(
			&event.ID,
			&event.Timestamp,
			&ledgerID,
			&action,
			&event.Allowed,
			&reasonCode,
			&spender,
			&from,
			&to,
			&event.Value,
			&actor,
			&event.Detail,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		parsed, err := domain.ParseLedgerID(ledgerID)
		if err != nil {
			return nil, fmt.Errorf("scan audit event ledger id: %w", err)
		}
		event.LedgerID = parsed
		event.Action = audit.Action(action)
		event.ReasonCode = uint8(reasonCode)
		event.Spender = domain.Account(spender)
		event.From = domain.Account(from)
		event.To = domain.Account(to)
		event.Actor = domain.Account(actor)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
