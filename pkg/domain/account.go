// Package domain holds the identity types shared across the compliance
// packages. Accounts are opaque: the ledger never interprets them beyond
// equality, so they stay as validated strings rather than parsed structures.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "custos/pkg/domain-errors"
)

// Account identifies a party on the ledger. It is an opaque address; the
// compliance rules only ever compare accounts for equality or use them as
// map keys.
type Account string

// ParseAccount validates an externally supplied account identifier.
// Accounts must be non-empty after trimming; everything else is opaque.
func ParseAccount(raw string) (Account, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account must not be empty")
	}
	return Account(trimmed), nil
}

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool {
	return a == ""
}

func (a Account) String() string {
	return string(a)
}

// LedgerID identifies one deployment of the ledger. Secure whitelists are
// shared between deployments and opt in per LedgerID.
type LedgerID uuid.UUID

// ParseLedgerID validates an externally supplied ledger identifier.
func ParseLedgerID(raw string) (LedgerID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return LedgerID{}, dErrors.New(dErrors.CodeInvalidInput, "ledger id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return LedgerID{}, dErrors.New(dErrors.CodeInvalidInput, "ledger id must not be the nil UUID")
	}
	return LedgerID(parsed), nil
}

// NewLedgerID mints a fresh ledger identifier.
func NewLedgerID() LedgerID {
	return LedgerID(uuid.New())
}

// IsNil reports whether the ledger ID is unset.
func (id LedgerID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id LedgerID) String() string {
	return uuid.UUID(id).String()
}
