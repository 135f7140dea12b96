// Package audit defines the append-only event trail. Every transfer
// decision is recorded here exactly once, alongside the administrative
// mutations that change the compliance state the decisions read.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"custos/pkg/domain"
)

// Action names the recorded operation.
type Action string

const (
	// ActionTransferDecision is the per-transfer verdict. It is emitted
	// synchronously and fail-closed: if it cannot be persisted the transfer
	// must not proceed.
	ActionTransferDecision Action = "transfer_decision"

	// Administrative trail.
	ActionOfficerGranted     Action = "officer_granted"
	ActionOfficerRevoked     Action = "officer_revoked"
	ActionPermissionSet      Action = "permission_set"
	ActionOwnershipChanged   Action = "ownership_changed"
	ActionTradingLockSet     Action = "trading_lock_set"
	ActionAdmissionSet       Action = "shareholder_admission_set"
	ActionOfferEndDateSet    Action = "offer_end_date_set"
	ActionWhitelistCreated   Action = "whitelist_created"
	ActionWhitelistAdded     Action = "whitelist_added_to_settings"
	ActionMemberAdded        Action = "whitelist_member_added"
	ActionMemberRemoved      Action = "whitelist_member_removed"
	ActionLedgerRegistered   Action = "secure_ledger_registered"
	ActionSupplyMinted       Action = "supply_minted"
)

// Event is one audit record. Decision events carry the numeric reason code
// external consumers match on; administrative events use Detail for the
// human-readable summary.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	LedgerID  domain.LedgerID
	Action    Action

	// Decision fields. ReasonCode follows the fixed external mapping
	// (0 ok, 2 new shareholders disallowed, 3 trading locked,
	// 4 not whitelisted, 5 restricted-class lockup).
	Allowed    bool
	ReasonCode uint8
	Spender    domain.Account
	From       domain.Account
	To         domain.Account
	Value      uint64

	// Administrative fields.
	Actor  domain.Account
	Detail string

	RequestID string
}

// Store persists events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
