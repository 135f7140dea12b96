package compliance

import (
	"time"

	"custos/internal/whitelist"
	"custos/pkg/domain"
)

// ReasonCode is the numeric verdict attached to every decision. The values
// are part of the external contract: audit consumers match on the literals,
// so they are fixed forever. Code 1 is reserved and unused.
type ReasonCode uint8

const (
	ReasonOK                        ReasonCode = 0
	ReasonNewShareholdersDisallowed ReasonCode = 2
	ReasonTradingLocked             ReasonCode = 3
	ReasonNotWhitelisted            ReasonCode = 4
	ReasonRestrictedClassLockup     ReasonCode = 5
)

func (c ReasonCode) String() string {
	switch c {
	case ReasonOK:
		return "ok"
	case ReasonNewShareholdersDisallowed:
		return "new_shareholders_disallowed"
	case ReasonTradingLocked:
		return "trading_locked"
	case ReasonNotWhitelisted:
		return "not_whitelisted"
	case ReasonRestrictedClassLockup:
		return "restricted_class_lockup"
	}
	return "unknown"
}

// TransferRequest describes one proposed transfer. Spender is the account
// invoking the transfer and may differ from From under delegated-spend
// semantics; From and To are the balance-affected accounts. Now is the
// instant the transfer is judged against; the engine never reads a clock.
type TransferRequest struct {
	Spender domain.Account
	From    domain.Account
	To      domain.Account
	Amount  uint64
	Now     time.Time
}

// ListStatus is the engine's view of one registered whitelist for one
// request: its kind, whether it applies to this deployment, and whether
// either party is a member.
type ListStatus struct {
	Name       string
	Kind       whitelist.Kind
	Applies    bool
	FromMember bool
	ToMember   bool
}

// Snapshot is the consistent state a single evaluation is judged against.
// The caller assembles it before invoking the engine; a concurrent settings
// mutation never re-judges an in-flight decision.
type Snapshot struct {
	Owner                domain.Account
	Locked               bool
	AllowNewShareholders bool
	ReleaseTime          time.Time
	// ToBalance is the destination's current balance, used by the
	// new-shareholder rule to distinguish existing holders.
	ToBalance uint64
	Lists     []ListStatus
}

// Decision is the engine's verdict. Exactly one is produced per evaluation;
// a denial is a successful outcome, not an error.
type Decision struct {
	Allowed bool
	Reason  ReasonCode
	Spender domain.Account
	From    domain.Account
	To      domain.Account
	Amount  uint64
}
