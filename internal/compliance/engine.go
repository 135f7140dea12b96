// Package compliance holds the transfer decision engine. Evaluate is a pure
// function over a request and a state snapshot; keeping the rules central
// and free of I/O is what makes the ordering auditable and testable.
package compliance

import (
	"custos/internal/whitelist"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// Engine evaluates proposed transfers against the compliance rules.
type Engine struct{}

// NewEngine constructs the decision engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate judges one transfer. The rules run in a fixed order and the first
// applicable rule wins, which makes the reported reason deterministic when
// several violations hold at once:
//
//  1. restricted-class pre-release lockup (owner exception on either side)
//  2. global trading lock (destination-is-owner exception)
//  3. new-shareholder admission (zero destination balance only)
//  4. whitelist membership
//  5. default allow
//
// A zero-amount transfer is evaluated like any other. The only error is a
// malformed request, which is a caller contract violation, not a denial.
func (e *Engine) Evaluate(req TransferRequest, snap Snapshot) (Decision, error) {
	if req.From.IsZero() || req.To.IsZero() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidInput, "transfer requires from and to accounts")
	}
	if req.Spender.IsZero() {
		req.Spender = req.From
	}

	decision := Decision{
		Spender: req.Spender,
		From:    req.From,
		To:      req.To,
		Amount:  req.Amount,
	}

	if reason, denied := e.deny(req, snap); denied {
		decision.Reason = reason
		return decision, nil
	}
	decision.Allowed = true
	decision.Reason = ReasonOK
	return decision, nil
}

func (e *Engine) deny(req TransferRequest, snap Snapshot) (ReasonCode, bool) {
	// Rule 1: restricted-class holders may not trade peer-to-peer before the
	// release date. The owner may always stand on either side so issuance
	// and buy-backs keep working during the lockup year.
	if !snap.ReleaseTime.IsZero() && req.Now.Before(snap.ReleaseTime) {
		if restrictedParty(snap) && !ownerInvolved(req, snap.Owner) {
			return ReasonRestrictedClassLockup, true
		}
	}

	// Rule 2: global trading lock. Returning funds to the owner stays
	// possible during an emergency freeze.
	if snap.Locked && req.To != snap.Owner {
		return ReasonTradingLocked, true
	}

	// Rule 3: new-shareholder admission. Only transfers that would create a
	// new holder are blocked; existing holders may always receive more.
	if !snap.AllowNewShareholders && snap.ToBalance == 0 {
		return ReasonNewShareholdersDisallowed, true
	}

	// Rule 4: the destination must appear on at least one list that applies
	// to this deployment. Standard, secure, and restricted-class lists all
	// satisfy the gate; there is no priority among them.
	if !destinationListed(snap) {
		return ReasonNotWhitelisted, true
	}

	return ReasonOK, false
}

// restrictedParty reports whether either balance-affected account is under
// the restricted-class lockup.
func restrictedParty(snap Snapshot) bool {
	for _, list := range snap.Lists {
		if list.Kind != whitelist.KindRestrictedClass || !list.Applies {
			continue
		}
		if list.ToMember || list.FromMember {
			return true
		}
	}
	return false
}

func ownerInvolved(req TransferRequest, owner domain.Account) bool {
	return req.To == owner || req.From == owner || req.Spender == owner
}

func destinationListed(snap Snapshot) bool {
	for _, list := range snap.Lists {
		if list.Applies && list.ToMember {
			return true
		}
	}
	return false
}
