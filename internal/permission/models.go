package permission

import (
	dErrors "custos/pkg/domain-errors"
)

// Action enumerates the privileged operations officers can be authorized
// for. The set is closed: every compliance mutation routes through exactly
// one of these, and adding a new one is a code change, not configuration.
type Action string

const (
	// ActionSetLocked toggles the global trading lock.
	ActionSetLocked Action = "setLocked"
	// ActionAllowNewShareholders toggles new-shareholder admission.
	ActionAllowNewShareholders Action = "allowNewShareholders"
	// ActionSetOfferEndDate sets the one-shot restricted-class release date.
	ActionSetOfferEndDate Action = "setInitialOfferEndDate"
	// ActionAddWhitelist registers a whitelist with the compliance settings.
	ActionAddWhitelist Action = "addWhitelist"
	// ActionEditWhitelist mutates whitelist membership and secure-list
	// ledger registrations.
	ActionEditWhitelist Action = "editWhitelist"
)

// Actions lists every known action, for iteration in admin surfaces.
func Actions() []Action {
	return []Action{
		ActionSetLocked,
		ActionAllowNewShareholders,
		ActionSetOfferEndDate,
		ActionAddWhitelist,
		ActionEditWhitelist,
	}
}

// ParseAction validates an externally supplied action name against the
// closed set.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionSetLocked, ActionAllowNewShareholders, ActionSetOfferEndDate,
		ActionAddWhitelist, ActionEditWhitelist:
		return Action(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown action %q", raw)
}

func (a Action) String() string {
	return string(a)
}
