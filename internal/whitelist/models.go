package whitelist

import (
	"strings"
	"time"

	dErrors "custos/pkg/domain-errors"
)

// Kind classifies a whitelist by the rule it participates in.
type Kind string

const (
	// KindStandard is a general allow-list; membership alone satisfies the
	// membership gate.
	KindStandard Kind = "standard"
	// KindSecure is an accredited-investor pool shared between ledger
	// deployments. It only counts for deployments that registered with it
	// explicitly.
	KindSecure Kind = "secure"
	// KindRestrictedClass subjects members to the time-gated lockup with the
	// owner-only exception.
	KindRestrictedClass Kind = "restricted_class"
)

// ParseKind validates an externally supplied kind string.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindStandard, KindSecure, KindRestrictedClass:
		return Kind(raw), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown whitelist kind %q", raw)
}

// List is a named membership list. Members and ledger registrations live in
// the store; List itself is the metadata row.
type List struct {
	Name      string
	Kind      Kind
	CreatedAt time.Time
}

// ParseListName validates an externally supplied list name.
func ParseListName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "whitelist name must not be empty")
	}
	return name, nil
}

// Probe is a point-in-time membership reading for one list and one transfer.
// The compliance engine consumes probes instead of store handles so it stays
// free of I/O.
type Probe struct {
	Name string
	Kind Kind
	// Applies reports whether this list counts for the probing deployment.
	// Always true for Standard and RestrictedClass lists; Secure lists apply
	// only to explicitly registered ledgers.
	Applies    bool
	FromMember bool
	ToMember   bool
}
