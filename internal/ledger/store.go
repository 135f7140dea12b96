package ledger

import (
	"context"
	"errors"

	"custos/pkg/domain"
)

// ErrInsufficientFunds is returned by balance stores when a debit exceeds
// the source balance. It is an infrastructure fact, translated by the
// service into a coded error.
var ErrInsufficientFunds = errors.New("insufficient funds")

// BalanceStore persists account balances. Unknown accounts hold zero.
type BalanceStore interface {
	Balance(ctx context.Context, account domain.Account) (uint64, error)
	// Apply atomically debits from and credits to. Fails with
	// ErrInsufficientFunds without partial effect when the source balance
	// is too small.
	Apply(ctx context.Context, from, to domain.Account, amount uint64) error
	// Credit increases a balance without a matching debit (issuance).
	Credit(ctx context.Context, to domain.Account, amount uint64) error
}
