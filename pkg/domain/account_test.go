package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custos/pkg/domain-errors"
)

func TestParseAccount(t *testing.T) {
	account, err := ParseAccount("  alice  ")
	require.NoError(t, err)
	assert.Equal(t, Account("alice"), account)
	assert.False(t, account.IsZero())

	for _, raw := range []string{"", "   "} {
		_, err := ParseAccount(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestParseLedgerID(t *testing.T) {
	id := NewLedgerID()
	parsed, err := ParseLedgerID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.False(t, parsed.IsNil())

	_, err = ParseLedgerID("not-a-uuid")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseLedgerID("00000000-0000-0000-0000-000000000000")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	assert.True(t, LedgerID{}.IsNil())
}
