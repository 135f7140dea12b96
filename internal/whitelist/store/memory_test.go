package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/whitelist"
	"custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	list := whitelist.List{Name: "general", Kind: whitelist.KindStandard}

	require.NoError(t, s.Create(ctx, list))
	assert.ErrorIs(t, s.Create(ctx, list), sentinel.ErrConflict)

	found, err := s.Find(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, list, found)

	_, err = s.Find(ctx, "ghost")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.AddMember(ctx, "general", "alice"))
	require.NoError(t, s.AddMember(ctx, "general", "bob"))
	members, err := s.Members(ctx, "general")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Account{"alice", "bob"}, members)

	require.NoError(t, s.RemoveMember(ctx, "general", "bob"))
	member, err := s.IsMember(ctx, "general", "bob")
	require.NoError(t, err)
	assert.False(t, member)

	ledgerID := domain.NewLedgerID()
	applies, err := s.AppliesTo(ctx, "general", ledgerID)
	require.NoError(t, err)
	assert.False(t, applies)

	require.NoError(t, s.RegisterLedger(ctx, "general", ledgerID))
	applies, err = s.AppliesTo(ctx, "general", ledgerID)
	require.NoError(t, err)
	assert.True(t, applies)

	assert.ErrorIs(t, s.AddMember(ctx, "ghost", "alice"), sentinel.ErrNotFound)
	assert.ErrorIs(t, s.RegisterLedger(ctx, "ghost", ledgerID), sentinel.ErrNotFound)
}
