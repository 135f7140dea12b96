package whitelist_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/permission"
	"custos/internal/whitelist"
	"custos/internal/whitelist/store"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

var (
	owner   = domain.Account("owner")
	officer = domain.Account("officer")
	mallory = domain.Account("mallory")
	alice   = domain.Account("alice")
)

func fixture(t *testing.T) *whitelist.Service {
	t.Helper()
	ctx := context.Background()

	registry, err := permission.NewRegistry(owner)
	require.NoError(t, err)
	require.NoError(t, registry.GrantOfficer(ctx, owner, officer))
	require.NoError(t, registry.SetPermission(ctx, owner, permission.ActionAddWhitelist, true))
	require.NoError(t, registry.SetPermission(ctx, owner, permission.ActionEditWhitelist, true))

	service, err := whitelist.New(store.NewInMemory(), registry)
	require.NoError(t, err)
	return service
}

func TestNew_RequiresCollaborators(t *testing.T) {
	registry, err := permission.NewRegistry(owner)
	require.NoError(t, err)

	_, err = whitelist.New(nil, registry)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = whitelist.New(store.NewInMemory(), nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestCreateList(t *testing.T) {
	ctx := context.Background()

	t.Run("officer creates a list", func(t *testing.T) {
		service := fixture(t)
		list, err := service.CreateList(ctx, officer, whitelist.List{Name: "  general ", Kind: whitelist.KindStandard})
		require.NoError(t, err)
		assert.Equal(t, "general", list.Name, "name is trimmed")

		exists, err := service.Exists(ctx, "general")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: whitelist.KindStandard})
		require.NoError(t, err)
		_, err = service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: whitelist.KindSecure})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("invalid inputs rejected", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "  ", Kind: whitelist.KindStandard})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: "vip"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("non-officer rejected", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, mallory, whitelist.List{Name: "general", Kind: whitelist.KindStandard})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("add check remove", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: whitelist.KindStandard})
		require.NoError(t, err)

		require.NoError(t, service.AddMember(ctx, officer, "general", alice))
		member, err := service.IsMember(ctx, "general", alice)
		require.NoError(t, err)
		assert.True(t, member)

		// Adding again and removing twice are both no-ops.
		require.NoError(t, service.AddMember(ctx, officer, "general", alice))
		require.NoError(t, service.RemoveMember(ctx, officer, "general", alice))
		require.NoError(t, service.RemoveMember(ctx, officer, "general", alice))

		member, err = service.IsMember(ctx, "general", alice)
		require.NoError(t, err)
		assert.False(t, member)
	})

	t.Run("unknown list", func(t *testing.T) {
		service := fixture(t)
		err := service.AddMember(ctx, officer, "ghost", alice)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = service.IsMember(ctx, "ghost", alice)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("non-officer rejected", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: whitelist.KindStandard})
		require.NoError(t, err)
		err = service.AddMember(ctx, mallory, "general", alice)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("zero account rejected", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: whitelist.KindStandard})
		require.NoError(t, err)
		err = service.AddMember(ctx, officer, "general", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestRegisterLedger(t *testing.T) {
	ctx := context.Background()
	ledgerID := domain.NewLedgerID()

	t.Run("secure list accepts registration", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "accredited", Kind: whitelist.KindSecure})
		require.NoError(t, err)
		require.NoError(t, service.RegisterLedger(ctx, officer, "accredited", ledgerID))
	})

	t.Run("standard list refuses registration", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: whitelist.KindStandard})
		require.NoError(t, err)
		err = service.RegisterLedger(ctx, officer, "general", ledgerID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("nil ledger id rejected", func(t *testing.T) {
		service := fixture(t)
		err := service.RegisterLedger(ctx, officer, "accredited", domain.LedgerID{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	registered := domain.NewLedgerID()
	stranger := domain.NewLedgerID()

	t.Run("standard list always applies", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "general", Kind: whitelist.KindStandard})
		require.NoError(t, err)
		require.NoError(t, service.AddMember(ctx, officer, "general", alice))

		probe, err := service.Probe(ctx, "general", stranger, owner, alice)
		require.NoError(t, err)
		assert.True(t, probe.Applies)
		assert.True(t, probe.ToMember)
		assert.False(t, probe.FromMember)
	})

	t.Run("secure list applies only to registered ledgers", func(t *testing.T) {
		service := fixture(t)
		_, err := service.CreateList(ctx, officer, whitelist.List{Name: "accredited", Kind: whitelist.KindSecure})
		require.NoError(t, err)
		require.NoError(t, service.AddMember(ctx, officer, "accredited", alice))
		require.NoError(t, service.RegisterLedger(ctx, officer, "accredited", registered))

		probe, err := service.Probe(ctx, "accredited", registered, owner, alice)
		require.NoError(t, err)
		assert.True(t, probe.Applies)

		probe, err = service.Probe(ctx, "accredited", stranger, owner, alice)
		require.NoError(t, err)
		assert.False(t, probe.Applies, "unregistered deployment must not rely on the pool")
		assert.True(t, probe.ToMember, "membership is still reported")
	})

	t.Run("unknown list", func(t *testing.T) {
		service := fixture(t)
		_, err := service.Probe(ctx, "ghost", registered, owner, alice)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
