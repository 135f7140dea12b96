package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/permission"
	"custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

var (
	owner   = domain.Account("owner")
	officer = domain.Account("officer")
	mallory = domain.Account("mallory")
)

type stubListChecker struct {
	known map[string]bool
	err   error
}

func (s *stubListChecker) Exists(_ context.Context, name string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.known[name], nil
}

// fixture returns settings with one officer fully authorized for every
// settings action.
func fixture(t *testing.T, opts ...Option) (*Service, *stubListChecker) {
	t.Helper()
	ctx := context.Background()

	registry, err := permission.NewRegistry(owner)
	require.NoError(t, err)
	require.NoError(t, registry.GrantOfficer(ctx, owner, officer))
	for _, action := range permission.Actions() {
		require.NoError(t, registry.SetPermission(ctx, owner, action, true))
	}

	lists := &stubListChecker{known: map[string]bool{"general": true}}
	service, err := New(registry, lists, opts...)
	require.NoError(t, err)
	return service, lists
}

func TestNew_RequiresCollaborators(t *testing.T) {
	registry, err := permission.NewRegistry(owner)
	require.NoError(t, err)

	_, err = New(nil, &stubListChecker{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	_, err = New(registry, nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestDefaults(t *testing.T) {
	service, _ := fixture(t)
	view := service.View()
	assert.Equal(t, owner, view.Owner)
	assert.False(t, view.Locked)
	assert.True(t, view.AllowNewShareholders)
	assert.False(t, view.ReleaseTimeSet())
	assert.Empty(t, view.Whitelists)

	closed, _ := fixture(t, WithAllowNewShareholders(false))
	assert.False(t, closed.View().AllowNewShareholders)
}

func TestSetLocked(t *testing.T) {
	ctx := context.Background()
	service, _ := fixture(t)

	require.NoError(t, service.SetLocked(ctx, officer, true))
	assert.True(t, service.View().Locked)
	require.NoError(t, service.SetLocked(ctx, officer, false))
	assert.False(t, service.View().Locked)

	err := service.SetLocked(ctx, mallory, true)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.False(t, service.View().Locked)
}

func TestSetAllowNewShareholders(t *testing.T) {
	ctx := context.Background()
	service, _ := fixture(t)

	require.NoError(t, service.SetAllowNewShareholders(ctx, officer, false))
	assert.False(t, service.View().AllowNewShareholders)

	err := service.SetAllowNewShareholders(ctx, mallory, true)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.False(t, service.View().AllowNewShareholders)
}

func TestSetInitialOfferEndDate(t *testing.T) {
	ctx := context.Background()
	release := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("one shot", func(t *testing.T) {
		service, _ := fixture(t)
		require.NoError(t, service.SetInitialOfferEndDate(ctx, officer, release))
		assert.Equal(t, release, service.View().ReleaseTime)

		err := service.SetInitialOfferEndDate(ctx, officer, release.Add(time.Hour))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, release, service.View().ReleaseTime, "first value must survive")
	})

	t.Run("zero time rejected", func(t *testing.T) {
		service, _ := fixture(t)
		err := service.SetInitialOfferEndDate(ctx, officer, time.Time{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.False(t, service.View().ReleaseTimeSet())
	})

	t.Run("unauthorized actor rejected", func(t *testing.T) {
		service, _ := fixture(t)
		err := service.SetInitialOfferEndDate(ctx, mallory, release)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestAddWhitelist(t *testing.T) {
	ctx := context.Background()

	t.Run("registered list appended once", func(t *testing.T) {
		service, lists := fixture(t)
		lists.known["accredited"] = true

		require.NoError(t, service.AddWhitelist(ctx, officer, "general"))
		require.NoError(t, service.AddWhitelist(ctx, officer, "accredited"))
		require.NoError(t, service.AddWhitelist(ctx, officer, "general"))
		assert.Equal(t, []string{"general", "accredited"}, service.View().Whitelists)
	})

	t.Run("unknown list rejected", func(t *testing.T) {
		service, _ := fixture(t)
		err := service.AddWhitelist(ctx, officer, "ghost")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.Empty(t, service.View().Whitelists)
	})

	t.Run("unauthorized actor rejected", func(t *testing.T) {
		service, _ := fixture(t)
		err := service.AddWhitelist(ctx, mallory, "general")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestView_IsDetached(t *testing.T) {
	ctx := context.Background()
	service, _ := fixture(t)
	require.NoError(t, service.AddWhitelist(ctx, officer, "general"))

	view := service.View()
	view.Whitelists[0] = "tampered"
	view.Locked = true

	fresh := service.View()
	assert.Equal(t, []string{"general"}, fresh.Whitelists)
	assert.False(t, fresh.Locked)
}
