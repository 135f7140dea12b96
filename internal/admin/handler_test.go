package admin

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/permission"
	"custos/internal/settings"
	"custos/internal/whitelist"
	wlstore "custos/internal/whitelist/store"
	"custos/pkg/domain"
	audit "custos/pkg/platform/audit"
	"custos/pkg/platform/audit/publisher"
	auditmem "custos/pkg/platform/audit/store/memory"
	"custos/pkg/testutil"
)

var owner = domain.Account("owner")

type fixture struct {
	router   http.Handler
	events   *auditmem.Store
	registry *permission.Registry
	settings *settings.Service
	ledgerID domain.LedgerID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry, err := permission.NewRegistry(owner)
	require.NoError(t, err)

	whitelists, err := whitelist.New(wlstore.NewInMemory(), registry)
	require.NoError(t, err)

	settingsService, err := settings.New(registry, whitelists)
	require.NoError(t, err)

	events := auditmem.New()
	ledgerID := domain.NewLedgerID()
	service := New(ledgerID, registry, settingsService, whitelists, publisher.New(events))

	router := chi.NewRouter()
	NewHandler(service, slog.Default()).Register(router)

	return &fixture{
		router:   router,
		events:   events,
		registry: registry,
		settings: settingsService,
		ledgerID: ledgerID,
	}
}

func (f *fixture) do(t *testing.T, actor domain.Account, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewRequestWithBody(t, method, path, body)
	if !actor.IsZero() {
		req = testutil.WithActor(req, actor)
	}
	return testutil.DoRequest(f.router, req)
}

// bootstrap grants one officer with every action enabled, through the HTTP
// surface itself.
func (f *fixture) bootstrap(t *testing.T, officer domain.Account) {
	t.Helper()
	w := f.do(t, owner, http.MethodPost, "/admin/officers", fmt.Sprintf(`{"account":%q}`, officer))
	require.Equal(t, http.StatusNoContent, w.Code)
	for _, action := range permission.Actions() {
		w := f.do(t, owner, http.MethodPut, "/admin/permissions/"+action.String(), `{"enabled":true}`)
		require.Equal(t, http.StatusNoContent, w.Code)
	}
}

func (f *fixture) lastEvent(t *testing.T) audit.Event {
	t.Helper()
	events := f.events.All()
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

func TestOfficerLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, owner, http.MethodPost, "/admin/officers", `{"account":"officer"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, f.registry.IsOfficer("officer"))
	assert.Equal(t, audit.ActionOfficerGranted, f.lastEvent(t).Action)
	assert.Equal(t, owner, f.lastEvent(t).Actor)
	assert.Equal(t, f.ledgerID, f.lastEvent(t).LedgerID)

	w = f.do(t, owner, http.MethodDelete, "/admin/officers/officer", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, f.registry.IsOfficer("officer"))
	assert.Equal(t, audit.ActionOfficerRevoked, f.lastEvent(t).Action)
}

func TestNonOwnerRejected(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "mallory", http.MethodPost, "/admin/officers", `{"account":"mallory"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.events.All(), "failed mutations leave no trail")

	w = f.do(t, "mallory", http.MethodPut, "/admin/settings/locked", `{"enabled":true}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, f.settings.View().Locked)
}

func TestSettingsEndpoints(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t, "officer")

	t.Run("lock", func(t *testing.T) {
		w := f.do(t, "officer", http.MethodPut, "/admin/settings/locked", `{"enabled":true}`)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, f.settings.View().Locked)
		assert.Equal(t, audit.ActionTradingLockSet, f.lastEvent(t).Action)
	})

	t.Run("admission", func(t *testing.T) {
		w := f.do(t, "officer", http.MethodPut, "/admin/settings/new-shareholders", `{"enabled":false}`)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, f.settings.View().AllowNewShareholders)
	})

	t.Run("offer end is one shot", func(t *testing.T) {
		w := f.do(t, "officer", http.MethodPut, "/admin/settings/offer-end", `{"releaseTime":1788220800}`)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, f.settings.View().ReleaseTimeSet())

		w = f.do(t, "officer", http.MethodPut, "/admin/settings/offer-end", `{"releaseTime":1788220801}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("offer end rejects non-positive timestamps", func(t *testing.T) {
		w := f.do(t, "officer", http.MethodPut, "/admin/settings/offer-end", `{"releaseTime":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWhitelistEndpoints(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t, "officer")

	w := f.do(t, "officer", http.MethodPost, "/admin/whitelists", `{"name":"general","kind":"standard"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, audit.ActionWhitelistCreated, f.lastEvent(t).Action)

	w = f.do(t, "officer", http.MethodPost, "/admin/whitelists", `{"name":"general","kind":"standard"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, "officer", http.MethodPost, "/admin/whitelists", `{"name":"vip","kind":"golden"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "officer", http.MethodPost, "/admin/settings/whitelists", `{"name":"general"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"general"}, f.settings.View().Whitelists)

	w = f.do(t, "officer", http.MethodPost, "/admin/settings/whitelists", `{"name":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "officer", http.MethodPost, "/admin/whitelists/general/members", `{"account":"alice"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, audit.ActionMemberAdded, f.lastEvent(t).Action)

	w = f.do(t, "officer", http.MethodDelete, "/admin/whitelists/general/members/alice", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, audit.ActionMemberRemoved, f.lastEvent(t).Action)
}

func TestRegisterLedgerEndpoint(t *testing.T) {
	f := newFixture(t)
	f.bootstrap(t, "officer")

	w := f.do(t, "officer", http.MethodPost, "/admin/whitelists", `{"name":"accredited","kind":"secure"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := fmt.Sprintf(`{"ledgerId":%q}`, f.ledgerID)
	w = f.do(t, "officer", http.MethodPost, "/admin/whitelists/accredited/ledgers", body)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, audit.ActionLedgerRegistered, f.lastEvent(t).Action)

	w = f.do(t, "officer", http.MethodPost, "/admin/whitelists/accredited/ledgers", `{"ledgerId":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferOwnershipEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, owner, http.MethodPost, "/admin/owner", `{"account":"successor"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, domain.Account("successor"), f.registry.Owner())
	assert.Equal(t, audit.ActionOwnershipChanged, f.lastEvent(t).Action)
}

func TestUnknownActionRejected(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, owner, http.MethodPut, "/admin/permissions/selfDestruct", `{"enabled":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
