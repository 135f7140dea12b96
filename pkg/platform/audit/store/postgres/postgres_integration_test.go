//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"custos/pkg/domain"
	audit "custos/pkg/platform/audit"
	"custos/pkg/platform/audit/store/postgres"
	"custos/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "audit_events"))
}

func (s *AuditStoreSuite) event(action audit.Action, at time.Time) audit.Event {
	return audit.Event{
		ID:         uuid.New(),
		Timestamp:  at,
		LedgerID:   domain.NewLedgerID(),
		Action:     action,
		Allowed:    true,
		ReasonCode: 0,
		Spender:    "alice",
		From:       "alice",
		To:         "bob",
		Value:      25,
		Actor:      "alice",
		RequestID:  "req-1",
	}
}

func (s *AuditStoreSuite) TestAppendIsIdempotentOnID() {
	ctx := context.Background()
	event := s.event(audit.ActionTransferDecision, time.Now().UTC())

	s.Require().NoError(s.store.Append(ctx, event))
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *AuditStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	event := s.event(audit.ActionTransferDecision, time.Now().UTC().Truncate(time.Microsecond))
	event.Allowed = false
	event.ReasonCode = 4
	event.Detail = "denied"

	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListRecent(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 1)

	got := events[0]
	s.Equal(event.ID, got.ID)
	s.Equal(event.LedgerID, got.LedgerID)
	s.Equal(event.Action, got.Action)
	s.False(got.Allowed)
	s.EqualValues(4, got.ReasonCode)
	s.Equal(event.Spender, got.Spender)
	s.Equal(event.From, got.From)
	s.Equal(event.To, got.To)
	s.Equal(event.Value, got.Value)
	s.Equal(event.Actor, got.Actor)
	s.Equal(event.Detail, got.Detail)
	s.Equal(event.RequestID, got.RequestID)
	s.True(event.Timestamp.Equal(got.Timestamp))
}

func (s *AuditStoreSuite) TestListRecentOrdersNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC()

	oldest := s.event(audit.ActionTransferDecision, base.Add(-2*time.Hour))
	middle := s.event(audit.ActionSupplyMinted, base.Add(-time.Hour))
	newest := s.event(audit.ActionTransferDecision, base)
	for _, event := range []audit.Event{oldest, middle, newest} {
		s.Require().NoError(s.store.Append(ctx, event))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(newest.ID, events[0].ID)
	s.Equal(middle.ID, events[1].ID)
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.NewPostgresContainer(t)
	suite.Run(t, &AuditStoreSuite{pg: pg, store: postgres.New(pg.DB)})
}
