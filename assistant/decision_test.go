package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decisionFixture struct {
	clock   *fakeClock
	store   *ProposalStore
	records *memoryRecords
	decider *Decider
	metrics *Metrics
}

func newDecisionFixture(t *testing.T) *decisionFixture {
	t.Helper()
	clock := newFakeClock()
	store := NewProposalStore(WithClock(clock.Now))
	records := newMemoryRecords()
	seedTrip(t, records)
	metrics := NewMetrics(prometheus.NewRegistry(), store)
	return &decisionFixture{
		clock:   clock,
		store:   store,
		records: records,
		metrics: metrics,
		decider: NewDecider(store, NewMutator(records, staticTimezone("Europe/Paris")), discardLogger(), metrics),
	}
}

func (f *decisionFixture) propose(t *testing.T, tripID string, tool Tool, raw string) *Proposal {
	t.Helper()
	p, err := NewProposal(tripID, tool, []byte(raw), f.clock.Now())
	require.NoError(t, err)
	f.store.Put(p)
	return p
}

func TestParseDecision(t *testing.T) {
	for _, s := range []string{"approve", "Decline", " timeout "} {
		_, err := ParseDecision(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseDecision("maybe")
	assert.True(t, IsValidation(err))
}

func TestDecideCreateActivityHappyPath(t *testing.T) {
	f := newDecisionFixture(t)
	p := f.propose(t, "trip1", ToolCreateActivity, lePetitArgs)

	result, err := f.decider.Decide(context.Background(), "trip1", p.ID, DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, result.Status)
	assert.Contains(t, result.Message, "Le Petit")

	assert.Equal(t, 1, f.records.count(CollectionActivities))
	activities, err := f.records.FindTripRecords(CollectionActivities, "trip1")
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Le Petit", activities[0].GetString("name"))
	assert.Equal(t, "2024-06-02T19:00:00", formatDate(activities[0].GetDateTime("startDate")))

	_, err = f.decider.Decide(context.Background(), "trip1", p.ID, DecisionApprove)
	var gone *GoneError
	require.ErrorAs(t, err, &gone)
	assert.Equal(t, RetiredDecided, gone.Reason)
	assert.ErrorIs(t, err, ErrProposalGone)
	assert.Equal(t, 1, f.records.count(CollectionActivities))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.decisions.WithLabelValues(string(ToolCreateActivity), StatusApproved)))
}

func TestDecideExpiredProposal(t *testing.T) {
	for _, decision := range []Decision{DecisionApprove, DecisionDecline, DecisionTimeout} {
		t.Run(string(decision), func(t *testing.T) {
			f := newDecisionFixture(t)
			p := f.propose(t, "trip1", ToolCreateActivity, lePetitArgs)
			f.clock.Advance(ProposalTTL + time.Second)

			_, err := f.decider.Decide(context.Background(), "trip1", p.ID, decision)

			var gone *GoneError
			require.ErrorAs(t, err, &gone)
			assert.Equal(t, RetiredExpired, gone.Reason)
			assert.Equal(t, "proposal timed out", gone.Error())
			assert.Equal(t, 0, f.store.Len())
			assert.Equal(t, 0, f.records.count(CollectionActivities))
		})
	}
}

func TestDecideUnknownProposal(t *testing.T) {
	f := newDecisionFixture(t)
	_, err := f.decider.Decide(context.Background(), "trip1", "never-issued", DecisionDecline)
	assert.ErrorIs(t, err, ErrProposalGone)
	assert.Equal(t, ErrProposalGone.Error(), err.Error())
}

func TestDecideForeignTrip(t *testing.T) {
	for _, decision := range []Decision{DecisionApprove, DecisionDecline, DecisionTimeout} {
		t.Run(string(decision), func(t *testing.T) {
			f := newDecisionFixture(t)
			p := f.propose(t, "trip1", ToolCreateActivity, lePetitArgs)

			_, err := f.decider.Decide(context.Background(), "trip2", p.ID, decision)

			assert.ErrorIs(t, err, ErrProposalForbidden)
			assert.Equal(t, 0, f.records.count(CollectionActivities))
		})
	}
}

func TestDecideDeclineAndTimeout(t *testing.T) {
	tests := []struct {
		decision Decision
		status   string
		message  string
	}{
		{DecisionDecline, StatusDeclined, declineMessage},
		{DecisionTimeout, StatusTimeout, timeoutMessage},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			f := newDecisionFixture(t)
			f.records.seed(t, CollectionActivities, "act1", map[string]any{"trip": "trip1", "name": "Louvre"})
			p := f.propose(t, "trip1", ToolDeleteActivity, `{"record_id":"act1"}`)
			saves := f.records.saves

			result, err := f.decider.Decide(context.Background(), "trip1", p.ID, tt.decision)
			require.NoError(t, err)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.message, result.Message)

			assert.Equal(t, saves, f.records.saves)
			assert.Equal(t, 0, f.records.deletes)
			assert.Equal(t, 1, f.records.count(CollectionActivities))
			assert.Equal(t, 0, f.store.Len())
		})
	}
}

func TestDecideMutationFailureConsumesProposal(t *testing.T) {
	f := newDecisionFixture(t)
	p := f.propose(t, "trip1", ToolUpdateLodging, `{"record_id":"missing","name":"Hotel"}`)

	_, err := f.decider.Decide(context.Background(), "trip1", p.ID, DecisionApprove)
	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, ToolUpdateLodging, mutErr.Tool)

	_, err = f.decider.Decide(context.Background(), "trip1", p.ID, DecisionApprove)
	assert.ErrorIs(t, err, ErrProposalGone)
}

func TestDecideSaveFailure(t *testing.T) {
	f := newDecisionFixture(t)
	p := f.propose(t, "trip1", ToolCreateActivity, lePetitArgs)
	f.records.saveErr = errors.New("disk full")

	_, err := f.decider.Decide(context.Background(), "trip1", p.ID, DecisionApprove)
	assert.ErrorIs(t, err, f.records.saveErr)
	assert.Equal(t, 0, f.store.Len())
}
