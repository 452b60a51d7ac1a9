package assistant

import (
	"context"
	"log/slog"
	"strings"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDecline Decision = "decline"
	DecisionTimeout Decision = "timeout"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionApprove, DecisionDecline, DecisionTimeout:
		return d, nil
	}
	return "", newValidationError("decision", "decision must be approve, decline, or timeout")
}

const (
	StatusApproved = "approved"
	StatusDeclined = "declined"
	StatusTimeout  = "timeout"

	declineMessage = "Okay, I will skip that change."
	timeoutMessage = "The request expired. Ask again if you'd like me to re-create it."
)

type DecisionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Decider resolves proposals. Every decision consumes its proposal, whether
// or not the resulting mutation succeeds.
type Decider struct {
	store   *ProposalStore
	mutator *Mutator
	logger  *slog.Logger
	metrics *Metrics
}

func NewDecider(store *ProposalStore, mutator *Mutator, logger *slog.Logger, metrics *Metrics) *Decider {
	return &Decider{store: store, mutator: mutator, logger: logger, metrics: metrics}
}

func (d *Decider) Decide(ctx context.Context, tripID, proposalID string, decision Decision) (*DecisionResult, error) {
	proposal, ok := d.store.Pop(proposalID)
	if !ok {
		reason, _ := d.store.Retired(proposalID)
		return nil, &GoneError{ProposalID: proposalID, Reason: reason}
	}

	if proposal.TripID != tripID {
		d.logger.Warn("Trip assistant proposal used from another trip",
			"proposalId", proposalID,
			"tripId", tripID,
			"proposalTripId", proposal.TripID,
		)
		d.metrics.decision(proposal.Tool, "forbidden")
		return nil, ErrProposalForbidden
	}

	switch decision {
	case DecisionApprove:
		message, err := d.mutator.Apply(ctx, tripID, proposal.Input)
		if err != nil {
			d.metrics.decision(proposal.Tool, "failed")
			return nil, &MutationError{Tool: proposal.Tool, Err: err}
		}
		d.metrics.decision(proposal.Tool, StatusApproved)
		return &DecisionResult{Status: StatusApproved, Message: message}, nil
	case DecisionTimeout:
		d.metrics.decision(proposal.Tool, StatusTimeout)
		return &DecisionResult{Status: StatusTimeout, Message: timeoutMessage}, nil
	default:
		d.metrics.decision(proposal.Tool, StatusDeclined)
		return &DecisionResult{Status: StatusDeclined, Message: declineMessage}, nil
	}
}
