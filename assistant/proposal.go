package assistant

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProposalTTL is how long a proposal waits for a decision.
const ProposalTTL = 2 * time.Minute

// Proposal is a model-requested mutation held until the traveler decides.
type Proposal struct {
	ID        string
	TripID    string
	Tool      Tool
	Arguments map[string]any
	Input     ToolInput
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewProposal decodes raw call arguments for tool and stamps a fresh id.
func NewProposal(tripID string, tool Tool, raw []byte, now time.Time) (*Proposal, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, newValidationError("", "invalid %s arguments: %v", tool, err)
	}
	input, err := DecodeToolInput(tool, raw)
	if err != nil {
		return nil, err
	}

	return &Proposal{
		ID:        uuid.NewString(),
		TripID:    tripID,
		Tool:      tool,
		Arguments: args,
		Input:     input,
		CreatedAt: now,
		ExpiresAt: now.Add(ProposalTTL),
	}, nil
}

func (p *Proposal) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// ProposalView is the client-facing rendering of a proposal.
type ProposalView struct {
	ID        string         `json:"id"`
	Tool      Tool           `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Summary   string         `json:"summary"`
	ExpiresAt string         `json:"expiresAt"`
}

func (p *Proposal) View() *ProposalView {
	return &ProposalView{
		ID:        p.ID,
		Tool:      p.Tool,
		Arguments: p.Arguments,
		Summary:   p.Input.Summary(),
		ExpiresAt: p.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
