package assistant

import (
	"strings"
	"time"
)

type bufferState int

const (
	bufferIdle bufferState = iota
	bufferAccumulating
	bufferDone
)

// ToolCallBuffer accumulates one streamed function call per turn. It is not
// safe for concurrent use and is discarded with its stream.
type ToolCallBuffer struct {
	tripID string
	now    func() time.Time

	state  bufferState
	itemID string
	name   string
	args   strings.Builder
}

func NewToolCallBuffer(tripID string, now func() time.Time) *ToolCallBuffer {
	if now == nil {
		now = time.Now
	}
	return &ToolCallBuffer{tripID: tripID, now: now}
}

// Start begins accumulating a call. It is ignored while another call is
// being accumulated or once a proposal has been produced.
func (b *ToolCallBuffer) Start(itemID, name string) {
	if b.state != bufferIdle {
		return
	}
	b.state = bufferAccumulating
	b.itemID = itemID
	b.name = name
	b.args.Reset()
}

// Append adds an argument fragment for the call being accumulated.
func (b *ToolCallBuffer) Append(itemID, delta string) {
	if b.state != bufferAccumulating || itemID != b.itemID {
		return
	}
	b.args.WriteString(delta)
}

// Finalize completes the call identified by itemID. final, when non-empty,
// is the provider's complete argument text and takes precedence over the
// accumulated fragments. It reports false when there is nothing to propose:
// an unrelated item, an unknown tool, or arguments that do not decode.
func (b *ToolCallBuffer) Finalize(itemID, final string) (*Proposal, bool) {
	if b.state != bufferAccumulating || itemID != b.itemID {
		return nil, false
	}

	raw := b.args.String()
	if final != "" {
		raw = final
	}
	name := b.name
	b.reset()

	tool, err := ParseTool(name)
	if err != nil {
		return nil, false
	}
	proposal, err := NewProposal(b.tripID, tool, []byte(raw), b.now())
	if err != nil {
		return nil, false
	}
	b.state = bufferDone
	return proposal, true
}

// Pending reports whether a call is being accumulated.
func (b *ToolCallBuffer) Pending() bool {
	return b.state == bufferAccumulating
}

func (b *ToolCallBuffer) reset() {
	b.state = bufferIdle
	b.itemID = ""
	b.name = ""
	b.args.Reset()
}
