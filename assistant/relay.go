package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"tripassistant/llm"
)

// Client event types.
const (
	ClientEventDelta    = "delta"
	ClientEventProposal = "proposal"
	ClientEventDone     = "done"
	ClientEventError    = "error"
)

const relayErrorMessage = "assistant request failed"

// ClientEvent is one normalized event sent to the browser.
type ClientEvent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	Proposal *ProposalView `json:"proposal,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// EventSink delivers client events. A send error means the client is gone.
type EventSink interface {
	Send(ClientEvent) error
}

// Outcome is how a relayed turn ended.
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeProposal
	OutcomeError
	OutcomeAbandoned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeProposal:
		return "proposal"
	case OutcomeError:
		return "error"
	case OutcomeAbandoned:
		return "abandoned"
	}
	return "unknown"
}

type RelayOption func(*Relay)

func WithRelayMetrics(m *Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

// Relay turns a provider event stream into client events. Every turn ends
// with exactly one terminal event, unless the client goes away first.
type Relay struct {
	store   *ProposalStore
	logger  *slog.Logger
	now     func() time.Time
	metrics *Metrics
}

// NewRelay stamps proposals with the store's clock so a fresh proposal is
// never already expired from the store's point of view.
func NewRelay(store *ProposalStore, logger *slog.Logger, opts ...RelayOption) *Relay {
	r := &Relay{store: store, logger: logger, now: store.now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run consumes stream until a terminal condition and closes it.
func (r *Relay) Run(ctx context.Context, tripID string, stream llm.EventStream, sink EventSink) Outcome {
	defer stream.Close()

	outcome := r.run(ctx, tripID, stream, sink)
	r.metrics.turn(outcome)
	return outcome
}

func (r *Relay) run(ctx context.Context, tripID string, stream llm.EventStream, sink EventSink) Outcome {
	buffer := NewToolCallBuffer(tripID, r.now)

	for {
		if ctx.Err() != nil {
			return OutcomeAbandoned
		}

		event, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeAbandoned
			}
			if errors.Is(err, io.EOF) {
				return r.finish(sink, ClientEvent{Type: ClientEventDone}, OutcomeDone)
			}
			r.logger.Error("Trip assistant stream failed", "error", err, "tripId", tripID)
			return r.fail(sink)
		}

		switch event.Type {
		case llm.EventOutputItemAdded:
			if event.Item != nil && event.Item.Type == llm.OutputItemFunctionCall {
				buffer.Start(event.Item.ID, event.Item.Name)
			}

		case llm.EventArgumentsDelta:
			buffer.Append(event.ItemID, event.Delta)

		case llm.EventArgumentsDone:
			proposal, ok := buffer.Finalize(event.ItemID, event.Arguments)
			if !ok {
				r.logger.Warn("Trip assistant dropped an unusable tool call", "tripId", tripID, "itemId", event.ItemID)
				continue
			}
			if ctx.Err() != nil {
				return OutcomeAbandoned
			}
			r.store.Put(proposal)
			r.metrics.proposal(proposal.Tool)
			return r.finish(sink, ClientEvent{Type: ClientEventProposal, Proposal: proposal.View()}, OutcomeProposal)

		case llm.EventOutputTextDelta:
			if event.Delta == "" {
				continue
			}
			if err := sink.Send(ClientEvent{Type: ClientEventDelta, Text: event.Delta}); err != nil {
				return OutcomeAbandoned
			}

		case llm.EventCompleted, llm.EventIncomplete:
			return r.finish(sink, ClientEvent{Type: ClientEventDone}, OutcomeDone)

		case llm.EventError, llm.EventResponseError, llm.EventFailed:
			r.logger.Error("Trip assistant provider error",
				"tripId", tripID,
				"type", event.Type,
				"code", event.Code,
				"message", event.ErrorMessage(),
			)
			return r.fail(sink)
		}
	}
}

func (r *Relay) fail(sink EventSink) Outcome {
	return r.finish(sink, ClientEvent{Type: ClientEventError, Message: relayErrorMessage}, OutcomeError)
}

func (r *Relay) finish(sink EventSink, event ClientEvent, outcome Outcome) Outcome {
	if err := sink.Send(event); err != nil {
		return OutcomeAbandoned
	}
	return outcome
}
