package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"tripassistant/assistant"
	"tripassistant/config"
	"tripassistant/llm"
	"tripassistant/sse"
)

// Provider is the model backend used by the assistant handlers.
type Provider interface {
	Complete(ctx context.Context, turns []llm.Turn) (string, error)
	Stream(ctx context.Context, req llm.Request) (llm.EventStream, error)
}

type tripAssistantRequest struct {
	Messages []assistant.Message `json:"messages"`
}

type tripAssistantResponse struct {
	Message assistant.Message `json:"message"`
}

type proposalDecisionRequest struct {
	Decision string `json:"decision"`
}

// Assistant holds the long-lived state shared by the assistant handlers.
type Assistant struct {
	cfg      *config.Config
	provider Provider
	contexts *assistant.ContextBuilder
	store    *assistant.ProposalStore
	relay    *assistant.Relay
	decider  *assistant.Decider
}

func (a *Assistant) TripAssistant(e *core.RequestEvent) error {
	if a.provider == nil {
		return notConfigured(e)
	}

	var req tripAssistantRequest
	if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if !assistant.HasUserMessage(req.Messages) {
		return e.JSON(http.StatusBadRequest, map[string]string{
			"error": "at least one message is required",
		})
	}

	tripRecord, err := tripFromEvent(e)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	turns, err := a.buildTurns(e, tripRecord, req.Messages, assistant.WithHistoryLimit(a.cfg.HistoryLimit))
	if err != nil {
		return writeResponseError(e, err)
	}

	reply, err := a.provider.Complete(e.Request.Context(), turns)
	if err != nil {
		e.App.Logger().Error("TripAssistant call failed", "error", err, "tripId", tripRecord.Id)
		return e.JSON(http.StatusBadGateway, map[string]string{
			"error": fmt.Sprintf("assistant request failed: %s", err.Error()),
		})
	}

	return e.JSON(http.StatusOK, tripAssistantResponse{
		Message: assistant.Message{
			Role:    string(llm.RoleAssistant),
			Content: reply,
		},
	})
}

func (a *Assistant) TripAssistantStream(e *core.RequestEvent) error {
	if a.provider == nil {
		return notConfigured(e)
	}

	var req tripAssistantRequest
	if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if !assistant.HasUserMessage(req.Messages) {
		return e.JSON(http.StatusBadRequest, map[string]string{
			"error": "at least one message is required",
		})
	}

	tripRecord, err := tripFromEvent(e)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	turns, err := a.buildTurns(e, tripRecord, req.Messages)
	if err != nil {
		return writeResponseError(e, err)
	}

	writer, err := sse.NewWriter(e.Response)
	if err != nil {
		e.App.Logger().Error("TripAssistantStream unsupported response writer", "error", err, "tripId", tripRecord.Id)
		return e.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	ctx := e.Request.Context()
	stream, err := a.provider.Stream(ctx, llm.Request{Turns: turns, Tools: assistant.Tools()})
	if err != nil {
		e.App.Logger().Error("TripAssistantStream call failed", "error", err, "tripId", tripRecord.Id)
		return e.JSON(http.StatusBadGateway, map[string]string{
			"error": "assistant request failed",
		})
	}

	writer.Open()
	outcome := a.relay.Run(ctx, tripRecord.Id, stream, sseSink{writer})
	e.App.Logger().Debug("TripAssistantStream finished", "tripId", tripRecord.Id, "outcome", outcome.String())
	return nil
}

func (a *Assistant) ProposalDecision(e *core.RequestEvent) error {
	if a.provider == nil {
		return notConfigured(e)
	}

	tripRecord, err := tripFromEvent(e)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	proposalID := e.Request.PathValue("proposalId")
	if proposalID == "" {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": "proposal id missing"})
	}

	var req proposalDecisionRequest
	if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}

	decision, err := assistant.ParseDecision(req.Decision)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := a.decider.Decide(e.Request.Context(), tripRecord.Id, proposalID, decision)
	if err != nil {
		return decisionError(e, err, tripRecord.Id, proposalID)
	}

	e.App.Logger().Info("Trip assistant proposal decided",
		"tripId", tripRecord.Id,
		"proposalId", proposalID,
		"status", result.Status,
	)
	return e.JSON(http.StatusOK, result)
}

func (a *Assistant) TripCalendar(e *core.RequestEvent) error {
	tripRecord, err := tripFromEvent(e)
	if err != nil {
		return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	tripCtx, err := a.contexts.Build(tripRecord)
	if err != nil {
		e.App.Logger().Error("TripCalendar build context error", "error", err, "tripId", tripRecord.Id)
		return e.JSON(http.StatusInternalServerError, map[string]string{
			"error": "unable to load the latest trip context",
		})
	}

	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, tripRecord.Id))
	return e.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(assistant.ExportCalendar(tripCtx)))
}

// buildTurns assembles the provider input. A failure is returned as a
// *responseError ready to be written.
func (a *Assistant) buildTurns(e *core.RequestEvent, tripRecord *core.Record, messages []assistant.Message, opts ...assistant.PromptOption) ([]llm.Turn, error) {
	tripCtx, err := a.contexts.Build(tripRecord)
	if err != nil {
		e.App.Logger().Error("TripAssistant build context error", "error", err, "tripId", tripRecord.Id)
		return nil, &responseError{status: http.StatusInternalServerError, message: "unable to load the latest trip context"}
	}

	turns, err := assistant.BuildTurns(messages, tripCtx, opts...)
	if err != nil {
		e.App.Logger().Error("TripAssistant failed to build input", "error", err, "tripId", tripRecord.Id)
		return nil, &responseError{status: http.StatusInternalServerError, message: "could not format the assistant request"}
	}
	return turns, nil
}

type responseError struct {
	status  int
	message string
}

func (r *responseError) Error() string {
	return r.message
}

func writeResponseError(e *core.RequestEvent, err error) error {
	var re *responseError
	if errors.As(err, &re) {
		return e.JSON(re.status, map[string]string{"error": re.message})
	}
	return e.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func decisionError(e *core.RequestEvent, err error, tripID, proposalID string) error {
	var gone *assistant.GoneError
	var mutationErr *assistant.MutationError

	switch {
	case errors.As(err, &gone):
		return e.JSON(http.StatusGone, map[string]string{"error": gone.Error()})
	case errors.Is(err, assistant.ErrProposalForbidden):
		return e.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case assistant.IsValidation(err):
		return e.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &mutationErr):
		e.App.Logger().Error("Trip assistant proposal failed to apply",
			"error", mutationErr.Err,
			"tool", string(mutationErr.Tool),
			"tripId", tripID,
			"proposalId", proposalID,
		)
		return e.JSON(http.StatusInternalServerError, map[string]string{"error": mutationErr.Error()})
	default:
		e.App.Logger().Error("Trip assistant decision failed", "error", err, "tripId", tripID, "proposalId", proposalID)
		return e.JSON(http.StatusInternalServerError, map[string]string{"error": "unable to process the decision"})
	}
}

func notConfigured(e *core.RequestEvent) error {
	return e.JSON(http.StatusServiceUnavailable, map[string]string{
		"error": assistant.ErrNotConfigured.Error(),
	})
}

func tripFromEvent(e *core.RequestEvent) (*core.Record, error) {
	tripVal := e.Get("trip")
	if tripVal == nil {
		return nil, errors.New("trip context is missing")
	}
	tripRecord, ok := tripVal.(*core.Record)
	if !ok {
		return nil, errors.New("unable to read trip info")
	}
	return tripRecord, nil
}

type sseSink struct {
	w *sse.Writer
}

func (s sseSink) Send(event assistant.ClientEvent) error {
	return s.w.WriteJSON(event)
}
