// Package assistantclient consumes the trip assistant endpoints the way the
// web client does: it reads a streamed turn, surfaces text as it arrives and
// resolves proposals before their countdown runs out.
package assistantclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tripassistant/assistant"
	"tripassistant/sse"
)

// ErrIncompleteTurn is returned when the stream ends without a terminal event.
var ErrIncompleteTurn = errors.New("assistant stream ended unexpectedly")

// RequestError is a non-2xx answer from the server.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return e.Message
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New returns a client for the server at baseURL, authenticating with a
// PocketBase auth token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Turn is the outcome of one streamed assistant turn.
type Turn struct {
	Text     string
	Proposal *assistant.ProposalView
	// Error is the server supplied message when the turn ended in an error event.
	Error string
}

// Stream sends the conversation and reads the turn to its terminal event.
// onDelta, if set, receives text fragments in arrival order.
func (c *Client) Stream(ctx context.Context, tripID string, messages []assistant.Message, onDelta func(string)) (*Turn, error) {
	body, err := json.Marshal(map[string]any{"messages": messages})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.tripPath(tripID, "stream"), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, readRequestError(resp)
	}

	return consumeTurn(resp.Body, onDelta)
}

func consumeTurn(r io.Reader, onDelta func(string)) (*Turn, error) {
	var (
		turn   Turn
		text   strings.Builder
		events = sse.NewReader(r)
	)

	for {
		record, err := events.Next()
		if errors.Is(err, io.EOF) {
			turn.Text = text.String()
			return &turn, ErrIncompleteTurn
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(record.Data) == "" {
			continue
		}

		var event assistant.ClientEvent
		if err := json.Unmarshal([]byte(record.Data), &event); err != nil {
			return nil, fmt.Errorf("decode assistant event: %w", err)
		}

		switch event.Type {
		case assistant.ClientEventDelta:
			text.WriteString(event.Text)
			if onDelta != nil {
				onDelta(event.Text)
			}
		case assistant.ClientEventProposal:
			turn.Text = text.String()
			turn.Proposal = event.Proposal
			return &turn, nil
		case assistant.ClientEventDone:
			turn.Text = text.String()
			return &turn, nil
		case assistant.ClientEventError:
			turn.Text = text.String()
			turn.Error = event.Message
			return &turn, nil
		}
	}
}

// Decide submits a decision for a proposal.
func (c *Client) Decide(ctx context.Context, tripID, proposalID string, decision assistant.Decision) (*assistant.DecisionResult, error) {
	body, err := json.Marshal(map[string]string{"decision": string(decision)})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.tripPath(tripID, "proposals", proposalID), body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, readRequestError(resp)
	}

	var result assistant.DecisionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AwaitDecision waits for a decision on choices and submits it. If the
// proposal's countdown reaches zero first, a timeout decision is sent
// instead. The server still enforces expiry on its own.
func (c *Client) AwaitDecision(ctx context.Context, tripID string, proposal *assistant.ProposalView, choices <-chan assistant.Decision) (*assistant.DecisionResult, error) {
	remaining := c.Remaining(proposal)
	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case decision := <-choices:
		return c.Decide(ctx, tripID, proposal.ID, decision)
	case <-timer.C:
		return c.Decide(ctx, tripID, proposal.ID, assistant.DecisionTimeout)
	}
}

// Remaining is the time left on a proposal's countdown, never negative.
func (c *Client) Remaining(proposal *assistant.ProposalView) time.Duration {
	expiresAt, err := time.Parse(time.RFC3339, proposal.ExpiresAt)
	if err != nil {
		return 0
	}
	return max(expiresAt.Sub(c.now()), 0)
}

func (c *Client) tripPath(tripID string, parts ...string) string {
	segments := []string{c.baseURL, "api", "trips", url.PathEscape(tripID), "assistant"}
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return strings.Join(segments, "/")
}

func (c *Client) newRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	return req, nil
}

func readRequestError(resp *http.Response) error {
	reqErr := &RequestError{StatusCode: resp.StatusCode}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&payload); err == nil {
		reqErr.Message = payload.Error
		if reqErr.Message == "" {
			reqErr.Message = payload.Message
		}
	}
	return reqErr
}
