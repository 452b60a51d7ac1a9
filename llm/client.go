// Package llm talks to the OpenAI Responses API on behalf of the trip assistant.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	Model          = "gpt-5-mini"

	defaultCompleteTimeout = 45 * time.Second
)

var ErrEmptyReply = errors.New("assistant returned an empty message")

type Client struct {
	apiKey          string
	baseURL         string
	httpClient      *http.Client
	completeTimeout time.Duration
	sdk             openai.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the transport used for both streaming and
// single-shot calls. The client must not carry a Timeout, since that would
// cut long-lived streams short.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithCompleteTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.completeTimeout = d
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:          apiKey,
		baseURL:         DefaultBaseURL,
		httpClient:      &http.Client{},
		completeTimeout: defaultCompleteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.sdk = openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL+"/"),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(1),
	)
	return c
}

// Complete sends the turns without tools and returns the aggregated reply text.
func (c *Client) Complete(ctx context.Context, turns []Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.completeTimeout)
	defer cancel()

	items := make(responses.ResponseInputParam, 0, len(turns))
	for _, turn := range turns {
		items = append(items, responses.ResponseInputItemParamOfMessage(turn.Content, turn.Role.easyRole()))
	}

	resp, err := c.sdk.Responses.New(ctx, responses.ResponseNewParams{
		Model: Model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: items},
		Reasoning: shared.ReasoningParam{
			Effort: shared.ReasoningEffortLow,
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.Error()
			}
			return "", &APIError{StatusCode: apiErr.StatusCode, Message: msg}
		}
		return "", err
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// Stream opens a streaming response. The returned stream must be closed by
// the caller; cancelling ctx aborts the underlying read.
func (c *Client) Stream(ctx context.Context, req Request) (EventStream, error) {
	body, err := json.Marshal(newStreamRequest(req))
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseAPIError(resp)
	}

	return newStream(resp.Body), nil
}

type streamRequest struct {
	Model      string         `json:"model"`
	Input      []inputMessage `json:"input"`
	Reasoning  reasoning      `json:"reasoning"`
	Text       textOptions    `json:"text"`
	Tools      []Tool         `json:"tools,omitempty"`
	ToolChoice string         `json:"tool_choice,omitempty"`
	Include    []string       `json:"include,omitempty"`
	Stream     bool           `json:"stream"`
}

type reasoning struct {
	Effort string `json:"effort"`
}

type textOptions struct {
	Verbosity string `json:"verbosity"`
}

type inputMessage struct {
	Role    Role           `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func newStreamRequest(req Request) streamRequest {
	input := make([]inputMessage, 0, len(req.Turns))
	for _, turn := range req.Turns {
		blockType := "input_text"
		if turn.Role == RoleAssistant {
			blockType = "output_text"
		}
		input = append(input, inputMessage{
			Role:    turn.Role,
			Content: []contentBlock{{Type: blockType, Text: turn.Content}},
		})
	}

	out := streamRequest{
		Model:     Model,
		Input:     input,
		Reasoning: reasoning{Effort: "low"},
		Text:      textOptions{Verbosity: "low"},
		Tools:     req.Tools,
		Stream:    true,
	}
	if len(req.Tools) > 0 {
		out.ToolChoice = "auto"
		for _, tool := range req.Tools {
			if tool.Type == ToolTypeWebSearch {
				out.Include = []string{"web_search_call.action.sources"}
				break
			}
		}
	}
	return out
}
