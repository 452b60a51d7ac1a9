package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseBody(payloads ...string) string {
	var b strings.Builder
	for _, p := range payloads {
		b.WriteString("data: ")
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestClient_StreamSendsRequest(t *testing.T) {
	var captured map[string]any
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseBody(
			`{"type":"response.output_text.delta","item_id":"msg_1","delta":"Hi"}`,
			`{"type":"response.completed","response":{"id":"resp_1","status":"completed"}}`,
			`[DONE]`,
		))
	}))
	defer srv.Close()

	client := NewClient("sk-test", WithBaseURL(srv.URL+"/"))
	stream, err := client.Stream(context.Background(), Request{
		Turns: []Turn{
			{Role: RoleDeveloper, Content: "be brief"},
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi there"},
		},
		Tools: []Tool{WebSearchTool(), FunctionTool("delete_activity", "remove", &Schema{Type: "object"})},
	})
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, EventOutputTextDelta, first.Type)
	assert.Equal(t, "Hi", first.Delta)

	second, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, EventCompleted, second.Type)
	assert.Equal(t, "completed", second.Response.Status)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, Model, captured["model"])
	assert.Equal(t, true, captured["stream"])
	assert.Equal(t, "auto", captured["tool_choice"])
	assert.Equal(t, []any{"web_search_call.action.sources"}, captured["include"])

	input := captured["input"].([]any)
	require.Len(t, input, 3)
	assistantTurn := input[2].(map[string]any)
	assert.Equal(t, "assistant", assistantTurn["role"])
	block := assistantTurn["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "output_text", block["type"])
	assert.Equal(t, "hi there", block["text"])

	userBlock := input[1].(map[string]any)["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "input_text", userBlock["type"])
}

func TestClient_StreamAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"provider message", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`, "Incorrect API key provided"},
		{"non json body", http.StatusBadGateway, `upstream down`, "openai api error: 502 Bad Gateway"},
		{"empty body", http.StatusTooManyRequests, ``, "openai api error: 429 Too Many Requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient("sk-test", WithBaseURL(srv.URL)).Stream(context.Background(), Request{})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Error())
		})
	}
}

func TestStream_MalformedEvent(t *testing.T) {
	body := io.NopCloser(strings.NewReader(sseBody(`{"type":`)))
	stream := NewEventStream(body)

	_, err := stream.Next()
	var malformed *MalformedEventError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, `{"type":`, malformed.Data)
}

func TestStream_EOFWithoutDoneMarker(t *testing.T) {
	stream := NewEventStream(io.NopCloser(strings.NewReader(sseBody(`{"type":"response.output_text.delta","delta":"x"}`))))

	ev, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "x", ev.Delta)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())
}

func TestStreamEvent_ErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", StreamEvent{Type: EventError, Message: "boom"}.ErrorMessage())
	assert.Equal(t, "quota", StreamEvent{
		Type:     EventFailed,
		Response: &ResponseStatus{Error: &ErrorBody{Message: "quota"}},
	}.ErrorMessage())
	assert.Empty(t, StreamEvent{Type: EventFailed}.ErrorMessage())
}

func TestClient_Complete(t *testing.T) {
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "resp_1",
			"object": "response",
			"created_at": 1718000000,
			"model": "gpt-5-mini",
			"status": "completed",
			"output": [{
				"type": "message",
				"id": "msg_1",
				"role": "assistant",
				"status": "completed",
				"content": [{"type": "output_text", "text": "  Your flight leaves at 9:00 AM.  ", "annotations": []}]
			}]
		}`)
	}))
	defer srv.Close()

	client := NewClient("sk-test", WithBaseURL(srv.URL))
	reply, err := client.Complete(context.Background(), []Turn{
		{Role: RoleDeveloper, Content: "context"},
		{Role: RoleUser, Content: "when do I fly?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Your flight leaves at 9:00 AM.", reply)
	assert.Equal(t, Model, captured["model"])
	assert.Len(t, captured["input"], 2)
}

func TestClient_CompleteEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"resp_1","object":"response","status":"completed","output":[]}`)
	}))
	defer srv.Close()

	_, err := NewClient("sk-test", WithBaseURL(srv.URL)).Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestClient_CompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid input","type":"invalid_request_error","param":null,"code":null}}`)
	}))
	defer srv.Close()

	_, err := NewClient("sk-test", WithBaseURL(srv.URL)).Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}
