package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"tripassistant/sse"
)

// Stream event types relayed or inspected by the assistant.
const (
	EventOutputItemAdded = "response.output_item.added"
	EventArgumentsDelta  = "response.function_call_arguments.delta"
	EventArgumentsDone   = "response.function_call_arguments.done"
	EventOutputTextDelta = "response.output_text.delta"
	EventCompleted       = "response.completed"
	EventFailed          = "response.failed"
	EventIncomplete      = "response.incomplete"
	EventResponseError   = "response.error"
	EventError           = "error"
)

const OutputItemFunctionCall = "function_call"

// StreamEvent is a decoded provider event. Only the fields the assistant
// reads are mapped; everything else is dropped on decode.
type StreamEvent struct {
	Type        string          `json:"type"`
	ItemID      string          `json:"item_id,omitempty"`
	OutputIndex int             `json:"output_index,omitempty"`
	Delta       string          `json:"delta,omitempty"`
	Arguments   string          `json:"arguments,omitempty"`
	Item        *OutputItem     `json:"item,omitempty"`
	Code        string          `json:"code,omitempty"`
	Message     string          `json:"message,omitempty"`
	Response    *ResponseStatus `json:"response,omitempty"`
}

type OutputItem struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type ResponseStatus struct {
	ID     string     `json:"id,omitempty"`
	Status string     `json:"status,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorMessage returns the provider supplied failure text, if any.
func (e StreamEvent) ErrorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Response != nil && e.Response.Error != nil {
		return e.Response.Error.Message
	}
	return ""
}

// EventStream yields provider events until io.EOF.
type EventStream interface {
	Next() (StreamEvent, error)
	Close() error
}

// MalformedEventError reports a data record that is not valid event JSON.
type MalformedEventError struct {
	Data string
	Err  error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed provider event: %v", e.Err)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

type stream struct {
	body   io.ReadCloser
	events *sse.Reader
	once   sync.Once
}

func newStream(body io.ReadCloser) *stream {
	return &stream{body: body, events: sse.NewReader(body)}
}

// NewEventStream decodes provider events from an already opened body.
func NewEventStream(body io.ReadCloser) EventStream {
	return newStream(body)
}

func (s *stream) Next() (StreamEvent, error) {
	for {
		record, err := s.events.Next()
		if err != nil {
			return StreamEvent{}, err
		}

		data := strings.TrimSpace(record.Data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return StreamEvent{}, io.EOF
		}

		var event StreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return StreamEvent{}, &MalformedEventError{Data: data, Err: err}
		}
		return event, nil
	}
}

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
	})
	return err
}
