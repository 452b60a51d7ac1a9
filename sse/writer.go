package sse

import (
	"encoding/json"
	"errors"
	"net/http"
)

var ErrStreamingUnsupported = errors.New("streaming is not supported on this server")

// Writer emits JSON payloads as "data:" records and flushes after each one.
type Writer struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewWriter prepares w for an event stream. It fails when w cannot flush.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, f: f}, nil
}

// Open writes the stream headers.
func (sw *Writer) Open() {
	h := sw.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	sw.w.WriteHeader(http.StatusOK)
	sw.f.Flush()
}

func (sw *Writer) WriteJSON(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, len(data)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, data...)
	buf = append(buf, '\n', '\n')
	if _, err := sw.w.Write(buf); err != nil {
		return err
	}
	sw.f.Flush()
	return nil
}
