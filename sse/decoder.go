// Package sse parses and writes server-sent event streams.
package sse

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// Event is one dispatched server-sent event record.
type Event struct {
	Event string
	Data  string
	ID    string
}

// Decoder turns arbitrarily fragmented bytes into complete events.
// Bytes that do not yet form a full line or a full record are carried
// over to the next Feed call.
type Decoder struct {
	buf []byte

	event   string
	id      string
	data    strings.Builder
	hasData bool
}

// Feed appends p to the pending input and returns every record completed by it.
func (d *Decoder) Feed(p []byte) []Event {
	d.buf = append(d.buf, p...)

	var events []Event
	for {
		line, rest, ok := cutLine(d.buf)
		if !ok {
			break
		}
		d.buf = rest
		if ev, dispatched := d.processLine(line); dispatched {
			events = append(events, ev)
		}
	}

	// keep the carried slice from growing without bound
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return events
}

// Flush dispatches a trailing record that was never terminated by a blank
// line. It is meant to be called once the underlying stream hit EOF.
func (d *Decoder) Flush() (Event, bool) {
	if len(d.buf) > 0 {
		line := d.buf
		if line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		d.buf = nil
		d.processLine(line)
	}
	return d.dispatch()
}

// Pending reports how many undelimited bytes are waiting for more input.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func (d *Decoder) processLine(line []byte) (Event, bool) {
	if len(line) == 0 {
		return d.dispatch()
	}
	if line[0] == ':' {
		return Event{}, false
	}

	field, value, found := bytes.Cut(line, []byte(":"))
	if found && len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}

	switch string(field) {
	case "data":
		if d.hasData {
			d.data.WriteByte('\n')
		}
		d.data.Write(value)
		d.hasData = true
	case "event":
		d.event = string(value)
	case "id":
		if !bytes.ContainsRune(value, 0) {
			d.id = string(value)
		}
	}
	return Event{}, false
}

func (d *Decoder) dispatch() (Event, bool) {
	if !d.hasData {
		d.event = ""
		return Event{}, false
	}
	ev := Event{Event: d.event, Data: d.data.String(), ID: d.id}
	d.event = ""
	d.data.Reset()
	d.hasData = false
	return ev, true
}

// cutLine splits off the first complete line. A lone trailing '\r' is not
// treated as complete because the matching '\n' may arrive in the next read.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexAny(b, "\r\n")
	if i < 0 {
		return nil, b, false
	}
	if b[i] == '\n' {
		return b[:i], b[i+1:], true
	}
	if i+1 == len(b) {
		return nil, b, false
	}
	if b[i+1] == '\n' {
		return b[:i], b[i+2:], true
	}
	return b[:i], b[i+1:], true
}

// Reader pulls events out of an io.Reader using a Decoder.
type Reader struct {
	r       io.Reader
	dec     Decoder
	queue   []Event
	chunk   []byte
	drained bool
}

const readChunkSize = 4096

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, chunk: make([]byte, readChunkSize)}
}

// Next returns the next event, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (Event, error) {
	for len(r.queue) == 0 {
		if r.drained {
			return Event{}, io.EOF
		}

		n, err := r.r.Read(r.chunk)
		if n > 0 {
			r.queue = append(r.queue, r.dec.Feed(r.chunk[:n])...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Event{}, err
			}
			r.drained = true
			if ev, ok := r.dec.Flush(); ok {
				r.queue = append(r.queue, ev)
			}
		}
	}

	ev := r.queue[0]
	r.queue = r.queue[1:]
	return ev, nil
}
