package stream

import (
	"fmt"
	"io"

	sse "github.com/tmaxmax/go-sse"
)

// Message is one dispatched server-sent event. Event is empty for unnamed
// messages (the SSE default "message" type).
type Message struct {
	Event string
	Data  string
}

// MaxEventSize bounds a single event. A full-replace log frame carries the
// whole log, so the library default of 64KB is too small.
const MaxEventSize = 8 << 20

var readConfig = &sse.ReadConfig{MaxEventSize: MaxEventSize}

// Messages yields the messages of a text/event-stream body until EOF.
// Parsing is done by go-sse; on top of it events without data are not
// dispatched and the "message" type is reported as unnamed, as EventSource
// does. Iteration stops after the first error.
func Messages(r io.Reader) func(yield func(Message, error) bool) {
	return func(yield func(Message, error) bool) {
		for ev, err := range sse.Read(r, readConfig) {
			if err != nil {
				yield(Message{}, fmt.Errorf("read event stream: %w", err))
				return
			}
			if ev.Data == "" {
				continue
			}
			name := ev.Type
			if name == "message" {
				name = ""
			}
			if !yield(Message{Event: name, Data: ev.Data}, nil) {
				return
			}
		}
	}
}
