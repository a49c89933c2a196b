package protolog

import "testing"

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(e Event) { r.events = append(r.events, e) }

func TestMultiLoggerFansOut(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	m := NewMultiLogger(a, b)

	m.Log(Event{Source: "din"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both loggers to receive one event, got a=%d b=%d", len(a.events), len(b.events))
	}
}
