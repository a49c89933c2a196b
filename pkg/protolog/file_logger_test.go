package protolog

import (
	"path/filepath"
	"testing"
)

func TestFileLoggerWritesAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.plog")

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	fl.Log(Event{Source: "relay", Category: CategoryCommand,
		Command: &CommandEvent{Topic: "io/cmd/event", OK: true}})

	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Log after close must be a silent no-op.
	fl.Log(Event{Source: "relay"})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	got, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Source != "relay" || got.Command == nil || got.Command.Topic != "io/cmd/event" {
		t.Fatalf("unexpected event: %+v", got)
	}
}
