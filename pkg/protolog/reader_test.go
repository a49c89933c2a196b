package protolog

import (
	"io"
	"path/filepath"
	"testing"
)

func TestFilteredReaderAppliesCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.plog")

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	fl.Log(Event{Source: "health", Category: CategoryHealth,
		HealthChange: &HealthChangeEvent{OldStatus: "OK", NewStatus: "DEGRADED"}})
	fl.Log(Event{Source: "run_control", Category: CategoryRun,
		RunChange: &RunChangeEvent{OldState: "RUNNING", NewState: "ESTOP"}})
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cat := CategoryRun
	r, err := NewFilteredReader(path, Filter{Category: &cat})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer r.Close()

	got, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Source != "run_control" {
		t.Fatalf("expected filtered event from run_control, got %q", got.Source)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last matching event, got %v", err)
	}
}
