package protolog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogAdapterLogsHealthChange(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := NewSlogAdapter(logger)
	a.Log(Event{
		Source:   "pid_heat1",
		Category: CategoryHealth,
		HealthChange: &HealthChangeEvent{
			OldStatus: "OK",
			NewStatus: "DEGRADED",
			Reason:    "modbus_read_fail",
		},
	})

	out := buf.String()
	for _, want := range []string{"pid_heat1", "HEALTH", "DEGRADED", "modbus_read_fail"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}
