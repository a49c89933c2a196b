package protolog

import "time"

// Event represents a diagnostic event captured at any layer of the core.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Source identifies the component or subsystem that emitted the event
	// (e.g. "pid_heat1", "health", "run_control", "bus").
	Source string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (exactly one of these is set).
	HealthChange *HealthChangeEvent `cbor:"4,keyasint,omitempty"`
	RunChange    *RunChangeEvent    `cbor:"5,keyasint,omitempty"`
	Fieldbus     *FieldbusEvent     `cbor:"6,keyasint,omitempty"`
	Command      *CommandEvent      `cbor:"7,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"8,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryHealth indicates a component health transition.
	CategoryHealth Category = 0
	// CategoryRun indicates a run-state transition.
	CategoryRun Category = 1
	// CategoryFieldbus indicates a fieldbus transaction completion.
	CategoryFieldbus Category = 2
	// CategoryCommand indicates a bus command and its ack.
	CategoryCommand Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryHealth:
		return "HEALTH"
	case CategoryRun:
		return "RUN"
	case CategoryFieldbus:
		return "FIELDBUS"
	case CategoryCommand:
		return "COMMAND"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// HealthChangeEvent captures a component health status transition.
type HealthChangeEvent struct {
	OldStatus string `cbor:"1,keyasint"`
	NewStatus string `cbor:"2,keyasint"`
	Reason    string `cbor:"3,keyasint,omitempty"`
}

// RunChangeEvent captures a run-state supervisor transition.
type RunChangeEvent struct {
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`
	Reason   string `cbor:"3,keyasint,omitempty"`
}

// FieldbusEvent captures a fieldbus transaction completion.
type FieldbusEvent struct {
	Slave    uint8  `cbor:"1,keyasint"`
	Kind     string `cbor:"2,keyasint"`
	Success  bool   `cbor:"3,keyasint"`
	DurationNS int64 `cbor:"4,keyasint,omitempty"`
}

// CommandEvent captures an inbound bus command and its outcome.
type CommandEvent struct {
	Topic string `cbor:"1,keyasint"`
	CmdID uint32 `cbor:"2,keyasint,omitempty"`
	OK    bool   `cbor:"3,keyasint"`
	Err   string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	Message string `cbor:"1,keyasint"`
	Context string `cbor:"2,keyasint,omitempty"`
}
