// Package health implements the Health Component contract and the
// per-system health aggregation described in the supervisory core: every
// managed device reports a HealthReport, and the Manager folds those
// reports into one SystemHealth verdict each evaluation pass.
package health

// Status is the health status of a single component.
type Status uint8

const (
	Unconfigured Status = iota
	Missing
	OK
	Degraded
	Stale
	Error
)

// String returns the status name as used in reason tokens and logs.
func (s Status) String() string {
	switch s {
	case Unconfigured:
		return "UNCONFIGURED"
	case Missing:
		return "MISSING"
	case OK:
		return "OK"
	case Degraded:
		return "DEGRADED"
	case Stale:
		return "STALE"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Severity ranks how much a non-OK status matters.
type Severity uint8

const (
	Info Severity = iota
	Warn
	Crit
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Crit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Report is an internally-consistent snapshot of one component's health,
// owned and mutated only by that component.
type Report struct {
	Status   Status   `json:"status"`
	Severity Severity `json:"severity"`

	// Expected indicates this component is supposed to exist in this deployment.
	Expected bool `json:"expected"`

	// Required indicates the component must be OK for the machine to run.
	Required bool `json:"required"`

	// Reason is a short, stable, machine-readable token.
	Reason string `json:"reason"`

	// SinceMS is the monotonic timestamp the current status began.
	SinceMS uint32 `json:"since_ms"`

	// LastOkMS is the monotonic timestamp of the last fresh success.
	LastOkMS uint32 `json:"last_ok_ms"`
}

// Component is the contract every managed device implements.
type Component interface {
	// Name returns the component's stable identifier (e.g. "pid_heat1").
	Name() string

	// Configure is called once at startup.
	Configure(expected, required bool)

	// Probe attempts a one-shot detection. Returns true on success.
	Probe(nowMS uint32) bool

	// Tick is called on the component's own schedule. Returns true iff
	// this tick produced fresh data.
	Tick(nowMS uint32) bool

	// StaleTimeoutMS is this component's centralized-staleness budget.
	// Zero disables centralized stale detection for this component.
	StaleTimeoutMS() uint32

	// Report returns an internally-consistent snapshot.
	Report() Report
}

// Base implements the transition bookkeeping common to every component:
// since_ms is set on every status change (including the first transition
// out of the initial MISSING/UNCONFIGURED), and last_ok_ms is updated on
// every successful refresh. Embed Base in a concrete component and drive
// its SetStatus/MarkOK methods from the component's own refresh logic.
type Base struct {
	report Report
}

// Configure sets the initial expected/required/status/severity/reason per
// the Health Component contract in §4.1.
func (b *Base) Configure(expected, required bool) {
	b.report = Report{Expected: expected, Required: required}

	if expected {
		b.report.Status = Missing
		b.report.Reason = "not_probed"
	} else {
		b.report.Status = Unconfigured
		b.report.Reason = "unconfigured"
	}

	if required {
		b.report.Severity = Crit
	} else {
		b.report.Severity = Info
	}
}

// Report returns a copy of the current report.
func (b *Base) Report() Report {
	return b.report
}

// SetStatus transitions to a new status with the given reason, updating
// since_ms iff the status actually changed. Severity tracks status: OK is
// always Info, anything else is Crit for a required component and Warn
// otherwise.
func (b *Base) SetStatus(nowMS uint32, status Status, reason string) {
	if b.report.Status != status {
		b.report.SinceMS = nowMS
	}
	b.report.Status = status
	b.report.Reason = reason
	if status == OK {
		b.report.Severity = Info
	} else if b.report.Required {
		b.report.Severity = Crit
	} else {
		b.report.Severity = Warn
	}
}

// MarkOK records a fresh successful refresh: last_ok_ms advances, and if
// the component wasn't already OK it transitions to OK.
func (b *Base) MarkOK(nowMS uint32) {
	b.MarkOKReason(nowMS, "")
}

// MarkOKReason is MarkOK with an explicit reason token (e.g. "up" for a
// link that reports more than bare liveness).
func (b *Base) MarkOKReason(nowMS uint32, reason string) {
	b.report.LastOkMS = nowMS
	b.SetStatus(nowMS, OK, reason)
}

// IsExpected reports whether this component is expected to exist.
func (b *Base) IsExpected() bool { return b.report.Expected }

// IsRequired reports whether this component must be OK for the machine to run.
func (b *Base) IsRequired() bool { return b.report.Required }

// Status returns the component's current status.
func (b *Base) Status() Status { return b.report.Status }
