// Package runstate implements the four-state run supervisor: it consumes
// the din interlock snapshot and the health manager's verdict, and decides
// what the machine is allowed to do right now. Two latches (estop,
// health fault) are explicit struct fields rather than package-level
// mutable state.
package runstate

import "github.com/nu-cryo/cryo-bridge/internal/health"

// State is one of the four run states.
type State uint8

const (
	Stopped State = iota
	Running
	Holding
	Estop
)

// String returns the state name as used on the wire.
func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Running:
		return "RUNNING"
	case Holding:
		return "HOLDING"
	case Estop:
		return "ESTOP"
	default:
		return "UNKNOWN"
	}
}

// Command is an operator intent.
type Command uint8

const (
	Start Command = iota
	Stop
	Hold
	Reset
)

// Status is the externally-visible snapshot of the supervisor.
type Status struct {
	State          State  `json:"state"`
	Reason         string `json:"reason"`
	RunAllowed     bool   `json:"run_allowed"`
	OutputsAllowed bool   `json:"outputs_allowed"`
}

// Din is the interlock-derived view the supervisor needs from the
// digital-input component; see internal/components.Din.
type Din interface {
	InterlocksOK() bool
	Reason() string
}

// Supervisor is the four-state machine with latched estop and health-fault
// behavior described in §4.3.
type Supervisor struct {
	desired State

	estopLatched       bool
	healthFaultLatched bool
	lastEstopReason    string

	lastStatus Status
}

// NewSupervisor returns a supervisor starting in STOPPED with no latches set.
func NewSupervisor() *Supervisor {
	return &Supervisor{desired: Stopped}
}

// Update is called every loop iteration. It applies the pre-latch rules
// from §4.3 and returns the resolved Status.
func (s *Supervisor) Update(sys health.System, din Din, nowMS uint32) Status {
	if !din.InterlocksOK() {
		s.estopLatched = true
		s.lastEstopReason = din.Reason()
	}
	if !sys.RunAllowed {
		s.healthFaultLatched = true
	}
	return s.resolve(sys, din)
}

// resolve computes the effective state as a pure function of desired
// state, latches, and current inputs (§4.3's "Effective state resolution").
func (s *Supervisor) resolve(sys health.System, din Din) Status {
	var st State
	var reason string

	switch {
	case s.estopLatched:
		st = Estop
		if din.InterlocksOK() {
			reason = "estop_latched"
		} else {
			reason = s.lastEstopReason
		}
	case s.healthFaultLatched || !sys.RunAllowed:
		st = Stopped
		reason = "health_fault"
	default:
		st = s.desired
		reason = operatorReason(st)
	}

	status := Status{
		State:          st,
		Reason:         reason,
		RunAllowed:     st == Running,
		OutputsAllowed: st == Running || st == Holding,
	}
	s.lastStatus = status
	return status
}

// LastStatus returns the most recently resolved Status, without
// recomputing it. Useful for callers (e.g. the Bus Gateway's relay command
// handler) that need the current permits outside the main Update/
// HandleCommand cadence.
func (s *Supervisor) LastStatus() Status {
	return s.lastStatus
}

func operatorReason(st State) string {
	switch st {
	case Running:
		return "operator_start"
	case Holding:
		return "operator_hold"
	case Stopped:
		return "operator_stop"
	case Estop:
		return "operator_estop"
	default:
		return "operator_stop"
	}
}

// HandleCommand applies an operator command per §4.3 and returns the
// resolved Status after the command is (or is not) applied.
func (s *Supervisor) HandleCommand(cmd Command, sys health.System, din Din, nowMS uint32) (Status, string) {
	latched := s.estopLatched || s.healthFaultLatched

	if cmd == Reset {
		if din.InterlocksOK() && sys.RunAllowed {
			s.estopLatched = false
			s.healthFaultLatched = false
			s.desired = Stopped
			return s.resolve(sys, din), ""
		}
		if latched {
			return s.resolve(sys, din), "reset_inhibited"
		}
		return s.resolve(sys, din), ""
	}

	if latched {
		return s.resolve(sys, din), "inhibited"
	}

	switch cmd {
	case Start:
		if !din.InterlocksOK() || !sys.RunAllowed {
			return s.resolve(sys, din), "inhibited"
		}
		s.desired = Running
	case Hold:
		s.desired = Holding
	case Stop:
		s.desired = Stopped
	}

	return s.resolve(sys, din), ""
}

// EstopLatched reports whether the estop latch is currently set.
func (s *Supervisor) EstopLatched() bool { return s.estopLatched }

// HealthFaultLatched reports whether the health-fault latch is currently set.
func (s *Supervisor) HealthFaultLatched() bool { return s.healthFaultLatched }
