package runstate

import (
	"testing"

	"github.com/nu-cryo/cryo-bridge/internal/health"
)

// fakeDin is a minimal runstate.Din test double.
type fakeDin struct {
	ok     bool
	reason string
}

func (f fakeDin) InterlocksOK() bool { return f.ok }
func (f fakeDin) Reason() string     { return f.reason }

func okHealth() health.System {
	return health.System{SystemState: health.OK, RunAllowed: true, OutputsAllowed: true}
}

func badHealth() health.System {
	return health.System{SystemState: health.Error, RunAllowed: false, OutputsAllowed: false}
}

// R1: once tripped, estop stays latched even after interlocks clear, until RESET.
func TestEstopLatches(t *testing.T) {
	s := NewSupervisor()
	din := fakeDin{ok: false, reason: "door_open"}

	st := s.Update(okHealth(), din, 100)
	if st.State != Estop || st.Reason != "door_open" {
		t.Fatalf("got %+v, want ESTOP/door_open", st)
	}

	din.ok = true
	st = s.Update(okHealth(), din, 200)
	if st.State != Estop {
		t.Fatalf("got %+v, want latched ESTOP even though interlocks cleared", st)
	}
}

// R2: RESET is only honored when interlocks are clear and health allows running.
func TestResetRequiresCleanPreconditions(t *testing.T) {
	s := NewSupervisor()
	din := fakeDin{ok: false, reason: "estop_tripped"}
	s.Update(okHealth(), din, 0)

	st, ackErr := s.HandleCommand(Reset, okHealth(), din, 10)
	if ackErr != "reset_inhibited" || st.State != Estop {
		t.Fatalf("got state=%v err=%q, want still ESTOP with reset_inhibited while interlocks bad", st.State, ackErr)
	}

	din.ok = true
	st, ackErr = s.HandleCommand(Reset, okHealth(), din, 20)
	if ackErr != "" || st.State != Stopped {
		t.Fatalf("got state=%v err=%q, want STOPPED with no error once preconditions clear", st.State, ackErr)
	}
}

// R3: RunAllowed/OutputsAllowed are an exact function of state.
func TestStatePermitInvariant(t *testing.T) {
	s := NewSupervisor()
	din := fakeDin{ok: true}

	st, _ := s.HandleCommand(Start, okHealth(), din, 0)
	if st.State != Running || !st.RunAllowed || !st.OutputsAllowed {
		t.Fatalf("got %+v, want RUNNING with both permits true", st)
	}

	st, _ = s.HandleCommand(Hold, okHealth(), din, 10)
	if st.State != Holding || st.RunAllowed || !st.OutputsAllowed {
		t.Fatalf("got %+v, want HOLDING with run_allowed=false, outputs_allowed=true", st)
	}

	st, _ = s.HandleCommand(Stop, okHealth(), din, 20)
	if st.State != Stopped || st.RunAllowed || st.OutputsAllowed {
		t.Fatalf("got %+v, want STOPPED with both permits false", st)
	}
}

func TestStartRejectedWhenInterlocksBad(t *testing.T) {
	s := NewSupervisor()
	din := fakeDin{ok: false, reason: "door_open"}
	s.Update(okHealth(), din, 0)

	_, ackErr := s.HandleCommand(Start, okHealth(), din, 5)
	if ackErr != "inhibited" {
		t.Fatalf("ackErr = %q, want inhibited", ackErr)
	}
}

func TestHealthFaultLatchesAndStops(t *testing.T) {
	s := NewSupervisor()
	din := fakeDin{ok: true}

	st, _ := s.HandleCommand(Start, okHealth(), din, 0)
	if st.State != Running {
		t.Fatalf("precondition: got %+v, want RUNNING", st)
	}

	st = s.Update(badHealth(), din, 10)
	if st.State != Stopped || st.Reason != "health_fault" {
		t.Fatalf("got %+v, want STOPPED/health_fault", st)
	}

	// Health recovers, but the latch holds until RESET.
	st = s.Update(okHealth(), din, 20)
	if st.State != Stopped {
		t.Fatalf("got %+v, want still STOPPED: health-fault latch requires RESET", st)
	}
}

func TestCommandsInhibitedWhileLatched(t *testing.T) {
	s := NewSupervisor()
	din := fakeDin{ok: false, reason: "lid_unlocked"}
	s.Update(okHealth(), din, 0)
	din.ok = true

	_, ackErr := s.HandleCommand(Start, okHealth(), din, 10)
	if ackErr != "inhibited" {
		t.Fatalf("ackErr = %q, want inhibited while estop latch holds", ackErr)
	}
}
