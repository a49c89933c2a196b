package fieldbus

import "github.com/nu-cryo/cryo-bridge/internal/hal"

// PID is the subset of a PID component's behavior the scheduler drives.
// internal/components' PID components satisfy this alongside
// health.Component.
type PID interface {
	StartReadState(nowMS uint32) bool
	StartReadParams(nowMS uint32) bool
	Tick(nowMS uint32) bool
}

// Scheduler is the single-initiator round-robin pump described in §4.4: it
// cycles state and params reads across the PID table, never allowing more
// than one in-flight transaction. Params reads are paced by the params
// period; state reads are not paced by the scheduler itself: each Tick
// tries one whenever no params read is due, so the caller's Tick rate sets
// the state-read rate.
type Scheduler struct {
	bus  hal.Fieldbus
	pids []PID

	statePeriodMS  uint32
	paramsPeriodMS uint32
	lastParamsMS   uint32

	nextStateIdx  int
	nextParamsIdx int
}

// NewScheduler returns a scheduler over pids with the given state and
// params periods (milliseconds). Only paramsPeriodMS gates Tick;
// statePeriodMS is stored and reported by StatePeriodMS.
func NewScheduler(bus hal.Fieldbus, pids []PID, statePeriodMS, paramsPeriodMS uint32) *Scheduler {
	return &Scheduler{
		bus:            bus,
		pids:           pids,
		statePeriodMS:  statePeriodMS,
		paramsPeriodMS: paramsPeriodMS,
	}
}

// StatePeriodMS returns the state period the scheduler was built with.
// Tick does not pace itself on it.
func (s *Scheduler) StatePeriodMS() uint32 { return s.statePeriodMS }

// Tick runs one scheduler pass: drain the transport, apply any completed
// transactions, then start at most one new transaction, preferring an
// overdue params read over a state read.
func (s *Scheduler) Tick(nowMS uint32) {
	s.bus.Task()

	for _, p := range s.pids {
		p.Tick(nowMS)
	}

	if len(s.pids) == 0 {
		return
	}

	if nowMS-s.lastParamsMS >= s.paramsPeriodMS {
		p := s.pids[s.nextParamsIdx]
		if p.StartReadParams(nowMS) {
			s.nextParamsIdx = (s.nextParamsIdx + 1) % len(s.pids)
			s.lastParamsMS = nowMS
			return
		}
	}

	p := s.pids[s.nextStateIdx]
	if p.StartReadState(nowMS) {
		s.nextStateIdx = (s.nextStateIdx + 1) % len(s.pids)
	}
}
