package fieldbus

import "github.com/nu-cryo/cryo-bridge/internal/hal"

// Slave is the embeddable plumbing shared by every PID component: it owns
// the arbiter handshake and the pending-result slots, and leaves register
// interpretation to whatever embeds it. Mirrors the health package's Base
// pattern of "generic bookkeeping here, domain meaning in the concrete type."
type Slave struct {
	SlaveID uint8

	bus hal.Fieldbus
	arb *Arbiter

	stateInFlight  bool
	paramsInFlight bool
	pendingState   *hal.CompletionResult
	pendingParams  *hal.CompletionResult
}

// NewSlave binds a slave address to a shared bus and arbiter.
func NewSlave(slaveID uint8, bus hal.Fieldbus, arb *Arbiter) *Slave {
	return &Slave{SlaveID: slaveID, bus: bus, arb: arb}
}

// StartReadState enqueues the contiguous PV..AL2 read. Returns false if the
// bus is already in flight, locally or globally.
func (s *Slave) StartReadState(nowMS uint32) bool {
	if s.stateInFlight || !s.arb.TryAcquire() {
		return false
	}
	s.stateInFlight = true
	txID := s.bus.ReadHolding(s.SlaveID, StateRegStart, StateRegCount, func(res hal.CompletionResult) {
		s.pendingState = &res
	})
	if txID == 0 {
		s.stateInFlight = false
		s.arb.Release()
		return false
	}
	return true
}

// StartReadParams enqueues the contiguous P..USPL read.
func (s *Slave) StartReadParams(nowMS uint32) bool {
	if s.paramsInFlight || !s.arb.TryAcquire() {
		return false
	}
	s.paramsInFlight = true
	txID := s.bus.ReadHolding(s.SlaveID, ParamsRegStart, ParamsRegCount, func(res hal.CompletionResult) {
		s.pendingParams = &res
	})
	if txID == 0 {
		s.paramsInFlight = false
		s.arb.Release()
		return false
	}
	return true
}

// TakeStateResult drains the pending state-read result, if any, releasing
// the arbiter. Call from Tick; never from the completion callback.
func (s *Slave) TakeStateResult() (hal.CompletionResult, bool) {
	if s.pendingState == nil {
		return hal.CompletionResult{}, false
	}
	r := *s.pendingState
	s.pendingState = nil
	s.stateInFlight = false
	s.arb.Release()
	return r, true
}

// TakeParamsResult drains the pending params-read result, if any.
func (s *Slave) TakeParamsResult() (hal.CompletionResult, bool) {
	if s.pendingParams == nil {
		return hal.CompletionResult{}, false
	}
	r := *s.pendingParams
	s.pendingParams = nil
	s.paramsInFlight = false
	s.arb.Release()
	return r, true
}

// WriteSingle issues a synchronous single-register write (set_sv's priority
// one-shot). Unlike the async reads, this returns its own result directly.
func (s *Slave) WriteSingle(addr uint16, value int16) bool {
	return s.bus.WriteSingle(s.SlaveID, addr, uint16(value))
}
