package fieldbus

import (
	"testing"

	"github.com/nu-cryo/cryo-bridge/internal/hal"
)

// F1: at most one in-flight transaction globally, enforced across two
// slaves sharing one arbiter.
func TestSlaveMutualExclusionAcrossSlaves(t *testing.T) {
	bus := &fakeBus{}
	arb := NewArbiter()
	a := NewSlave(1, bus, arb)
	b := NewSlave(2, bus, arb)

	if !a.StartReadState(0) {
		t.Fatal("first StartReadState should be accepted")
	}
	if b.StartReadState(0) {
		t.Fatal("second slave's StartReadState should be rejected while bus is busy")
	}

	bus.Complete(hal.CompletionResult{Success: true, Data: make([]uint16, StateRegCount)})
	res, ok := a.TakeStateResult()
	if !ok || !res.Success {
		t.Fatalf("expected a successful pending result, got ok=%v res=%+v", ok, res)
	}

	if !b.StartReadState(10) {
		t.Fatal("StartReadState should succeed once the arbiter is released")
	}
}

func TestSlaveStateRegisterRange(t *testing.T) {
	bus := &fakeBus{}
	arb := NewArbiter()
	s := NewSlave(7, bus, arb)

	s.StartReadState(0)
	if bus.lastSlave != 7 || bus.lastAddr != StateRegStart || bus.lastCount != StateRegCount {
		t.Fatalf("got slave=%d addr=%d count=%d, want 7/%d/%d", bus.lastSlave, bus.lastAddr, bus.lastCount, StateRegStart, StateRegCount)
	}
}

func TestSlaveParamsRegisterRange(t *testing.T) {
	bus := &fakeBus{}
	arb := NewArbiter()
	s := NewSlave(7, bus, arb)

	s.StartReadParams(0)
	if bus.lastAddr != ParamsRegStart || bus.lastCount != ParamsRegCount {
		t.Fatalf("got addr=%d count=%d, want %d/%d", bus.lastAddr, bus.lastCount, ParamsRegStart, ParamsRegCount)
	}
}

func TestSlaveWriteSingle(t *testing.T) {
	bus := &fakeBus{}
	s := NewSlave(3, bus, NewArbiter())

	if !s.WriteSingle(uint16(RegSV), Encode(37.2)) {
		t.Fatal("WriteSingle should succeed against the fake bus")
	}
	if len(bus.writes) != 1 || bus.writes[0].value != uint16(372) {
		t.Fatalf("got writes=%+v, want one write of raw 372", bus.writes)
	}
}
