package components

import (
	"github.com/nu-cryo/cryo-bridge/internal/fieldbus"
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/internal/health"
)

// State is the live process view of one PID slave.
type State struct {
	PV     float64 `json:"pv"`
	SV     float64 `json:"sv"`
	MV1    float64 `json:"mv1"`
	MV2    float64 `json:"mv2"`
	MVFB   float64 `json:"mvfb"`
	Status uint16  `json:"status"`
	AL1    float64 `json:"al1"`
	AL2    float64 `json:"al2"`
	Valid  bool    `json:"valid"`
}

// Params is the slow-changing tuning view of one PID slave.
type Params struct {
	P     float64 `json:"p"`
	I     float64 `json:"i"`
	D     float64 `json:"d"`
	OPL   float64 `json:"opl"`
	OPH   float64 `json:"oph"`
	LSPL  float64 `json:"lspl"`
	USPL  float64 `json:"uspl"`
	Valid bool    `json:"valid"`
}

// PID is a PID slave reached over the fieldbus: it implements both
// health.Component (via health.Base) and fieldbus.PID (via fieldbus.Slave),
// translating completed register reads into State/Params on Tick.
type PID struct {
	health.Base
	*fieldbus.Slave

	name  string
	state State
	params Params
}

// NewPID binds a named PID slave to its fieldbus address.
func NewPID(name string, slaveID uint8, bus hal.Fieldbus, arb *fieldbus.Arbiter) *PID {
	return &PID{
		name:  name,
		Slave: fieldbus.NewSlave(slaveID, bus, arb),
	}
}

func (p *PID) Name() string { return p.name }

func (p *PID) StaleTimeoutMS() uint32 { return 1500 }

// State returns the last successfully decoded PidState.
func (p *PID) State() State { return p.state }

// Params returns the last successfully decoded PidParams.
func (p *PID) Params() Params { return p.params }

func (p *PID) Probe(nowMS uint32) bool {
	if !p.IsExpected() {
		return false
	}
	return p.StartReadState(nowMS)
}

// Tick drains whatever the scheduler has completed since the last call and
// applies the transition policy from §4.4: a failed state read degrades an
// OK component first, then goes missing on a second consecutive failure.
func (p *PID) Tick(nowMS uint32) bool {
	if !p.IsExpected() {
		return false
	}

	ok := true
	if res, have := p.Slave.TakeStateResult(); have {
		ok = p.applyStateResult(nowMS, res)
	}
	if res, have := p.Slave.TakeParamsResult(); have {
		p.applyParamsResult(nowMS, res)
	}
	return ok
}

func (p *PID) applyStateResult(nowMS uint32, res hal.CompletionResult) bool {
	if !res.Success || len(res.Data) < int(fieldbus.StateRegCount) {
		p.state.Valid = false
		if p.Status() == health.OK {
			p.SetStatus(nowMS, health.Degraded, "modbus_read_fail")
		} else {
			p.SetStatus(nowMS, health.Missing, "modbus_no_response")
		}
		return false
	}

	reg := func(offset uint16) int16 { return int16(res.Data[offset]) }
	p.state = State{
		PV:     fieldbus.Decode(reg(uint16(fieldbus.RegPV) - fieldbus.StateRegStart)),
		MV1:    fieldbus.Decode(reg(uint16(fieldbus.RegMV1) - fieldbus.StateRegStart)),
		MV2:    fieldbus.Decode(reg(uint16(fieldbus.RegMV2) - fieldbus.StateRegStart)),
		MVFB:   fieldbus.Decode(reg(uint16(fieldbus.RegMVFB) - fieldbus.StateRegStart)),
		Status: res.Data[uint16(fieldbus.RegStatus)-fieldbus.StateRegStart],
		SV:     fieldbus.Decode(reg(uint16(fieldbus.RegSV) - fieldbus.StateRegStart)),
		AL1:    fieldbus.Decode(reg(uint16(fieldbus.RegAL1) - fieldbus.StateRegStart)),
		AL2:    fieldbus.Decode(reg(uint16(fieldbus.RegAL2) - fieldbus.StateRegStart)),
		Valid:  true,
	}
	p.MarkOK(nowMS)
	return true
}

func (p *PID) applyParamsResult(nowMS uint32, res hal.CompletionResult) {
	if !res.Success || len(res.Data) < int(fieldbus.ParamsRegCount) {
		p.params.Valid = false
		return
	}

	reg := func(offset uint16) int16 { return int16(res.Data[offset]) }
	p.params = Params{
		P:     fieldbus.Decode(reg(uint16(fieldbus.RegP) - fieldbus.ParamsRegStart)),
		I:     fieldbus.Decode(reg(uint16(fieldbus.RegI) - fieldbus.ParamsRegStart)),
		D:     fieldbus.Decode(reg(uint16(fieldbus.RegD) - fieldbus.ParamsRegStart)),
		OPL:   fieldbus.Decode(reg(uint16(fieldbus.RegOPL) - fieldbus.ParamsRegStart)),
		OPH:   fieldbus.Decode(reg(uint16(fieldbus.RegOPH) - fieldbus.ParamsRegStart)),
		LSPL:  fieldbus.Decode(reg(uint16(fieldbus.RegLSPL) - fieldbus.ParamsRegStart)),
		USPL:  fieldbus.Decode(reg(uint16(fieldbus.RegUSPL) - fieldbus.ParamsRegStart)),
		Valid: true,
	}
}

// SetSV is the synchronous priority one-shot write described in §4.4: it
// bypasses the scheduler's round-robin entirely and writes register 6
// directly. A failure degrades the component with reason "sv_write_fail"
// and is never retried automatically.
func (p *PID) SetSV(value float64, nowMS uint32) bool {
	if !p.IsExpected() {
		return false
	}

	ok := p.Slave.WriteSingle(uint16(fieldbus.RegSV), fieldbus.Encode(value))
	if ok {
		p.state.SV = value
		p.MarkOK(nowMS)
	} else {
		p.SetStatus(nowMS, health.Degraded, "sv_write_fail")
	}
	return ok
}
