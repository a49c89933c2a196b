package components

import (
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/internal/health"
)

// Relay owns the 8-bit output mask: the command handler and the periodic
// tick are both writers, but tick always rereads from the HAL so readers
// see the last-written value per §5's shared-resource rule.
type Relay struct {
	health.Base

	hal         hal.RelayBank
	initialized bool
	mask        uint8
}

// NewRelay binds a Relay component to its HAL.
func NewRelay(h hal.RelayBank) *Relay {
	return &Relay{hal: h}
}

func (r *Relay) Name() string { return "relay" }

func (r *Relay) StaleTimeoutMS() uint32 { return 1000 }

// Mask returns the last-known relay mask.
func (r *Relay) Mask() uint8 { return r.mask }

func (r *Relay) Probe(nowMS uint32) bool {
	if !r.IsExpected() {
		return false
	}
	r.initialized = r.hal.Begin()
	if !r.initialized {
		r.SetStatus(nowMS, health.Error, "init_failed")
		return false
	}
	return r.refresh(nowMS)
}

func (r *Relay) Tick(nowMS uint32) bool {
	if !r.IsExpected() {
		return false
	}
	if !r.initialized {
		return r.Probe(nowMS)
	}
	return r.refresh(nowMS)
}

// SetMask writes an absolute mask through the HAL, e.g. from an incoming
// relay command. Returns false (reason="write_fail") on a HAL failure.
func (r *Relay) SetMask(mask uint8, nowMS uint32) bool {
	if !r.IsExpected() {
		return false
	}
	if !r.initialized && !r.Probe(nowMS) {
		return false
	}

	ok := r.hal.WriteMask(mask)
	if ok {
		r.mask = mask
		r.MarkOK(nowMS)
	} else {
		r.SetStatus(nowMS, health.Error, "write_fail")
	}
	return ok
}

func (r *Relay) refresh(nowMS uint32) bool {
	mask, ok := r.hal.ReadMask()
	if ok {
		r.mask = mask
		r.MarkOK(nowMS)
	} else {
		r.SetStatus(nowMS, health.Error, "read_fail")
	}
	return ok
}
