// Package components implements the concrete health.Component devices
// wired into the bridge: digital inputs, the relay bank, the uplink health
// shim, PID slaves over the fieldbus, and the optional accelerometer.
package components

import (
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/internal/health"
)

// Interlock bit positions within the digital-input mask.
const (
	BitEstopOK     = 0
	BitLidLocked   = 1
	BitDoorClosed  = 2
)

// Snapshot is the most recent digital-input read.
type Snapshot struct {
	Mask    uint8 `json:"mask"`
	Rising  uint8 `json:"rising"`
	Falling uint8 `json:"falling"`
}

// Din maps DIN1..DIN3 to the estop/lid/door interlocks and exposes the raw
// 8-bit mask for other consumers (the Bus Gateway's io/din topics).
type Din struct {
	health.Base

	hal         hal.DigitalInputs
	initialized bool
	snapshot    Snapshot
}

// NewDin binds a Din component to its HAL.
func NewDin(h hal.DigitalInputs) *Din {
	return &Din{hal: h}
}

func (d *Din) Name() string { return "din" }

func (d *Din) StaleTimeoutMS() uint32 { return 1000 }

// Snapshot returns the last digital-input read.
func (d *Din) Snapshot() Snapshot { return d.snapshot }

// InterlocksOK reports whether every interlock bit is satisfied; this is
// runstate.Din's contract.
func (d *Din) InterlocksOK() bool {
	return bitSet(d.snapshot.Mask, BitEstopOK) &&
		bitSet(d.snapshot.Mask, BitLidLocked) &&
		bitSet(d.snapshot.Mask, BitDoorClosed)
}

// Reason returns the stable token for the first violated interlock, or "ok".
func (d *Din) Reason() string {
	switch {
	case !bitSet(d.snapshot.Mask, BitEstopOK):
		return "estop_tripped"
	case !bitSet(d.snapshot.Mask, BitDoorClosed):
		return "door_open"
	case !bitSet(d.snapshot.Mask, BitLidLocked):
		return "lid_unlocked"
	default:
		return "ok"
	}
}

func (d *Din) Probe(nowMS uint32) bool {
	if !d.IsExpected() {
		return false
	}
	d.initialized = d.hal.Begin()
	d.refresh(nowMS)
	return d.InterlocksOK()
}

func (d *Din) Tick(nowMS uint32) bool {
	if !d.IsExpected() {
		return false
	}
	if !d.initialized {
		return d.Probe(nowMS)
	}
	d.refresh(nowMS)
	return d.InterlocksOK()
}

func (d *Din) refresh(nowMS uint32) {
	mask, rising, falling := d.hal.ReadAll()
	d.snapshot = Snapshot{Mask: mask, Rising: rising, Falling: falling}

	if d.InterlocksOK() {
		d.MarkOK(nowMS)
		return
	}
	d.SetStatus(nowMS, health.Error, d.Reason())
}

func bitSet(mask uint8, bit uint8) bool {
	return mask&(1<<bit) != 0
}
