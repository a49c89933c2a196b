package components

import "github.com/nu-cryo/cryo-bridge/internal/health"

// I2CProbe is the narrow HAL an accelerometer needs: a device-id read used
// both to detect presence and, on every tick, to confirm the part is still
// answering on the bus.
type I2CProbe interface {
	ReadDeviceID() (id uint8, ok bool)
}

// ExpectedDeviceID is the ADXL345's fixed DEVID register value.
const ExpectedDeviceID = 0xE5

// Accel is the optional accelerometer component from original_source's
// adxl345.{h,cpp}, re-expressed as a health.Component. It checks only the
// ADXL345 device id, for presence and liveness; it reads no acceleration
// data and applies no vibration threshold.
// It is disabled (expected=false) unless a deployment's config turns it on.
type Accel struct {
	health.Base

	i2c I2CProbe
}

// NewAccel binds an Accel component to its I2C probe.
func NewAccel(i2c I2CProbe) *Accel {
	return &Accel{i2c: i2c}
}

func (a *Accel) Name() string { return "accel" }

func (a *Accel) StaleTimeoutMS() uint32 { return 1500 }

func (a *Accel) Probe(nowMS uint32) bool {
	if !a.IsExpected() {
		return false
	}
	id, ok := a.i2c.ReadDeviceID()
	if ok && id == ExpectedDeviceID {
		a.MarkOK(nowMS)
		return true
	}
	a.SetStatus(nowMS, health.Missing, "i2c_read_fail")
	return false
}

func (a *Accel) Tick(nowMS uint32) bool {
	if !a.IsExpected() {
		return false
	}

	id, ok := a.i2c.ReadDeviceID()
	if ok && id == ExpectedDeviceID {
		a.MarkOK(nowMS)
		return true
	}

	if a.Status() == health.OK {
		a.SetStatus(nowMS, health.Degraded, "i2c_read_fail")
	}
	return false
}
