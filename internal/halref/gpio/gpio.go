// Package gpio implements hal.DigitalInputs and hal.RelayBank over raw
// GPIO lines via periph.io, grounded on original_source's din.cpp/
// relay_component.cpp pin-read/pin-write calls.
package gpio

import (
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Init brings up the periph.io host drivers. Call once at process
// startup, before constructing any Inputs/Outputs.
func Init() error {
	_, err := host.Init()
	return err
}

// Inputs reads a fixed set of named GPIO lines into a bitmask, tracking
// rising/falling edges between ReadAll calls per hal.DigitalInputs.
type Inputs struct {
	pins     []gpio.PinIn
	lastMask uint8
	haveLast bool
}

// NewInputs resolves pinNames (periph.io pin names, e.g. "GPIO17") to
// input pins in bit order: pinNames[0] maps to bit 0, etc.
func NewInputs(pinNames []string) (*Inputs, error) {
	pins := make([]gpio.PinIn, len(pinNames))
	for i, name := range pinNames {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errNoSuchPin(name)
		}
		in, ok := p.(gpio.PinIn)
		if !ok {
			return nil, errNotInputCapable(name)
		}
		pins[i] = in
	}
	return &Inputs{pins: pins}, nil
}

func (in *Inputs) Begin() bool {
	for _, p := range in.pins {
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return false
		}
	}
	return true
}

func (in *Inputs) ReadAll() (mask, rising, falling uint8) {
	var current uint8
	for i, p := range in.pins {
		if p.Read() == gpio.High {
			current |= 1 << uint(i)
		}
	}

	if in.haveLast {
		rising = current &^ in.lastMask
		falling = in.lastMask &^ current
	}
	in.lastMask = current
	in.haveLast = true
	return current, rising, falling
}

// Outputs drives a fixed set of named GPIO lines as an 8-bit relay mask.
type Outputs struct {
	pins []gpio.PinOut
}

// NewOutputs resolves pinNames to output pins in bit order.
func NewOutputs(pinNames []string) (*Outputs, error) {
	pins := make([]gpio.PinOut, len(pinNames))
	for i, name := range pinNames {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errNoSuchPin(name)
		}
		out, ok := p.(gpio.PinOut)
		if !ok {
			return nil, errNotOutputCapable(name)
		}
		pins[i] = out
	}
	return &Outputs{pins: pins}, nil
}

func (o *Outputs) Begin() bool {
	for _, p := range o.pins {
		if err := p.Out(gpio.Low); err != nil {
			return false
		}
	}
	return true
}

func (o *Outputs) WriteMask(mask uint8) bool {
	for i, p := range o.pins {
		level := gpio.Low
		if mask&(1<<uint(i)) != 0 {
			level = gpio.High
		}
		if err := p.Out(level); err != nil {
			return false
		}
	}
	return true
}

func (o *Outputs) ReadMask() (uint8, bool) {
	var mask uint8
	for i, p := range o.pins {
		if p.Read() == gpio.High {
			mask |= 1 << uint(i)
		}
	}
	return mask, true
}

var (
	_ hal.DigitalInputs = (*Inputs)(nil)
	_ hal.RelayBank     = (*Outputs)(nil)
)

type pinError struct {
	msg string
}

func (e pinError) Error() string { return e.msg }

func errNoSuchPin(name string) error        { return pinError{"gpio: no such pin: " + name} }
func errNotInputCapable(name string) error  { return pinError{"gpio: pin is not input-capable: " + name} }
func errNotOutputCapable(name string) error { return pinError{"gpio: pin is not output-capable: " + name} }
