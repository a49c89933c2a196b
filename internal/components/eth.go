package components

import (
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/internal/health"
)

// Eth derives its health straight from the uplink's own connectivity
// check; it never times out centrally (stale_timeout_ms=0) since
// NetworkLink.Connected is itself the freshest possible signal.
type Eth struct {
	health.Base

	net hal.NetworkLink
}

// NewEth binds an Eth component to its HAL.
func NewEth(net hal.NetworkLink) *Eth {
	return &Eth{net: net}
}

func (e *Eth) Name() string { return "eth" }

// StaleTimeoutMS is 0: centralized staleness is disabled for this
// component, matching the firmware's eth_health.cpp.
func (e *Eth) StaleTimeoutMS() uint32 { return 0 }

func (e *Eth) Probe(nowMS uint32) bool {
	return e.Tick(nowMS)
}

func (e *Eth) Tick(nowMS uint32) bool {
	if !e.IsExpected() {
		return false
	}

	if e.net.Connected() {
		e.MarkOKReason(nowMS, "up")
		return true
	}

	e.SetStatus(nowMS, health.Missing, "down")
	return false
}
