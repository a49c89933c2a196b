package components

import (
	"testing"

	"github.com/nu-cryo/cryo-bridge/internal/health"
)

type fakeNetworkLink struct {
	connected bool
	localIP   string
}

func (f *fakeNetworkLink) Connected() bool { return f.connected }
func (f *fakeNetworkLink) LocalIP() string { return f.localIP }

func TestEthUpDown(t *testing.T) {
	net := &fakeNetworkLink{connected: true}
	e := NewEth(net)
	e.Configure(true, true)

	e.Tick(0)
	if e.Report().Status != health.OK || e.Report().Reason != "up" {
		t.Fatalf("got %+v, want OK/up", e.Report())
	}

	net.connected = false
	e.Tick(10)
	if e.Report().Status != health.Missing || e.Report().Reason != "down" {
		t.Fatalf("got %+v, want MISSING/down", e.Report())
	}
}

func TestEthHasNoCentralizedStaleTimeout(t *testing.T) {
	e := NewEth(&fakeNetworkLink{})
	if e.StaleTimeoutMS() != 0 {
		t.Errorf("StaleTimeoutMS() = %d, want 0", e.StaleTimeoutMS())
	}
}
