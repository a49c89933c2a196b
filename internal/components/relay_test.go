package components

import (
	"testing"

	"github.com/nu-cryo/cryo-bridge/internal/health"
)

type fakeRelayHal struct {
	beginOK  bool
	writeOK  bool
	readOK   bool
	readMask uint8
	written  []uint8
}

func (f *fakeRelayHal) Begin() bool { return f.beginOK }

func (f *fakeRelayHal) WriteMask(mask uint8) bool {
	f.written = append(f.written, mask)
	if f.writeOK {
		f.readMask = mask
	}
	return f.writeOK
}

func (f *fakeRelayHal) ReadMask() (uint8, bool) { return f.readMask, f.readOK }

func TestRelaySetMaskWritesThrough(t *testing.T) {
	h := &fakeRelayHal{beginOK: true, writeOK: true, readOK: true}
	r := NewRelay(h)
	r.Configure(true, true)
	r.Probe(0)

	if !r.SetMask(0x05, 10) {
		t.Fatal("SetMask should succeed")
	}
	if r.Mask() != 0x05 {
		t.Errorf("Mask() = %#x, want 0x05", r.Mask())
	}
	if r.Report().Status != health.OK {
		t.Errorf("Status = %v, want OK", r.Report().Status)
	}
}

func TestRelaySetMaskFailureDegradesStatus(t *testing.T) {
	h := &fakeRelayHal{beginOK: true, writeOK: false, readOK: true}
	r := NewRelay(h)
	r.Configure(true, true)
	r.Probe(0)

	if r.SetMask(0x01, 10) {
		t.Fatal("SetMask should report failure")
	}
	if r.Report().Reason != "write_fail" {
		t.Errorf("Reason = %q, want write_fail", r.Report().Reason)
	}
}

func TestRelayProbeInitFailure(t *testing.T) {
	h := &fakeRelayHal{beginOK: false}
	r := NewRelay(h)
	r.Configure(true, true)

	if r.Probe(0) {
		t.Fatal("Probe should fail when Begin() fails")
	}
	if r.Report().Reason != "init_failed" {
		t.Errorf("Reason = %q, want init_failed", r.Report().Reason)
	}
}

func TestRelayTickRereadsFromHal(t *testing.T) {
	h := &fakeRelayHal{beginOK: true, writeOK: true, readOK: true, readMask: 0x0F}
	r := NewRelay(h)
	r.Configure(true, true)
	r.Probe(0)

	r.Tick(10)
	if r.Mask() != 0x0F {
		t.Errorf("Mask() after Tick = %#x, want 0x0F (rereads from HAL)", r.Mask())
	}
}
