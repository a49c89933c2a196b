package fieldbus

import "testing"

func TestArbiterMutualExclusion(t *testing.T) {
	a := NewArbiter()

	if !a.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if a.TryAcquire() {
		t.Fatal("second TryAcquire should fail while held")
	}

	a.Release()
	if !a.TryAcquire() {
		t.Fatal("TryAcquire after Release should succeed")
	}
}
