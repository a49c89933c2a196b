package fieldbus

// Arbiter enforces the single in-flight-transaction invariant (F1) across
// every PID slave sharing one physical bus. It is intentionally tiny: the
// scheduler and every slave hold a reference to the same Arbiter instead of
// each slave guessing at a package-level flag.
type Arbiter struct {
	busy bool
}

// NewArbiter returns an unheld arbiter.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// TryAcquire claims the bus for one transaction. Returns false if another
// transaction is already in flight.
func (a *Arbiter) TryAcquire() bool {
	if a.busy {
		return false
	}
	a.busy = true
	return true
}

// Release frees the bus once a transaction's result has been consumed.
func (a *Arbiter) Release() {
	a.busy = false
}

// Busy reports whether a transaction currently holds the arbiter.
func (a *Arbiter) Busy() bool {
	return a.busy
}
