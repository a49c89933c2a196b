package fieldbus

import "github.com/nu-cryo/cryo-bridge/internal/hal"

// fakeBus is a hand-written hal.Fieldbus double: ReadHolding does not
// complete synchronously, it just records the request. Tests call
// Complete/Fail explicitly to simulate the transport delivering a result,
// matching the async completion model described in §4.4/§5.
type fakeBus struct {
	taskCalls int
	nextTxID  uint32

	lastSlave uint8
	lastAddr  uint16
	lastCount uint16
	pendingCB hal.CompletionFunc

	writes []fakeWrite
}

type fakeWrite struct {
	slave uint8
	addr  uint16
	value uint16
}

func (f *fakeBus) Begin(uartPath string, deRePin int) bool { return true }

func (f *fakeBus) ReadHolding(slave uint8, addr uint16, count uint16, cb hal.CompletionFunc) uint32 {
	f.nextTxID++
	f.lastSlave = slave
	f.lastAddr = addr
	f.lastCount = count
	f.pendingCB = cb
	return f.nextTxID
}

func (f *fakeBus) WriteSingle(slave uint8, addr uint16, value uint16) bool {
	f.writes = append(f.writes, fakeWrite{slave, addr, value})
	return true
}

func (f *fakeBus) Task() { f.taskCalls++ }

// Complete invokes the most recently registered completion callback, then
// clears it so a stray double-complete panics loudly in a test rather than
// silently reapplying.
func (f *fakeBus) Complete(result hal.CompletionResult) {
	cb := f.pendingCB
	f.pendingCB = nil
	cb(result)
}
