// Package serialbus implements hal.Fieldbus over a Modbus-RTU link on a
// plain serial port, grounded on original_source's ModbusRTU usage in
// pid_modbus.cpp (readHreg/writeHreg/task), re-expressed as the async
// completion-callback model the core mandates rather than the firmware's
// synchronous calls.
package serialbus

import (
	"encoding/binary"
	"time"

	"github.com/tarm/serial"

	"github.com/nu-cryo/cryo-bridge/internal/hal"
)

const (
	funcReadHolding = 0x03
	funcWriteSingle = 0x06

	frameTimeout = 50 * time.Millisecond
	baudRate     = 9600
)

type pendingRead struct {
	cb    hal.CompletionFunc
	count uint16
}

// Bus is the reference serial Modbus-RTU transport. DE/RE direction
// control for half-duplex RS-485 transceivers is assumed to be handled by
// the UART adapter itself (auto-direction); deRePin is accepted for HAL
// parity and is not driven from here.
type Bus struct {
	port     *serial.Port
	nextTxID uint32
	pending  *pendingRead
}

// New returns an unopened Bus; call Begin before use.
func New() *Bus { return &Bus{} }

func (b *Bus) Begin(uartPath string, deRePin int) bool {
	port, err := serial.OpenPort(&serial.Config{
		Name:        uartPath,
		Baud:        baudRate,
		ReadTimeout: frameTimeout,
	})
	if err != nil {
		return false
	}
	b.port = port
	return true
}

// ReadHolding enqueues a read and returns immediately; the response is
// collected on the next Task call.
func (b *Bus) ReadHolding(slave uint8, addr uint16, count uint16, cb hal.CompletionFunc) uint32 {
	if b.port == nil || b.pending != nil {
		return 0
	}
	frame := readRequestFrame(slave, modbusAddr(addr), count)
	if _, err := b.port.Write(frame); err != nil {
		return 0
	}
	b.nextTxID++
	b.pending = &pendingRead{cb: cb, count: count}
	return b.nextTxID
}

// WriteSingle is the priority one-shot write (set_sv): it blocks for its
// own response directly, since it bypasses the scheduler's round-robin
// entirely and the caller does not expect a later Task-drained result.
func (b *Bus) WriteSingle(slave uint8, addr uint16, value uint16) bool {
	if b.port == nil {
		return false
	}
	frame := writeRequestFrame(slave, modbusAddr(addr), value)
	if _, err := b.port.Write(frame); err != nil {
		return false
	}

	resp := make([]byte, 8)
	n, err := b.port.Read(resp)
	return err == nil && n == 8 && validCRC(resp[:n])
}

// Task collects a pending read's response, if any. It may block for up to
// frameTimeout, per hal.Fieldbus.Task's contract.
func (b *Bus) Task() {
	if b.pending == nil || b.port == nil {
		return
	}
	p := b.pending
	b.pending = nil

	expected := 5 + 2*int(p.count)
	buf := make([]byte, expected)
	n, err := b.port.Read(buf)
	if err != nil || n < expected || !validCRC(buf[:n]) {
		p.cb(hal.CompletionResult{Success: false})
		return
	}

	data := make([]uint16, p.count)
	for i := range data {
		data[i] = binary.BigEndian.Uint16(buf[3+2*i:])
	}
	p.cb(hal.CompletionResult{Success: true, Data: data})
}

func modbusAddr(oneBased uint16) uint16 {
	if oneBased > 0 {
		return oneBased - 1
	}
	return 0
}

func readRequestFrame(slave uint8, addr, count uint16) []byte {
	f := make([]byte, 6)
	f[0] = slave
	f[1] = funcReadHolding
	binary.BigEndian.PutUint16(f[2:], addr)
	binary.BigEndian.PutUint16(f[4:], count)
	return appendCRC(f)
}

func writeRequestFrame(slave uint8, addr, value uint16) []byte {
	f := make([]byte, 6)
	f[0] = slave
	f[1] = funcWriteSingle
	binary.BigEndian.PutUint16(f[2:], addr)
	binary.BigEndian.PutUint16(f[4:], value)
	return appendCRC(f)
}

func appendCRC(f []byte) []byte {
	crc := crc16(f)
	return append(f, byte(crc), byte(crc>>8))
}

func validCRC(frame []byte) bool {
	if len(frame) < 3 {
		return false
	}
	body := frame[:len(frame)-2]
	want := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	return crc16(body) == want
}

// crc16 is the standard Modbus CRC-16 (poly 0xA001, init 0xFFFF).
func crc16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
