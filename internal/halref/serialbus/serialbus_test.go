package serialbus

import "testing"

func TestModbusAddrConvertsOneBasedToZeroBased(t *testing.T) {
	cases := map[uint16]uint16{1: 0, 6: 5, 70: 69, 0: 0}
	for oneBased, want := range cases {
		if got := modbusAddr(oneBased); got != want {
			t.Errorf("modbusAddr(%d) = %d, want %d", oneBased, got, want)
		}
	}
}

func TestReadRequestFrameCRCValidates(t *testing.T) {
	frame := readRequestFrame(1, 0, 8)
	if len(frame) != 8 {
		t.Fatalf("len(frame) = %d, want 8", len(frame))
	}
	if !validCRC(frame) {
		t.Fatal("constructed read request frame failed its own CRC check")
	}
	if frame[0] != 1 || frame[1] != funcReadHolding {
		t.Errorf("frame header = % x, want slave=1 func=0x03", frame[:2])
	}
}

func TestWriteRequestFrameCRCValidates(t *testing.T) {
	frame := writeRequestFrame(2, 5, 372)
	if !validCRC(frame) {
		t.Fatal("constructed write request frame failed its own CRC check")
	}
	if frame[1] != funcWriteSingle {
		t.Errorf("func = 0x%02x, want 0x06", frame[1])
	}
}

func TestValidCRCRejectsCorruptedFrame(t *testing.T) {
	frame := readRequestFrame(1, 0, 8)
	frame[0] ^= 0xFF // corrupt the slave id byte after CRC was computed
	if validCRC(frame) {
		t.Fatal("validCRC accepted a corrupted frame")
	}
}

func TestValidCRCRejectsShortFrame(t *testing.T) {
	if validCRC([]byte{1, 2}) {
		t.Fatal("validCRC accepted a too-short frame")
	}
}
