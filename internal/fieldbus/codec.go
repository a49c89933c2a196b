// Package fieldbus implements the single-initiator serial scheduler that
// time-multiplexes PID slave refreshes across a shared half-duplex bus, and
// the signed ×10 fixed-point codec used for every register in the map.
package fieldbus

import "math"

// Register is a 1-based holding-register address in the PID slave's map.
type Register uint16

const (
	RegPV    Register = 1
	RegMV1   Register = 2 // output %
	RegMV2   Register = 3
	RegMVFB  Register = 4
	RegStatus Register = 5 // bitfield
	RegSV    Register = 6
	RegAL1   Register = 15
	RegAL2   Register = 16
	RegP     Register = 25
	RegI     Register = 26
	RegD     Register = 27
	RegOPL   Register = 33
	RegOPH   Register = 34
	RegLSPL  Register = 69
	RegUSPL  Register = 70
)

// StateRegStart and StateRegCount bound the contiguous PV..AL2 read used to
// refresh PidState in one transaction.
const (
	StateRegStart = uint16(RegPV)
	StateRegCount = uint16(RegAL2) - uint16(RegPV) + 1
)

// ParamsRegStart and ParamsRegCount bound the contiguous P..USPL read used
// to refresh PidParams.
const (
	ParamsRegStart = uint16(RegP)
	ParamsRegCount = uint16(RegUSPL) - uint16(RegP) + 1
)

// Decode converts a signed ×10 fixed-point register value to its float
// representation (F3: decode(raw)=raw/10.0).
func Decode(raw int16) float64 {
	return float64(raw) / 10.0
}

// Encode converts a float value into its signed ×10 fixed-point register
// representation (F3: encode(val)=round(val*10)).
func Encode(val float64) int16 {
	return int16(math.Round(val * 10.0))
}
