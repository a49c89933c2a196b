package main

import (
	"net"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// netLink is the reference hal.NetworkLink: it reports a host "connected"
// whenever any non-loopback interface carries an address, which is the
// simplest signal available without a dedicated uplink-health package.
type netLink struct{}

func (netLink) Connected() bool {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ipnet.IP.To4() != nil || ipnet.IP.To16() != nil {
			return true
		}
	}
	return false
}

func (netLink) LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}

// adxl345Probe implements components.I2CProbe against a real ADXL345 over
// periph.io's i2c bus, reading the fixed DEVID register (0x00).
type adxl345Probe struct {
	dev *i2c.Dev
}

const (
	adxl345Addr     = 0x53
	adxl345DevIDReg = 0x00
)

func newADXL345Probe(busName string) (*adxl345Probe, error) {
	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, err
	}
	return &adxl345Probe{dev: &i2c.Dev{Bus: b, Addr: adxl345Addr}}, nil
}

func (p *adxl345Probe) ReadDeviceID() (uint8, bool) {
	var resp [1]byte
	if err := p.dev.Tx([]byte{adxl345DevIDReg}, resp[:]); err != nil {
		return 0, false
	}
	return resp[0], true
}
