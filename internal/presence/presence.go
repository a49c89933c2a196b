// Package presence advertises the bridge's machine_id/node_id on the LAN
// via mDNS, so operator tooling can find a node without static
// configuration. This is strictly supplementary: nothing in the
// supervisory core depends on it, and a failed or unavailable mDNS
// responder never blocks the main loop.
package presence

import (
	"fmt"
	"net"

	"github.com/enbility/zeroconf/v3"
)

// ServiceType is the mDNS service type the bridge advertises under.
const ServiceType = "_cryo-bridge._tcp"

// Domain is the mDNS domain, matching zeroconf's usual default.
const Domain = "local."

// Advertiser publishes (and retracts) the bridge's mDNS presence record.
type Advertiser struct {
	server *zeroconf.Server
}

// Info is the record published on the LAN: enough for a diagnostic tool
// to locate and identify a node without reading its config file.
type Info struct {
	MachineID string
	NodeID    string
	Port      int
}

// Start registers the mDNS service record. Call once after the broker
// connection succeeds (mirroring status/boot's own "on connect" timing).
func (a *Advertiser) Start(info Info) error {
	instanceName := fmt.Sprintf("%s-%s", info.MachineID, info.NodeID)

	txt := []string{
		"machine_id=" + info.MachineID,
		"node_id=" + info.NodeID,
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("presence: listing interfaces: %w", err)
	}

	server, err := zeroconf.Register(instanceName, ServiceType, Domain, info.Port, txt, ifaces)
	if err != nil {
		return fmt.Errorf("presence: registering mdns service: %w", err)
	}

	a.server = server
	return nil
}

// Stop retracts the advertisement. Safe to call even if Start never
// succeeded.
func (a *Advertiser) Stop() {
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}
