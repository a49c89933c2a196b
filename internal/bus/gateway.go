package bus

import (
	"encoding/json"
	"fmt"

	"github.com/nu-cryo/cryo-bridge/internal/components"
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/internal/health"
	"github.com/nu-cryo/cryo-bridge/internal/runstate"
)

// Cadences are the periodic publication intervals from §4.5/§9, all in
// milliseconds.
type Cadences struct {
	HeartbeatMS  uint32
	SysHealthMS  uint32
	HealthStateMS uint32
	PidStateMS   uint32
	PidParamsMS  uint32
	DinStateMS   uint32
	DoutStateMS  uint32
}

// DefaultCadences returns the example cadences named in §4.4/§9.
func DefaultCadences() Cadences {
	return Cadences{
		HeartbeatMS:   1000,
		SysHealthMS:   1000,
		HealthStateMS: 1000,
		PidStateMS:    200,
		PidParamsMS:   5000,
		DinStateMS:    200,
		DoutStateMS:   200,
	}
}

// Envelope is the header stamped on every published payload.
type Envelope struct {
	V    int    `json:"v"`
	TsMs uint32 `json:"ts_ms"`
	Src  string `json:"src"`
}

// Gateway is the Bus Gateway: it owns the HAL pub/sub boundary and mediates
// between incoming commands and the Health Manager / Run Control / device
// components.
type Gateway struct {
	transport hal.Bus
	nodeID    string

	health  *health.Manager
	run     *runstate.Supervisor
	din     *components.Din
	relay   *components.Relay
	pids    []*components.PID

	cadences Cadences
	inbox    chan inboundMsg

	startedAtMS uint32
	prevDinMask uint8
	havePrevDin bool

	last struct {
		heartbeat, sysHealth, healthState, pidState, pidParams, dinState, doutState uint32
	}
}

type inboundMsg struct {
	topic   string
	payload []byte
}

// New builds a Gateway. cadences is typically bus.DefaultCadences().
func New(transport hal.Bus, nodeID string, mgr *health.Manager, run *runstate.Supervisor, din *components.Din, relay *components.Relay, pids []*components.PID, cadences Cadences) *Gateway {
	return &Gateway{
		transport: transport,
		nodeID:    nodeID,
		health:    mgr,
		run:       run,
		din:       din,
		relay:     relay,
		pids:      pids,
		cadences:  cadences,
		inbox:     make(chan inboundMsg, 32),
	}
}

// Start subscribes to the command subtopics and registers the inbound
// handler. The handler only enqueues the message - per §5, a transport
// callback must do nothing but hand off, never mutate core state directly.
func (g *Gateway) Start(nowMS uint32) {
	g.startedAtMS = nowMS
	g.transport.Subscribe(TopicRelayCmd)
	g.transport.Subscribe(TopicRunCmd)
	g.transport.SetHandler(func(topic string, payload []byte) {
		select {
		case g.inbox <- inboundMsg{topic: topic, payload: payload}:
		default:
			// Inbox full: drop rather than block the transport's read loop.
		}
	})

	// Back-date every cadence tracker by its own period so the first Tick
	// publishes immediately instead of waiting a full period.
	g.last.heartbeat = nowMS - g.cadences.HeartbeatMS
	g.last.sysHealth = nowMS - g.cadences.SysHealthMS
	g.last.healthState = nowMS - g.cadences.HealthStateMS
	g.last.pidState = nowMS - g.cadences.PidStateMS
	g.last.pidParams = nowMS - g.cadences.PidParamsMS
	g.last.dinState = nowMS - g.cadences.DinStateMS
	g.last.doutState = nowMS - g.cadences.DoutStateMS
}

// OnConnected publishes the retained online/boot records; call once after
// the underlying transport reports a successful connect.
func (g *Gateway) OnConnected(nowMS uint32) {
	g.publish(TopicLWT, struct {
		Envelope
		State string `json:"state"`
	}{g.envelope(nowMS), "online"}, true)

	g.publish(TopicBoot, struct {
		Envelope
		StartedAtMS uint32 `json:"started_at_ms"`
	}{g.envelope(nowMS), nowMS}, true)
}

func (g *Gateway) envelope(nowMS uint32) Envelope {
	return Envelope{V: SchemaVersion, TsMs: nowMS, Src: g.nodeID}
}

func (g *Gateway) publish(subtopic string, v any, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	g.transport.Publish(subtopic, payload, retained, 0)
}

// Tick drains any queued inbound commands, then publishes whatever is due
// on the periodic cadence table.
func (g *Gateway) Tick(nowMS uint32) {
	g.drainInbox(nowMS)
	g.publishPeriodics(nowMS)
}

func (g *Gateway) drainInbox(nowMS uint32) {
	for {
		select {
		case m := <-g.inbox:
			g.dispatch(m.topic, m.payload, nowMS)
		default:
			return
		}
	}
}

func (g *Gateway) dispatch(topic string, payload []byte, nowMS uint32) {
	switch topic {
	case TopicRelayCmd:
		g.handleRelayCommand(payload, nowMS)
	case TopicRunCmd:
		g.handleRunCommand(payload, nowMS)
	}
}

type relayCommandWire struct {
	Mask    *uint8 `json:"mask"`
	Channel *uint8 `json:"channel"`
	State   *bool  `json:"state"`
	CmdID   uint32 `json:"cmd_id"`
}

type relayAck struct {
	Envelope
	OK             bool   `json:"ok"`
	CmdID          uint32 `json:"cmd_id"`
	Mask           *uint8 `json:"mask,omitempty"`
	OutputsAllowed bool   `json:"outputs_allowed"`
	Err            string `json:"err,omitempty"`
}

// handleRelayCommand applies the policy from §4.5: outputs gate first,
// then absolute-mask or channel/state patch, then an ack either way.
func (g *Gateway) handleRelayCommand(payload []byte, nowMS uint32) {
	ack := relayAck{Envelope: g.envelope(nowMS)}

	var cmd relayCommandWire
	if err := json.Unmarshal(payload, &cmd); err != nil {
		ack.Err = "invalid_payload"
		g.publish(TopicRelayAck, ack, false)
		return
	}
	ack.CmdID = cmd.CmdID

	status := g.run.LastStatus()
	ack.OutputsAllowed = status.OutputsAllowed
	if !status.OutputsAllowed {
		ack.Err = "outputs_inhibited"
		g.publish(TopicRelayAck, ack, false)
		return
	}

	switch {
	case cmd.Mask != nil:
		ok := g.relay.SetMask(*cmd.Mask, nowMS)
		mask := g.relay.Mask()
		ack.OK = ok
		ack.Mask = &mask
		if !ok {
			ack.Err = "write_fail"
		}
	case cmd.Channel != nil && cmd.State != nil:
		ch := *cmd.Channel
		if ch < 1 || ch > 8 {
			ack.Err = "invalid_channel_or_write_fail"
			break
		}
		bit := uint8(1) << (ch - 1)
		current := g.relay.Mask()
		var patched uint8
		if *cmd.State {
			patched = current | bit
		} else {
			patched = current &^ bit
		}
		ok := g.relay.SetMask(patched, nowMS)
		mask := g.relay.Mask()
		ack.OK = ok
		ack.Mask = &mask
		if !ok {
			ack.Err = "invalid_channel_or_write_fail"
		}
	default:
		ack.Err = "invalid_payload"
	}

	g.publish(TopicRelayAck, ack, false)
}

type runCommandWire struct {
	Cmd   string `json:"cmd"`
	CmdID uint32 `json:"cmd_id"`
}

type runAck struct {
	Envelope
	OK             bool   `json:"ok"`
	CmdID          uint32 `json:"cmd_id"`
	State          string `json:"state"`
	Reason         string `json:"reason"`
	RunAllowed     bool   `json:"run_allowed"`
	OutputsAllowed bool   `json:"outputs_allowed"`
	Err            string `json:"err,omitempty"`
}

func (g *Gateway) handleRunCommand(payload []byte, nowMS uint32) {
	ack := runAck{Envelope: g.envelope(nowMS)}

	var cmd runCommandWire
	if err := json.Unmarshal(payload, &cmd); err != nil {
		ack.Err = "invalid_cmd"
		g.publish(TopicRunAck, ack, false)
		return
	}
	ack.CmdID = cmd.CmdID

	var command runstate.Command
	switch cmd.Cmd {
	case "start":
		command = runstate.Start
	case "stop":
		command = runstate.Stop
	case "hold":
		command = runstate.Hold
	case "reset":
		command = runstate.Reset
	default:
		ack.Err = "invalid_cmd"
		g.publish(TopicRunAck, ack, false)
		return
	}

	sys := g.health.Evaluate(nowMS)
	status, ackErr := g.run.HandleCommand(command, sys, g.din, nowMS)

	ack.OK = ackErr == ""
	ack.State = status.State.String()
	ack.Reason = status.Reason
	ack.RunAllowed = status.RunAllowed
	ack.OutputsAllowed = status.OutputsAllowed
	ack.Err = ackErr

	g.publish(TopicRunAck, ack, false)
}

func (g *Gateway) publishPeriodics(nowMS uint32) {
	if due(nowMS, &g.last.heartbeat, g.cadences.HeartbeatMS) {
		g.publishHeartbeat(nowMS)
	}
	if due(nowMS, &g.last.sysHealth, g.cadences.SysHealthMS) {
		g.publishSysHealth(nowMS)
	}
	if due(nowMS, &g.last.healthState, g.cadences.HealthStateMS) {
		g.publishHealthStates(nowMS)
	}
	if due(nowMS, &g.last.pidState, g.cadences.PidStateMS) {
		g.publishPidStates(nowMS)
	}
	if due(nowMS, &g.last.pidParams, g.cadences.PidParamsMS) {
		g.publishPidParams(nowMS)
	}
	if due(nowMS, &g.last.dinState, g.cadences.DinStateMS) {
		g.publishDinState(nowMS)
	}
	g.publishDinEventIfChanged(nowMS)
	if due(nowMS, &g.last.doutState, g.cadences.DoutStateMS) {
		g.publishDoutState(nowMS)
	}
}

func due(nowMS uint32, last *uint32, periodMS uint32) bool {
	if periodMS == 0 {
		return false
	}
	if nowMS-*last < periodMS {
		return false
	}
	*last = nowMS
	return true
}

func (g *Gateway) publishHeartbeat(nowMS uint32) {
	g.publish(TopicHeartbeat, struct {
		Envelope
		UptimeS uint32 `json:"uptime_s"`
	}{g.envelope(nowMS), (nowMS - g.startedAtMS) / 1000}, false)
}

func (g *Gateway) publishSysHealth(nowMS uint32) {
	sys := g.health.Evaluate(nowMS)
	run := g.run.LastStatus()

	g.publish(TopicSysHealth, struct {
		Envelope
		SystemState    string `json:"system_state"`
		Degraded       bool   `json:"degraded"`
		RunAllowed     bool   `json:"run_allowed"`
		OutputsAllowed bool   `json:"outputs_allowed"`
		Warn           uint16 `json:"warn"`
		Crit           uint16 `json:"crit"`
		RunState       string `json:"run_state"`
		RunReason      string `json:"reason"`
	}{
		g.envelope(nowMS),
		sys.SystemState.String(), sys.Degraded, sys.RunAllowed, sys.OutputsAllowed,
		sys.WarnCount, sys.CritCount,
		run.State.String(), run.Reason,
	}, false)
}

func (g *Gateway) publishHealthStates(nowMS uint32) {
	for _, c := range g.health.Components() {
		r := c.Report()
		g.publish(fmt.Sprintf(TopicHealthFmt, c.Name()), struct {
			Envelope
			health.Report
		}{g.envelope(nowMS), r}, false)
	}
}

func (g *Gateway) publishPidStates(nowMS uint32) {
	for _, p := range g.pids {
		g.publish(fmt.Sprintf(TopicPidFmt, p.Name()), struct {
			Envelope
			components.State
		}{g.envelope(nowMS), p.State()}, false)
	}
}

func (g *Gateway) publishPidParams(nowMS uint32) {
	for _, p := range g.pids {
		g.publish(fmt.Sprintf(TopicPidParamsFmt, p.Name()), struct {
			Envelope
			components.Params
		}{g.envelope(nowMS), p.Params()}, false)
	}
}

func (g *Gateway) publishDinState(nowMS uint32) {
	snap := g.din.Snapshot()
	g.publish(TopicDinState, struct {
		Envelope
		Mask uint8 `json:"mask"`
	}{g.envelope(nowMS), snap.Mask}, false)
}

func (g *Gateway) publishDinEventIfChanged(nowMS uint32) {
	snap := g.din.Snapshot()
	if g.havePrevDin && snap.Mask == g.prevDinMask {
		return
	}
	prev := g.prevDinMask
	g.prevDinMask = snap.Mask
	g.havePrevDin = true

	g.publish(TopicDinEvent, struct {
		Envelope
		Mask     uint8 `json:"mask"`
		PrevMask uint8 `json:"prev_mask"`
		Rising   uint8 `json:"rising"`
		Falling  uint8 `json:"falling"`
	}{g.envelope(nowMS), snap.Mask, prev, snap.Rising, snap.Falling}, false)
}

func (g *Gateway) publishDoutState(nowMS uint32) {
	g.publish(TopicDoutState, struct {
		Envelope
		Mask           uint8 `json:"mask"`
		OutputsAllowed bool  `json:"outputs_allowed"`
	}{g.envelope(nowMS), g.relay.Mask(), g.run.LastStatus().OutputsAllowed}, false)
}
