// Command cryoctl is an operator diagnostic REPL for a running
// cryobridged node: it connects to the same broker with its own derived
// identity, mirrors every state/health/pid topic into memory, and lets an
// operator send relay/run commands and inspect their acks interactively.
//
// Usage:
//
//	cryoctl -config /etc/cryo-bridge/config.yaml
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/nu-cryo/cryo-bridge/internal/bus"
	"github.com/nu-cryo/cryo-bridge/internal/config"
	"github.com/nu-cryo/cryo-bridge/internal/halref/mqttbus"
	"github.com/nu-cryo/cryo-bridge/internal/identity"
)

func main() {
	fs := flag.NewFlagSet("cryoctl", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryoctl: %v\n", err)
		os.Exit(1)
	}

	secretRaw, err := hex.DecodeString(cfg.IdentitySecretHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryoctl: decoding identity_secret_hex: %v\n", err)
		os.Exit(1)
	}
	// cryoctl derives its own distinct client identity from the same
	// provisioned secret by using a different node_id suffix, so its
	// broker session never collides with the daemon's own connection.
	id, err := identity.Derive(secretRaw, cfg.MachineID, cfg.NodeID+"-ctl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryoctl: deriving identity: %v\n", err)
		os.Exit(1)
	}

	// A fresh UUID suffix keeps concurrent cryoctl sessions from
	// colliding on one MQTT client id; unlike the daemon's own
	// connection, this session has no persistent state worth keeping
	// stable across restarts.
	sessionClientID := id.ClientID + "-" + uuid.New().String()

	prefix := fmt.Sprintf("cryo/%s/%s", cfg.MachineID, cfg.NodeID)
	mon := newMonitor(prefix)
	transport := mqttbus.New(mqttbus.Config{
		Host:        cfg.BrokerHost,
		Port:        cfg.BrokerPort,
		ClientID:    sessionClientID,
		Username:    id.ClientID,
		Password:    id.AuthToken,
		Cert:        id.Cert,
		TopicPrefix: prefix,
	})
	transport.SetHandler(mon.record)
	if !transport.Begin() {
		fmt.Fprintf(os.Stderr, "cryoctl: failed to connect to %s:%d\n", cfg.BrokerHost, cfg.BrokerPort)
		os.Exit(1)
	}
	for _, topic := range subscribeTopics {
		transport.Subscribe(topic)
	}

	rl, err := readline.New("cryoctl> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryoctl: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	repl := &repl{transport: transport, mon: mon}
	repl.printHelp()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !repl.dispatch(line) {
			return
		}
	}
}

var subscribeTopics = []string{
	bus.TopicHeartbeat,
	bus.TopicSysHealth,
	bus.TopicDinState,
	bus.TopicDinEvent,
	bus.TopicDoutState,
	bus.TopicRelayAck,
	bus.TopicRunAck,
	bus.TopicLWT,
	bus.TopicBoot,
	"health/+/state",
	"pid/+/state",
	"pid/+/params",
}

// monitor mirrors the last payload seen on every subscribed topic, keyed
// by the bare subtopic (the broker callback hands back the full,
// prefixed topic, so record trims it back off before storing).
type monitor struct {
	mu     sync.Mutex
	prefix string
	last   map[string][]byte
}

func newMonitor(prefix string) *monitor {
	return &monitor{prefix: prefix, last: make(map[string][]byte)}
}

func (m *monitor) record(topic string, payload []byte) {
	topic = strings.TrimPrefix(topic, m.prefix+"/")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[topic] = append([]byte(nil), payload...)
}

func (m *monitor) get(topic string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.last[topic]
	return v, ok
}

type repl struct {
	transport *mqttbus.Bus
	mon       *monitor
}

var nextCmdID uint32

func newCmdID() uint32 {
	return atomic.AddUint32(&nextCmdID, 1)
}

// dispatch runs one command line. Returns false to exit the REPL.
func (r *repl) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch strings.ToLower(cmd) {
	case "help", "?":
		r.printHelp()
	case "quit", "exit":
		return false
	case "status":
		r.show(bus.TopicSysHealth)
	case "din":
		r.show(bus.TopicDinState)
	case "boot":
		r.show(bus.TopicBoot)
	case "health":
		if len(args) != 1 {
			fmt.Println("usage: health <component>")
			break
		}
		r.show(fmt.Sprintf(bus.TopicHealthFmt, args[0]))
	case "pid":
		if len(args) != 1 {
			fmt.Println("usage: pid <name>")
			break
		}
		r.show(fmt.Sprintf(bus.TopicPidFmt, args[0]))
	case "pidparams":
		if len(args) != 1 {
			fmt.Println("usage: pidparams <name>")
			break
		}
		r.show(fmt.Sprintf(bus.TopicPidParamsFmt, args[0]))
	case "relaymask":
		r.relayMask(args)
	case "relaych":
		r.relayChannel(args)
	case "run":
		r.runCommand(args)
	default:
		fmt.Printf("unknown command %q (try help)\n", cmd)
	}
	return true
}

func (r *repl) show(topic string) {
	payload, ok := r.mon.get(topic)
	if !ok {
		fmt.Printf("%s: no message received yet\n", topic)
		return
	}
	fmt.Printf("%s: %s\n", topic, payload)
}

func (r *repl) relayMask(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: relaymask <hex-mask>")
		return
	}
	raw, err := strconv.ParseUint(args[0], 16, 8)
	if err != nil {
		fmt.Printf("invalid mask: %v\n", err)
		return
	}
	mask := uint8(raw)
	cmdID := newCmdID()
	r.publishAndWait(bus.TopicRelayCmd, bus.TopicRelayAck, struct {
		Mask  uint8  `json:"mask"`
		CmdID uint32 `json:"cmd_id"`
	}{Mask: mask, CmdID: cmdID})
}

func (r *repl) relayChannel(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: relaych <channel 1-8> <on|off>")
		return
	}
	ch, err := strconv.Atoi(args[0])
	if err != nil || ch < 1 || ch > 8 {
		fmt.Println("channel must be 1-8")
		return
	}
	state := strings.EqualFold(args[1], "on")
	cmdID := newCmdID()
	r.publishAndWait(bus.TopicRelayCmd, bus.TopicRelayAck, struct {
		Channel uint8  `json:"channel"`
		State   bool   `json:"state"`
		CmdID   uint32 `json:"cmd_id"`
	}{Channel: uint8(ch), State: state, CmdID: cmdID})
}

func (r *repl) runCommand(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: run <start|stop|hold|reset>")
		return
	}
	cmdID := newCmdID()
	r.publishAndWait(bus.TopicRunCmd, bus.TopicRunAck, struct {
		Cmd   string `json:"cmd"`
		CmdID uint32 `json:"cmd_id"`
	}{Cmd: args[0], CmdID: cmdID})
}

// publishAndWait sends v on cmdTopic and polls the ack topic briefly for a
// reply matching a fresh cmd_id, since the diagnostic REPL has no shared
// completion-callback machinery to hook into.
func (r *repl) publishAndWait(cmdTopic, ackTopic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("encoding command: %v\n", err)
		return
	}
	var sent struct {
		CmdID uint32 `json:"cmd_id"`
	}
	_ = json.Unmarshal(payload, &sent)
	if !r.transport.Publish(cmdTopic, payload, false, 1) {
		fmt.Println("publish failed")
		return
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ack, ok := r.mon.get(ackTopic); ok {
			var got struct {
				CmdID uint32 `json:"cmd_id"`
			}
			if json.Unmarshal(ack, &got) == nil && got.CmdID == sent.CmdID {
				fmt.Printf("%s: %s\n", ackTopic, ack)
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	fmt.Println("no ack received within timeout")
}

func (r *repl) printHelp() {
	fmt.Println(`commands:
  status                    show sys/health
  din                        show io/din/state
  boot                       show status/boot
  health <component>         show health/<component>/state
  pid <name>                 show pid/<name>/state
  pidparams <name>           show pid/<name>/params
  relaymask <hex-mask>       publish an absolute relay mask command
  relaych <ch 1-8> <on|off>  publish a relay channel patch command
  run <start|stop|hold|reset>  publish a run command
  help                       show this message
  quit                       exit`)
}
