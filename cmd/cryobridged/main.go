// Command cryobridged is the cryo-mill bridge daemon: it loads a YAML
// config, derives a broker identity, wires the HAL reference adapters to
// the supervisory core, and runs the fixed-rate main loop until SIGINT or
// SIGTERM stops it.
//
// Usage:
//
//	cryobridged -config /etc/cryo-bridge/bridge.yaml
//
// Flags:
//
//	-config string      Path to the YAML config file (default /etc/cryo-bridge/config.yaml)
//	-log-level string   Log level override: debug, info, warn, error
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nu-cryo/cryo-bridge/internal/bus"
	"github.com/nu-cryo/cryo-bridge/internal/components"
	"github.com/nu-cryo/cryo-bridge/internal/config"
	"github.com/nu-cryo/cryo-bridge/internal/core"
	"github.com/nu-cryo/cryo-bridge/internal/fieldbus"
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/internal/halref/gpio"
	"github.com/nu-cryo/cryo-bridge/internal/halref/mqttbus"
	"github.com/nu-cryo/cryo-bridge/internal/halref/serialbus"
	"github.com/nu-cryo/cryo-bridge/internal/health"
	"github.com/nu-cryo/cryo-bridge/internal/identity"
	"github.com/nu-cryo/cryo-bridge/internal/presence"
	"github.com/nu-cryo/cryo-bridge/internal/runstate"
	"github.com/nu-cryo/cryo-bridge/pkg/protolog"
)

// din/relay pin names are fixed for the reference hardware this daemon
// targets; a deployment with different wiring supplies its own
// internal/halref/gpio-compatible adapter instead of this binary.
var (
	dinPinNames   = []string{"GPIO17", "GPIO27", "GPIO22"}
	relayPinNames = []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"}
)

func main() {
	fs := flag.NewFlagSet("cryobridged", flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	if flags.ConfigPath == "" {
		fmt.Fprintln(os.Stderr, "cryobridged: -config is required")
		os.Exit(2)
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryobridged: %v\n", err)
		os.Exit(1)
	}
	cfg = flags.Apply(cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	loggers := []protolog.Logger{protolog.NewSlogAdapter(logger)}
	if cfg.ProtocolLogPath != "" {
		fileLogger, err := protolog.NewFileLogger(cfg.ProtocolLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cryobridged: opening protocol log: %v\n", err)
			os.Exit(1)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}
	plog := protolog.Logger(protolog.NewMultiLogger(loggers...))

	if err := run(cfg, logger, plog); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, plog protolog.Logger) error {
	secretRaw, err := hex.DecodeString(cfg.IdentitySecretHex)
	if err != nil {
		return fmt.Errorf("decoding identity_secret_hex: %w", err)
	}
	id, err := identity.Derive(secretRaw, cfg.MachineID, cfg.NodeID)
	if err != nil {
		return fmt.Errorf("deriving identity: %w", err)
	}
	logger.Info("derived broker identity", "client_id", id.ClientID)

	if err := gpio.Init(); err != nil {
		return fmt.Errorf("initializing gpio host: %w", err)
	}
	dinHAL, err := gpio.NewInputs(dinPinNames)
	if err != nil {
		return fmt.Errorf("resolving din pins: %w", err)
	}
	relayHAL, err := gpio.NewOutputs(relayPinNames)
	if err != nil {
		return fmt.Errorf("resolving relay pins: %w", err)
	}
	if !dinHAL.Begin() {
		return fmt.Errorf("starting digital inputs")
	}
	if !relayHAL.Begin() {
		return fmt.Errorf("starting relay bank")
	}

	fbus := serialbus.New()
	if !fbus.Begin(cfg.FieldbusDevice, -1) {
		return fmt.Errorf("opening fieldbus device %s", cfg.FieldbusDevice)
	}

	mgr := health.NewManager()
	runSup := runstate.NewSupervisor()

	din := components.NewDin(dinHAL)
	din.Configure(componentFlags(cfg, "din"))
	relay := components.NewRelay(relayHAL)
	relay.Configure(componentFlags(cfg, "relay"))
	eth := components.NewEth(netLink{})
	eth.Configure(componentFlags(cfg, "eth"))

	var accel *components.Accel
	accelCC := cfg.ComponentFor("accel")
	if accelCC.Expected {
		probe, err := newADXL345Probe(cfg.I2CDevice)
		if err != nil {
			return fmt.Errorf("opening i2c device %s: %w", cfg.I2CDevice, err)
		}
		accel = components.NewAccel(probe)
		accel.Configure(accelCC.Expected, accelCC.Required)
	}

	arb := fieldbus.NewArbiter()
	pids := make([]*components.PID, len(cfg.PidSlaves))
	schedPids := make([]fieldbus.PID, len(cfg.PidSlaves))
	for i, slaveCfg := range cfg.PidSlaves {
		p := components.NewPID(slaveCfg.Name, slaveCfg.SlaveID, fbus, arb)
		cc := cfg.ComponentFor(slaveCfg.Name)
		p.Configure(true, cc.Required) // every entry in pid_slaves is expected by definition
		pids[i] = p
		schedPids[i] = p
	}

	sched := fieldbus.NewScheduler(fbus, schedPids, cfg.Cadences.FieldbusStatePeriodMS, cfg.Cadences.FieldbusParamsPeriodMS)

	transport := mqttbus.New(mqttbus.Config{
		Host:        cfg.BrokerHost,
		Port:        cfg.BrokerPort,
		ClientID:    id.ClientID,
		Username:    id.ClientID,
		Password:    id.AuthToken,
		Cert:        id.Cert,
		TopicPrefix: fmt.Sprintf("cryo/%s/%s", cfg.MachineID, cfg.NodeID),
		LWTSubtopic: bus.TopicLWT,
		LWTOffline:  `{"v":1,"state":"offline"}`,
	})

	cadences := bus.Cadences{
		HeartbeatMS:   cfg.Cadences.HeartbeatPeriodMS,
		SysHealthMS:   cfg.Cadences.SysHealthPeriodMS,
		HealthStateMS: cfg.Cadences.HealthStatePeriodMS,
		PidStateMS:    cfg.Cadences.PidStatePeriodMS,
		PidParamsMS:   cfg.Cadences.PidParamsPeriodMS,
		DinStateMS:    cfg.Cadences.IoStatePeriodMS,
		DoutStateMS:   cfg.Cadences.IoStatePeriodMS,
	}
	gw := bus.New(transport, cfg.NodeID, mgr, runSup, din, relay, pids, cadences)

	clock := hal.NewSystemClock()
	loop, err := core.New(clock, mgr, runSup, sched, gw, core.Components{
		Din:   din,
		Relay: relay,
		Eth:   eth,
		Accel: accel,
		Pids:  pids,
	}, core.LoopPeriodMS)
	if err != nil {
		return fmt.Errorf("assembling core loop: %w", err)
	}
	loop.Probe(clock.NowMS())

	if !transport.Begin() {
		return fmt.Errorf("connecting to broker %s:%d", cfg.BrokerHost, cfg.BrokerPort)
	}
	nowMS := clock.NowMS()
	gw.Start(nowMS)
	gw.OnConnected(nowMS)
	logger.Info("connected to broker", "host", cfg.BrokerHost, "port", cfg.BrokerPort)

	adv := &presence.Advertiser{}
	if err := adv.Start(presence.Info{MachineID: cfg.MachineID, NodeID: cfg.NodeID, Port: cfg.BrokerPort}); err != nil {
		logger.Warn("mdns advertisement failed to start", "err", err)
	} else {
		defer adv.Stop()
	}

	plog.Log(protolog.Event{Timestamp: time.Now(), Source: cfg.NodeID, Category: protolog.CategoryRun})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	loop.Run(ctx)
	return nil
}

func componentFlags(cfg config.Config, name string) (bool, bool) {
	cc := cfg.ComponentFor(name)
	return cc.Expected, cc.Required
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
