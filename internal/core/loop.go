// Package core implements the single-goroutine main loop that ties the
// Health Manager, Run Control supervisor, fieldbus scheduler, device
// components and Bus Gateway together, per §5's concurrency model: one
// goroutine, ticking at a fixed period, with no hidden goroutines inside
// any of the types it drives.
package core

import (
	"context"
	"time"

	"github.com/nu-cryo/cryo-bridge/internal/bus"
	"github.com/nu-cryo/cryo-bridge/internal/components"
	"github.com/nu-cryo/cryo-bridge/internal/fieldbus"
	"github.com/nu-cryo/cryo-bridge/internal/hal"
	"github.com/nu-cryo/cryo-bridge/internal/health"
	"github.com/nu-cryo/cryo-bridge/internal/runstate"
)

// LoopPeriodMS is the default main-loop period (≥200 Hz), grounded on
// §5's stated minimum tick rate.
const LoopPeriodMS = 5

// Loop owns every long-lived piece of the supervisory core and drives
// them from one goroutine.
type Loop struct {
	clock hal.Clock

	health *health.Manager
	run    *runstate.Supervisor
	sched  *fieldbus.Scheduler
	gw     *bus.Gateway

	din   *components.Din
	relay *components.Relay
	eth   *components.Eth
	accel *components.Accel
	pids  []*components.PID

	periodMS uint32
}

// Components bundles every health.Component the caller has constructed,
// so New doesn't need a long positional parameter list.
type Components struct {
	Din   *components.Din
	Relay *components.Relay
	Eth   *components.Eth
	Accel *components.Accel // nil if not configured
	Pids  []*components.PID
}

// New wires a Loop from already-constructed components, a fieldbus
// scheduler, and a Bus Gateway. Registration with the Health Manager
// happens here, in the fixed order din/relay/eth/accel/pids, so
// Manager.Add's "already registered" error would only ever fire on a
// caller bug.
func New(clock hal.Clock, mgr *health.Manager, run *runstate.Supervisor, sched *fieldbus.Scheduler, gw *bus.Gateway, comps Components, periodMS uint32) (*Loop, error) {
	l := &Loop{
		clock:    clock,
		health:   mgr,
		run:      run,
		sched:    sched,
		gw:       gw,
		din:      comps.Din,
		relay:    comps.Relay,
		eth:      comps.Eth,
		accel:    comps.Accel,
		pids:     comps.Pids,
		periodMS: periodMS,
	}

	for _, c := range []health.Component{l.din, l.relay, l.eth} {
		if err := mgr.Add(c); err != nil {
			return nil, err
		}
	}
	if l.accel != nil {
		if err := mgr.Add(l.accel); err != nil {
			return nil, err
		}
	}
	for _, p := range l.pids {
		if err := mgr.Add(p); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Probe runs every component's one-shot detection pass. Call once after
// New, before the Bus Gateway connects.
func (l *Loop) Probe(nowMS uint32) {
	l.din.Probe(nowMS)
	l.relay.Probe(nowMS)
	l.eth.Probe(nowMS)
	if l.accel != nil {
		l.accel.Probe(nowMS)
	}
	for _, p := range l.pids {
		p.Probe(nowMS)
	}
}

// Tick runs exactly one pass of the supervisory loop: components refresh,
// the fieldbus scheduler pumps, health is aggregated, run state resolves
// against the fresh inputs, and the Bus Gateway drains/publishes.
//
// Call this on a fixed-period timer (LoopPeriodMS by default); Tick itself
// does not block or sleep.
func (l *Loop) Tick(nowMS uint32) {
	l.din.Tick(nowMS)
	l.relay.Tick(nowMS)
	l.eth.Tick(nowMS)
	if l.accel != nil {
		l.accel.Tick(nowMS)
	}

	l.sched.Tick(nowMS)

	sys := l.health.Evaluate(nowMS)
	l.run.Update(sys, l.din, nowMS)

	l.gw.Tick(nowMS)
}

// Run blocks, calling Tick once per periodMS until ctx is cancelled. This
// is meant to be the body of the process's one supervisory goroutine;
// every type Run drives is itself goroutine-free. It selects on ctx.Done()
// and a time.Ticker, so a cancelled ctx ends it between ticks.
func (l *Loop) Run(ctx context.Context) {
	period := time.Duration(l.periodMS) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(l.clock.NowMS())
		}
	}
}
