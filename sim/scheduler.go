// sim/scheduler.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"log/slog"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/rand"
	"github.com/aircontrolx/aircontrolx/util"
)

// lerpRate is how quickly (per second) a flight's display position
// closes on its phase target.
const lerpRate = 0.3

// phaseProfile gives the ranges that flights are randomly placed in when
// they enter a phase. They are intentionally wider than the safety
// envelope so that the detector has work to do.
type phaseProfile struct {
	speed, altitude, position [2]int
}

var profiles = map[av.Phase]phaseProfile{
	av.Holding:     {speed: [2]int{350, 650}, altitude: [2]int{8000, 17000}, position: [2]int{200, 800}},
	av.Approach:    {speed: [2]int{220, 310}, altitude: [2]int{1500, 11499}, position: [2]int{0, 900}},
	av.Landing:     {speed: [2]int{30, 260}, altitude: [2]int{0, 4499}, position: [2]int{0, 299}},
	av.Taxi:        {speed: [2]int{10, 40}, altitude: [2]int{0, 1}, position: [2]int{0, 69}},
	av.AtGate:      {speed: [2]int{0, 0}, altitude: [2]int{0, 1}, position: [2]int{0, 69}},
	av.TakeoffRoll: {speed: [2]int{0, 320}, altitude: [2]int{0, 149}, position: [2]int{0, 249}},
	av.Climb:       {speed: [2]int{230, 480}, altitude: [2]int{900, 31000}, position: [2]int{50, 900}},
	av.Cruise:      {speed: [2]int{750, 950}, altitude: [2]int{25000, 45000}, position: [2]int{50, 1150}},
}

// enterPhase moves f into phase p and randomizes its dynamics. It must be
// called with the registry lock held.
func enterPhase(f *Flight, p av.Phase, r *rand.Rand) {
	f.Phase = p
	prof := profiles[p]
	f.Speed = r.Range(prof.speed[0], prof.speed[1])
	f.Altitude = r.Range(prof.altitude[0], prof.altitude[1])
	f.Position = r.Range(prof.position[0], prof.position[1])
	if f.Departure && p == av.AtGate {
		f.Altitude = 0
	}
	f.TargetY = phaseTargetY(p, f.Direction, f.Departure)
}

// phaseTargetY returns the display y coordinate a flight heads toward
// while in the given phase.
func phaseTargetY(p av.Phase, d av.Direction, departure bool) float32 {
	if d == av.South || d == av.West {
		switch p {
		case av.Holding:
			return 351
		case av.Approach:
			return 201
		case av.Landing:
			return 101
		case av.Taxi:
			return util.Select[float32](departure, 450, 51)
		case av.AtGate:
			return util.Select[float32](departure, 550, 20)
		case av.TakeoffRoll:
			return 250
		case av.Climb:
			return 150
		case av.Cruise:
			return 50
		}
	} else {
		switch p {
		case av.Holding:
			return 20
		case av.Approach:
			return 250
		case av.Landing:
			return 400
		case av.Taxi:
			return util.Select[float32](departure, 150, 501)
		case av.AtGate:
			return util.Select[float32](departure, 20, 600)
		case av.TakeoffRoll:
			return 250
		case av.Climb:
			return 400
		case av.Cruise:
			return 550
		}
	}
	return 500
}

// initialY is where a newly created flight is drawn.
func initialY(d av.Direction, departure bool) float32 {
	if d == av.North || d == av.East {
		return 250
	}
	return util.Select[float32](departure, 300, 380)
}

// dispatch is a single flight's place in a run.
type dispatch struct {
	flight *Flight
	lock   *RunwayLock
	turn   int
	rand   *rand.Rand
}

// runFlight drives one flight through its phase sequence. It waits out
// the flight's scheduled delay, takes its turn on the runway and holds
// the runway until the terminal phase has run. It returns early, still
// releasing the runway, when ctx is canceled or the run is stopped.
func (s *Sim) runFlight(ctx context.Context, d dispatch) error {
	f := d.flight
	lg := s.lg.With(slog.String("flight", f.ID))
	defer lg.CatchAndReportCrash()

	s.reg.mu.Lock(s.lg)
	if f.Priority == 0 {
		if f.Emergency {
			f.Priority = 2
		} else if f.VIP || f.Fuel < s.cfg.FuelThreshold+10 {
			f.Priority = 1
		}
	}
	delay := s.cfg.ScheduledDelay(f.ScheduledTime)
	lg.Info("scheduled", slog.Duration("delay", delay), slog.Int("priority", f.Priority))
	s.reg.mu.Unlock(s.lg)

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil
		}
	}

	s.reg.mu.Lock(s.lg)
	if f.Fuel < s.cfg.FuelThreshold && !f.Emergency {
		f.Emergency = true
		lg.Warn("low fuel emergency", slog.Int("fuel", f.Fuel))
	}
	s.reg.mu.Unlock(s.lg)

	if err := d.lock.Acquire(ctx, d.turn, f.ID); err != nil {
		return nil
	}
	s.events.Post(Event{Type: RunwayAcquiredEvent, FlightID: f.ID, Runway: d.lock.Runway})
	defer func() {
		s.events.Post(Event{Type: RunwayReleasedEvent, FlightID: f.ID, Runway: d.lock.Runway})
		d.lock.Release(d.turn)
	}()

	for _, p := range av.PhaseSequence(f.Departure) {
		if !s.active(ctx) {
			return nil
		}

		s.reg.mu.Lock(s.lg)
		enterPhase(f, p, d.rand)
		if (p == av.Taxi || p == av.AtGate) && d.rand.Percent(s.cfg.FaultPercent) {
			f.HasFault = true
			lg.Warn("ground fault", slog.String("phase", p.String()))
			s.events.Post(Event{Type: FaultEvent, FlightID: f.ID, Phase: p})
		}
		s.events.Post(Event{Type: PhaseChangeEvent, FlightID: f.ID, Phase: p})
		s.reg.mu.Unlock(s.lg)

		s.tickPhase(ctx, f)
	}

	completed := s.active(ctx)
	s.reg.mu.Lock(s.lg)
	f.Completed = completed
	s.reg.mu.Unlock(s.lg)

	if completed {
		s.events.Post(Event{Type: FlightCompletedEvent, FlightID: f.ID, Phase: f.Phase})
	}
	return nil
}

// tickPhase runs the fixed-duration loop for the flight's current phase:
// each tick moves the flight toward its display target and runs the
// violation checks. The registry lock is held only within a tick.
func (s *Sim) tickPhase(ctx context.Context, f *Flight) {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	start := time.Now()
	last := start
	for s.active(ctx) {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		s.reg.mu.Lock(s.lg)
		f.Y = util.Lerp(util.Clamp(lerpRate*dt, 0, 1), f.Y, f.TargetY)
		s.detector.Check(f, now)
		s.reg.mu.Unlock(s.lg)

		if now.Sub(start) >= s.cfg.PhaseDuration() {
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
