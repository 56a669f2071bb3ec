// sim/detector.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
)

// Finding is a single failed check against a flight's current state.
type Finding struct {
	Kind    av.ViolationKind
	Message string
}

// evaluate runs all of the checks against f without modifying it. Speed,
// position and altitude are checked against the envelope for f's phase;
// the runway check reports assignments that are inconsistent with f's
// heading or with the cargo runway policy.
func evaluate(f *Flight) []Finding {
	var fs []Finding
	env := av.EnvelopeFor(f.Phase)

	if env.SpeedViolation(f.Speed) {
		fs = append(fs, Finding{
			Kind:    av.SpeedViolation,
			Message: fmt.Sprintf("Speed Violation: %d km/h (Safe: %d-%d)", f.Speed, env.MinSpeed, env.MaxSpeed),
		})
	}
	if env.PositionViolation(f.Position) {
		fs = append(fs, Finding{
			Kind: av.PositionViolation,
			Message: fmt.Sprintf("Position Violation: %d (Safe: %d-%d)", f.Position, env.MinPosition,
				env.MaxPosition),
		})
	}
	if env.AltitudeViolation(f.Altitude) {
		fs = append(fs, Finding{
			Kind:    av.AltitudeViolation,
			Message: fmt.Sprintf("Altitude Violation: %d ft (Safe: %d ft)", f.Altitude, env.SafeAltitude),
		})
	}
	if !av.RunwayCompatible(f.Runway, f.Direction, f.Type, f.Emergency) {
		fs = append(fs, Finding{
			Kind:    av.RunwayViolation,
			Message: fmt.Sprintf("Runway Violation: %s (Direction: %s)", f.Runway, f.Direction),
		})
	}
	return fs
}

// Detector checks flights against their safety envelopes, nudges them
// back toward compliance and posts a ViolationEvent for each speed,
// position or altitude check that fails.
type Detector struct {
	events *EventStream
	lg     *log.Logger
}

func NewDetector(events *EventStream, lg *log.Logger) *Detector {
	return &Detector{events: events, lg: lg}
}

// Check must be called with the registry lock held. It returns whether
// any check failed along with a message describing all of the failures.
func (d *Detector) Check(f *Flight, now time.Time) (bool, string) {
	fs := evaluate(f)
	if len(fs) == 0 {
		return false, ""
	}

	env := av.EnvelopeFor(f.Phase)
	var msgs []string
	for _, v := range fs {
		msgs = append(msgs, v.Message)
		if v.Kind == av.RunwayViolation {
			// Informational only: no notice and no correction.
			continue
		}

		d.activate(f)
		f.AVNCount++
		avn := f.avn(v.Kind, now)
		d.events.Post(Event{Type: ViolationEvent, FlightID: f.ID, AVN: &avn, Message: v.Message})
		last := avn
		f.LastAVN = &last

		switch v.Kind {
		case av.SpeedViolation:
			f.Speed = env.CorrectSpeed(f.Speed)
		case av.PositionViolation:
			f.Position = env.CorrectPosition(f.Position)
		case av.AltitudeViolation:
			f.Altitude = env.CorrectAltitude(f.Altitude)
		}
	}

	msg := strings.Join(msgs, "; ")
	d.lg.Debug("violation", slog.Any("flight", f), slog.String("message", msg))
	return true, msg
}

func (d *Detector) activate(f *Flight) {
	if f.AVNStatus == av.AVNInactive {
		f.AVNStatus = av.AVNActive
		d.lg.Info("AVN activated", slog.String("flight", f.ID))
		d.events.Post(Event{Type: AVNActivatedEvent, FlightID: f.ID})
	}
}
