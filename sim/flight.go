// sim/flight.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"log/slog"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/util"
)

// Flight is the mutable record for a single flight. Flights are owned by
// the Registry and all access to their fields must happen with the
// registry lock held; each is referenced by at most one flight task.
type Flight struct {
	ID        string
	Airline   string
	Type      av.FlightType
	Phase     av.Phase
	Direction av.Direction
	Runway    av.RunwayID

	Speed    int // km/h
	Altitude int // feet
	Position int
	Fuel     int // percent

	HasFault  bool
	Emergency bool
	Departure bool
	VIP       bool

	AVNStatus av.AVNStatus
	AVNCount  int
	// LastAVN is the most recent notice raised for the flight.
	LastAVN *av.AVN

	Priority      int
	ScheduledTime int // seconds after dispatch
	EstimatedWait int // seconds

	// Rendering coordinates; the scheduler interpolates Y toward TargetY.
	X, Y             float32
	TargetX, TargetY float32

	Dispatched bool
	Completed  bool
}

func (f *Flight) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", f.ID),
		slog.String("airline", f.Airline),
		slog.String("type", f.Type.String()),
		slog.String("phase", f.Phase.String()),
		slog.String("runway", f.Runway.String()),
		slog.Int("speed", f.Speed),
		slog.Int("altitude", f.Altitude),
		slog.Int("position", f.Position),
		slog.Int("fuel", f.Fuel),
		slog.Int("priority", f.Priority),
		slog.Bool("emergency", f.Emergency))
}

func (f *Flight) String() string {
	return fmt.Sprintf("%s (%s) %s %s | %s | Fuel: %d%% | Runway: %s | Wait: %ds", f.ID, f.Airline, f.Type,
		util.Select(f.Departure, "DEPARTURE", "ARRIVAL"), f.Phase, f.Fuel, f.Runway, f.EstimatedWait)
}

// avn returns the violation notice for a failed check of the given kind.
func (f *Flight) avn(kind av.ViolationKind, now time.Time) av.AVN {
	return av.AVN{
		FlightID:  f.ID,
		Airline:   f.Airline,
		Type:      f.Type,
		Phase:     f.Phase,
		Direction: f.Direction,
		Runway:    f.Runway,
		Kind:      kind,
		Speed:     f.Speed,
		Altitude:  f.Altitude,
		Position:  f.Position,
		Fuel:      f.Fuel,
		Emergency: f.Emergency,
		VIP:       f.VIP,
		Count:     f.AVNCount,
		Time:      now,
	}
}

// FlightRequest is what the operator supplies when adding a flight.
type FlightRequest struct {
	Airline       string
	Departure     bool
	Priority      int
	ScheduledTime int
}
