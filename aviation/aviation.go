// aviation/aviation.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"log/slog"
	"strings"
)

// FuelThreshold is the fuel percentage below which a flight is declared
// an emergency.
const FuelThreshold = 20

type FlightType int

const (
	Commercial FlightType = iota
	Cargo
	Emergency
	VIP
)

func (t FlightType) String() string {
	switch t {
	case Commercial:
		return "Commercial"
	case Cargo:
		return "Cargo"
	case Emergency:
		return "Emergency"
	case VIP:
		return "VIP"
	default:
		return fmt.Sprintf("FlightType(%d)", int(t))
	}
}

func ParseFlightType(s string) (FlightType, error) {
	for _, t := range []FlightType{Commercial, Cargo, Emergency, VIP} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return Commercial, fmt.Errorf("%s: unknown flight type", s)
}

func (t FlightType) MarshalJSON() ([]byte, error) {
	if t < Commercial || t > VIP {
		return nil, fmt.Errorf("unhandled flight type %d in MarshalJSON()", int(t))
	}
	return []byte(`"` + t.String() + `"`), nil
}

func (t *FlightType) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	ft, err := ParseFlightType(s)
	if err != nil {
		return err
	}
	*t = ft
	return nil
}

// Phase is a flight's position in its operational state machine. Arrivals
// walk Holding through AtGate; departures walk AtGate through Cruise.
type Phase int

const (
	Holding Phase = iota
	Approach
	Landing
	Taxi
	AtGate
	TakeoffRoll
	Climb
	Cruise
)

var (
	ArrivalPhases   = []Phase{Holding, Approach, Landing, Taxi, AtGate}
	DeparturePhases = []Phase{AtGate, Taxi, TakeoffRoll, Climb, Cruise}
)

// PhaseSequence returns the ordered phases that a flight walks through.
func PhaseSequence(departure bool) []Phase {
	if departure {
		return DeparturePhases
	}
	return ArrivalPhases
}

func (p Phase) String() string {
	switch p {
	case Holding:
		return "Holding"
	case Approach:
		return "Approach"
	case Landing:
		return "Landing"
	case Taxi:
		return "Taxi"
	case AtGate:
		return "At Gate"
	case TakeoffRoll:
		return "Takeoff Roll"
	case Climb:
		return "Climb"
	case Cruise:
		return "Cruise"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Status is the glyph the status display shows next to each phase.
func (p Phase) Status() string {
	return [...]string{"[~==~] Holding", "[->-] Approaching", "[>-<] Landing", "[==>] Moving on ground",
		"[||] Parked", "[=>] Accelerating", "[/^\\] Ascending", "[~~~] Cruising"}[p]
}

type Direction int

const (
	North Direction = iota
	South
	East
	West
)

func (d Direction) String() string {
	return [...]string{"North", "South", "East", "West"}[d]
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// NorthSouth reports whether the heading is on the arrival axis.
func (d Direction) NorthSouth() bool {
	return d == North || d == South
}

// RunwayID identifies one of the three physical runways. RunwayA serves
// north/south arrivals, RunwayB east/west departures, and RunwayC is the
// overflow runway used by cargo, emergencies and capacity spillover.
type RunwayID int

const (
	RunwayA RunwayID = iota
	RunwayB
	RunwayC

	NumRunways = 3
	NoRunway   = RunwayID(-1)
)

var Runways = []RunwayID{RunwayA, RunwayB, RunwayC}

func (r RunwayID) String() string {
	switch r {
	case RunwayA:
		return "RWY-A"
	case RunwayB:
		return "RWY-B"
	case RunwayC:
		return "RWY-C"
	default:
		return "NONE"
	}
}

func (r RunwayID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

type AVNStatus int

const (
	AVNInactive AVNStatus = iota
	AVNActive
)

func (s AVNStatus) String() string {
	if s == AVNActive {
		return "Active"
	}
	return "Inactive"
}

func (s AVNStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s AVNStatus) LogValue() slog.Value {
	return slog.StringValue(s.String())
}
