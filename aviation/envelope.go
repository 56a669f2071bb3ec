// aviation/envelope.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

// AltitudeTolerance is how far (in feet) a flight may stray from its
// phase's safe altitude before it is in violation.
const AltitudeTolerance = 500

// Envelope is the safety envelope for a single phase of flight. Speeds
// are in km/h, altitudes in feet; positions are in the simulation's
// abstract distance units.
type Envelope struct {
	MinSpeed, MaxSpeed       int
	MaxAltitude              int
	SafeAltitude             int
	MinPosition, MaxPosition int
}

var envelopes = map[Phase]Envelope{
	Holding:     {MinSpeed: 400, MaxSpeed: 600, MaxAltitude: 15000, SafeAltitude: 9000, MinPosition: 200, MaxPosition: 400},
	Approach:    {MinSpeed: 240, MaxSpeed: 290, MaxAltitude: 10000, SafeAltitude: 3000, MinPosition: 100, MaxPosition: 300},
	Landing:     {MinSpeed: 30, MaxSpeed: 240, MaxAltitude: 3000, SafeAltitude: 1000, MinPosition: 50, MaxPosition: 200},
	Taxi:        {MinSpeed: 15, MaxSpeed: 30, MaxAltitude: 0, SafeAltitude: 0, MinPosition: 10, MaxPosition: 50},
	AtGate:      {MinSpeed: 0, MaxSpeed: 0, MaxAltitude: 0, SafeAltitude: 0, MinPosition: 0, MaxPosition: 10},
	TakeoffRoll: {MinSpeed: 0, MaxSpeed: 290, MaxAltitude: 100, SafeAltitude: 0, MinPosition: 0, MaxPosition: 100},
	Climb:       {MinSpeed: 250, MaxSpeed: 463, MaxAltitude: 30000, SafeAltitude: 15000, MinPosition: 100, MaxPosition: 500},
	Cruise:      {MinSpeed: 800, MaxSpeed: 900, MaxAltitude: 40000, SafeAltitude: 35000, MinPosition: 500, MaxPosition: 1000},
}

// permissive is returned for phases without a table entry. Live flights
// never reach it.
var permissive = Envelope{MinSpeed: 0, MaxSpeed: 0, MaxAltitude: 0, SafeAltitude: 0, MinPosition: 0, MaxPosition: 1000}

// EnvelopeFor returns the safety envelope for the given phase.
func EnvelopeFor(p Phase) Envelope {
	if e, ok := envelopes[p]; ok {
		return e
	}
	return permissive
}

func MinAllowedSpeed(p Phase) int { return EnvelopeFor(p).MinSpeed }
func MaxAllowedSpeed(p Phase) int { return EnvelopeFor(p).MaxSpeed }
func MaxAllowedAltitude(p Phase) int { return EnvelopeFor(p).MaxAltitude }
func SafeAltitude(p Phase) int { return EnvelopeFor(p).SafeAltitude }

func SafePositionRange(p Phase) (int, int) {
	e := EnvelopeFor(p)
	return e.MinPosition, e.MaxPosition
}

func (e Envelope) SpeedViolation(speed int) bool {
	return speed < e.MinSpeed || speed > e.MaxSpeed
}

func (e Envelope) PositionViolation(pos int) bool {
	return pos < e.MinPosition || pos > e.MaxPosition
}

func (e Envelope) AltitudeViolation(alt int) bool {
	d := alt - e.SafeAltitude
	return d > AltitudeTolerance || d < -AltitudeTolerance
}

// CorrectSpeed moves an out-of-envelope speed halfway from the minimum
// allowed speed toward the current one; if that still leaves it outside
// the envelope, the envelope's midpoint is used.
func (e Envelope) CorrectSpeed(speed int) int {
	if e.MinSpeed == e.MaxSpeed {
		return e.MinSpeed
	}
	d := speed - e.MinSpeed
	if d < 0 {
		d = -d
	}
	s := e.MinSpeed + d/2
	if e.SpeedViolation(s) {
		s = (e.MinSpeed + e.MaxSpeed) / 2
	}
	return s
}

// CorrectAltitude returns an altitude half the tolerance away from the
// safe altitude, on the same side as alt.
func (e Envelope) CorrectAltitude(alt int) int {
	if alt < e.SafeAltitude {
		return e.SafeAltitude - AltitudeTolerance/2
	}
	return e.SafeAltitude + AltitudeTolerance/2
}

// CorrectPosition returns a position a quarter of the way into the safe
// range from whichever boundary pos fell past.
func (e Envelope) CorrectPosition(pos int) int {
	q := (e.MaxPosition - e.MinPosition) / 4
	if pos < e.MinPosition {
		return e.MinPosition + q
	}
	return e.MaxPosition - q
}

// RunwayCompatible reports whether a flight with the given heading and
// type may use the runway. North/south traffic uses RunwayA or the
// overflow runway, east/west traffic RunwayB or the overflow runway, and
// cargo must use the overflow runway unless it is an emergency.
func RunwayCompatible(r RunwayID, d Direction, t FlightType, emergency bool) bool {
	var axisOK bool
	switch d {
	case North, South:
		axisOK = r == RunwayA || r == RunwayC
	case East, West:
		axisOK = r == RunwayB || r == RunwayC
	}
	cargoOK := t != Cargo || r == RunwayC || emergency
	return axisOK && cargoOK
}
