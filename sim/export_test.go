// sim/export_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"io"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/rand"
)

func testLogger() *log.Logger {
	return log.NewWriter(io.Discard, "warn")
}

// testConfig runs phases quickly so that whole runs fit in a test.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PhaseSeconds = 0.02
	cfg.TickHz = 500
	cfg.TimeScale = 0.001
	cfg.SnapshotMillis = 5
	return cfg
}

func testRand() *rand.Rand {
	return rand.MakeSeeded(1)
}

// NewTestSim creates a Sim with a fixed random seed and a fast clock.
func NewTestSim(summary io.Writer) *Sim {
	return NewSim(testConfig(), testRand(), summary, testLogger())
}

// makeTestFlight returns a flight that passes every check in the given
// phase on the given runway.
func makeTestFlight(id string, p av.Phase, rwy av.RunwayID) *Flight {
	env := av.EnvelopeFor(p)
	dir := av.North
	if rwy == av.RunwayB {
		dir = av.East
	}
	return &Flight{
		ID:        id,
		Airline:   "PIA",
		Type:      av.Commercial,
		Phase:     p,
		Direction: dir,
		Runway:    rwy,
		Speed:     (env.MinSpeed + env.MaxSpeed) / 2,
		Altitude:  env.SafeAltitude,
		Position:  (env.MinPosition + env.MaxPosition) / 2,
		Fuel:      80,
	}
}
