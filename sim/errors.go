// sim/errors.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
)

var (
	ErrNoAircraftAvailable = errors.New("No available aircraft for this airline")
	ErrNoFlights           = errors.New("No flights to simulate")
	ErrRegistryFull        = errors.New("Maximum flight limit reached")
	ErrRunInProgress       = errors.New("Simulation already running")
	ErrUnknownAirline      = errors.New("Unknown airline")
	ErrUnknownFlight       = errors.New("Unknown flight")
)
