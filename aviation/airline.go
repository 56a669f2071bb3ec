// aviation/airline.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"

	"github.com/aircontrolx/aircontrolx/util"
)

// Airline is an entry in the facility's roster. Available starts out
// equal to the number of aircraft the airline may put in the air during
// a run and is decremented as flights are created; it is never restored.
type Airline struct {
	Name      string     `json:"name"`
	Type      FlightType `json:"type"`
	Aircraft  int        `json:"aircraft"`
	Available int        `json:"available"`
}

// DefaultRoster returns the airlines that operate at the facility when no
// configuration file overrides them.
func DefaultRoster() []Airline {
	return []Airline{
		{Name: "PIA", Type: Commercial, Aircraft: 6, Available: 4},
		{Name: "AirBlue", Type: Commercial, Aircraft: 4, Available: 4},
		{Name: "FedEx", Type: Cargo, Aircraft: 3, Available: 2},
		{Name: "Pakistan Airforce", Type: Emergency, Aircraft: 2, Available: 1},
		{Name: "Blue Dart", Type: Cargo, Aircraft: 2, Available: 2},
		{Name: "AghaKhan Air", Type: Emergency, Aircraft: 2, Available: 1},
	}
}

// CheckRoster validates a roster loaded from configuration.
func CheckRoster(roster []Airline, e *util.ErrorLogger) {
	seen := make(map[string]bool)
	for i, al := range roster {
		e.Push(fmt.Sprintf("airline %d", i))
		if al.Name == "" {
			e.ErrorString("airline name must be given")
		} else if seen[al.Name] {
			e.ErrorString("%s: airline given multiple times", al.Name)
		}
		seen[al.Name] = true
		if al.Aircraft <= 0 {
			e.ErrorString("aircraft count %d must be positive", al.Aircraft)
		}
		if al.Available < 0 || al.Available > al.Aircraft {
			e.ErrorString("available count %d must be between 0 and %d", al.Available, al.Aircraft)
		}
		if al.Type == VIP {
			e.ErrorString("VIP is a per-flight designation, not an airline type")
		}
		e.Pop()
	}
}
