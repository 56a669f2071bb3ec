// sim/summary.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"io"
	"strings"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/util"
)

// WriteSummary appends the end-of-run tally for the given flights: one
// line per flight followed by the totals.
func WriteSummary(w io.Writer, flights []Flight, now time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "===== Simulation summary %s =====\n", now.Format(time.DateTime))

	avns, runwayViolations, emergencies := 0, 0, 0
	byAirline := make(map[string]int)
	for _, f := range flights {
		rv := 0
		if !av.RunwayCompatible(f.Runway, f.Direction, f.Type, f.Emergency) {
			rv = 1
		}
		fmt.Fprintf(&b, "Flight %s | Airline: %s | Type: %s | AVN: %d | Violations: %d | Fuel: %d%%\n",
			f.ID, f.Airline, f.Type, f.AVNCount, rv, f.Fuel)

		avns += f.AVNCount
		byAirline[f.Airline] += f.AVNCount
		runwayViolations += rv
		if f.Emergency {
			emergencies++
		}
	}
	fmt.Fprintf(&b, "Total AVN Triggers: %d\n", avns)
	fmt.Fprintf(&b, "Total Violations: %d\n", runwayViolations)
	fmt.Fprintf(&b, "Emergency Landings: %d\n", emergencies)
	for _, al := range util.SortedMapKeys(byAirline) {
		fmt.Fprintf(&b, "AVN Triggers for %s: %d\n", al, byAirline[al])
	}

	_, err := io.WriteString(w, b.String())
	return err
}
