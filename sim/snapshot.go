// sim/snapshot.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"
)

// Snapshot is an immutable copy of the facility's state. Observers such
// as the status display read snapshots rather than taking the registry
// lock.
type Snapshot struct {
	Time          time.Time
	Running       bool
	Flights       []Flight
	Queues        [av.NumRunways][]string
	RunwayHolders [av.NumRunways]string
	Airlines      []av.Airline
}

// ActiveViolation lists the checks that a flight currently fails.
type ActiveViolation struct {
	FlightID string
	Airline  string
	Phase    av.Phase
	AVNCount int
	Findings []Finding
}

// Snapshot returns the most recently published snapshot.
func (s *Sim) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *Sim) publish() {
	s.reg.mu.Lock(s.lg)
	defer s.reg.mu.Unlock(s.lg)
	s.publishNoLock()
}

func (s *Sim) publishNoLock() {
	snap := &Snapshot{
		Time:     time.Now(),
		Running:  s.running.Load(),
		Flights:  make([]Flight, 0, len(s.reg.flights)),
		Airlines: deep.MustCopy(s.reg.airlines),
	}
	for _, f := range s.reg.flights {
		snap.Flights = append(snap.Flights, deep.MustCopy(*f))
	}
	for _, rwy := range av.Runways {
		snap.Queues[rwy] = s.reg.queues[rwy].IDs()
		snap.RunwayHolders[rwy] = s.runways[rwy].Holder()
	}
	s.snapshot.Store(snap)
}

// PublishSnapshots republishes the facility snapshot at the configured
// interval until ctx is canceled.
func (s *Sim) PublishSnapshots(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SnapshotInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publish()
		}
	}
}

// ActiveViolations recomputes the failing checks for every flight in the
// snapshot from its recorded state.
func (sn *Snapshot) ActiveViolations() []ActiveViolation {
	var viol []ActiveViolation
	for i := range sn.Flights {
		f := &sn.Flights[i]
		if fs := evaluate(f); len(fs) > 0 {
			viol = append(viol, ActiveViolation{
				FlightID: f.ID,
				Airline:  f.Airline,
				Phase:    f.Phase,
				AVNCount: f.AVNCount,
				Findings: fs,
			})
		}
	}
	return viol
}

// Lookup returns the flight with the given id, if present.
func (sn *Snapshot) Lookup(id string) (Flight, bool) {
	for _, f := range sn.Flights {
		if f.ID == id {
			return f, true
		}
	}
	return Flight{}, false
}

// Dump returns a human-readable rendering of the snapshot for debugging.
func (sn *Snapshot) Dump() string {
	return godump.DumpStr(sn)
}
