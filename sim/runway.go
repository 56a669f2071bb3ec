// sim/runway.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"log/slog"
	"sync"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
)

// Runway x coordinates used by the status display.
const (
	overflowX  = 650
	westDepX   = 360
	eastDepX   = 450
	southArrX  = 40
	northArrX  = 200
	waitPerPos = 30 // seconds of estimated wait per queue position
)

// assignRunway picks a runway for f given the current queue lengths. The
// first matching rule wins: emergencies (including low fuel) and cargo
// go to the overflow runway; east/west departures use RunwayB and
// north/south arrivals RunwayA while their queues have room; everything
// else overflows. It must be called with the registry lock held.
func assignRunway(f *Flight, queues *[av.NumRunways]RunwayQueue, maxFlights, fuelThreshold int) av.RunwayID {
	switch {
	case f.Emergency || f.Fuel < fuelThreshold, f.Type == av.Cargo:
	case f.Departure && !f.Direction.NorthSouth() && len(queues[av.RunwayB]) < maxFlights:
		f.TargetX = eastDepX
		if f.Direction == av.West {
			f.TargetX = westDepX
		}
		f.X = f.TargetX
		return av.RunwayB
	case !f.Departure && f.Direction.NorthSouth() && len(queues[av.RunwayA]) < maxFlights:
		f.TargetX = northArrX
		if f.Direction == av.South {
			f.TargetX = southArrX
		}
		f.X = f.TargetX
		return av.RunwayA
	}
	f.TargetX = overflowX
	f.X = f.TargetX
	return av.RunwayC
}

// RunwayLock gives one flight at a time exclusive use of a runway. Turns
// are handed out at dispatch and the lock is granted strictly in turn
// order, so flights on the same runway start their active phases in the
// order the queue was sorted into.
type RunwayLock struct {
	Runway av.RunwayID

	mu     sync.Mutex
	gates  []chan struct{}
	holder string
	lg     *log.Logger
}

func NewRunwayLock(r av.RunwayID, lg *log.Logger) *RunwayLock {
	return &RunwayLock{Runway: r, lg: lg}
}

// Reset prepares the lock for n turns. It must not be called while any
// turn is outstanding.
func (l *RunwayLock) Reset(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gates = make([]chan struct{}, n)
	for i := range l.gates {
		l.gates[i] = make(chan struct{})
	}
	if n > 0 {
		close(l.gates[0])
	}
	l.holder = ""
}

// Acquire blocks until it is the given turn or ctx is canceled.
func (l *RunwayLock) Acquire(ctx context.Context, turn int, id string) error {
	l.mu.Lock()
	gate := l.gates[turn]
	l.mu.Unlock()

	select {
	case <-gate:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	if l.holder != "" {
		l.lg.Error("runway granted while held", slog.String("runway", l.Runway.String()),
			slog.String("holder", l.holder), slog.String("flight", id))
	}
	l.holder = id
	l.mu.Unlock()

	l.lg.Info("runway locked", slog.String("runway", l.Runway.String()), slog.String("flight", id))
	return nil
}

// Release gives up the runway and opens the next turn.
func (l *RunwayLock) Release(turn int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.holder
	l.holder = ""
	if next := turn + 1; next < len(l.gates) {
		select {
		case <-l.gates[next]:
			l.lg.Error("runway turn already open", slog.String("runway", l.Runway.String()),
				slog.Int("turn", next), slog.String("flight", id))
		default:
			close(l.gates[next])
		}
	}

	l.lg.Info("runway released", slog.String("runway", l.Runway.String()), slog.String("flight", id))
}

// Holder returns the id of the flight currently using the runway, if any.
func (l *RunwayLock) Holder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}
