// sim/sim.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/rand"

	"github.com/brunoga/deep"
	"golang.org/x/sync/errgroup"
)

// Sim is the air traffic control facility: the flight registry, the
// runway locks, the per-flight tasks that run during a simulation run
// and the violation detector they drive.
type Sim struct {
	cfg      Config
	reg      *Registry
	runways  [av.NumRunways]*RunwayLock
	events   *EventStream
	detector *Detector
	rand     *rand.Rand // guarded by reg.mu

	// summary receives the per-run flight tally; it may be nil.
	summary io.Writer

	runMu   sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc

	snapshot atomic.Pointer[Snapshot]

	lg *log.Logger
}

func NewSim(cfg Config, r *rand.Rand, summary io.Writer, lg *log.Logger) *Sim {
	es := NewEventStream(lg)
	s := &Sim{
		cfg:      cfg,
		reg:      newRegistry(cfg.Airlines),
		events:   es,
		detector: NewDetector(es, lg),
		rand:     r,
		summary:  summary,
		lg:       lg,
	}
	for _, rwy := range av.Runways {
		s.runways[rwy] = NewRunwayLock(rwy, lg)
	}
	s.publish()
	return s
}

func (s *Sim) Config() Config {
	return s.cfg
}

// Events returns the facility's event stream; violation events posted to
// it carry the AVN to be forwarded to the notice service.
func (s *Sim) Events() *EventStream {
	return s.events
}

func (s *Sim) Running() bool {
	return s.running.Load()
}

// AddFlight creates a new flight for the requested airline, assigns its
// runway and places it in that runway's wait queue. Flights added while a
// run is in progress wait for the next run.
func (s *Sim) AddFlight(req FlightRequest) (Flight, error) {
	s.reg.mu.Lock(s.lg)
	defer s.reg.mu.Unlock(s.lg)

	if len(s.reg.flights) >= s.cfg.Capacity {
		return Flight{}, ErrRegistryFull
	}
	idx, err := s.reg.lookupAirlineNoLock(req.Airline)
	if err != nil {
		return Flight{}, err
	}
	al := &s.reg.airlines[idx]
	if al.Available <= 0 {
		return Flight{}, fmt.Errorf("%s: %w", al.Name, ErrNoAircraftAvailable)
	}
	al.Available--

	s.reg.seq++
	f := s.generateFlightNoLock(*al, req.Departure, s.reg.seq)
	f.Runway = assignRunway(f, &s.reg.queues, s.cfg.MaxFlights, s.cfg.FuelThreshold)

	if f.Type == av.Commercial && s.rand.Percent(50) {
		f.VIP = true
	}
	if f.Emergency || f.VIP {
		f.Priority = 3
	} else if req.Priority < 0 || req.Priority > 2 {
		s.lg.Warn("invalid priority; using 0", slog.Int("priority", req.Priority), slog.String("flight", f.ID))
		f.Priority = 0
	} else {
		f.Priority = req.Priority
	}
	f.ScheduledTime = max(0, req.ScheduledTime)

	s.reg.flights = append(s.reg.flights, f)
	s.reg.enqueueNoLock(f)

	s.lg.Info("flight added", slog.Any("flight", f))
	s.events.Post(Event{Type: FlightAddedEvent, FlightID: f.ID, Runway: f.Runway})
	s.publishNoLock()

	return *f, nil
}

func (s *Sim) generateFlightNoLock(al av.Airline, departure bool, seq int) *Flight {
	f := &Flight{
		Airline:   al.Name,
		Type:      al.Type,
		Departure: departure,
		Runway:    av.NoRunway,
	}
	if departure {
		f.ID = fmt.Sprintf("DEP%03d", seq)
		f.Fuel = 100
		f.Phase = av.AtGate
		f.Direction = av.East
		if s.rand.Bool() {
			f.Direction = av.West
		}
	} else {
		f.ID = fmt.Sprintf("ARR%03d", seq)
		f.Fuel = s.rand.Range(0, 100)
		f.Position = s.rand.Range(300, 700)
		f.Altitude = 9000
		f.Phase = av.Holding
		f.Direction = av.North
		if s.rand.Bool() {
			f.Direction = av.South
		}
	}
	if f.Fuel < s.cfg.FuelThreshold || al.Type == av.Emergency {
		f.Emergency = true
		f.Priority = 3
	}
	f.Y = initialY(f.Direction, departure)
	f.TargetY = phaseTargetY(f.Phase, f.Direction, departure)
	return f
}

// Run dispatches every queued flight and blocks until all of their tasks
// have finished or ctx is canceled. Within each runway, flights take the
// runway in the order fixed by sorting the queue at dispatch.
func (s *Sim) Run(ctx context.Context) error {
	s.runMu.Lock()
	if !s.running.CompareAndSwap(false, true) {
		s.runMu.Unlock()
		return ErrRunInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.runMu.Unlock()

	defer func() {
		s.runMu.Lock()
		s.running.Store(false)
		s.cancel = nil
		s.runMu.Unlock()
		cancel()
	}()

	dispatches := s.dispatch()
	if len(dispatches) == 0 {
		return ErrNoFlights
	}
	s.lg.Info("run started", slog.Int("flights", len(dispatches)))
	s.events.Post(Event{Type: RunStartedEvent, Message: fmt.Sprintf("%d flights", len(dispatches))})

	eg, ctx := errgroup.WithContext(ctx)
	for _, d := range dispatches {
		eg.Go(func() error { return s.runFlight(ctx, d) })
	}
	err := eg.Wait()

	s.reg.mu.Lock(s.lg)
	retired := s.reg.retireNoLock()
	summary := make([]Flight, len(retired))
	for i, f := range retired {
		summary[i] = *f
	}
	s.publishNoLock()
	s.reg.mu.Unlock(s.lg)

	if s.summary != nil {
		if werr := WriteSummary(s.summary, summary, time.Now()); werr != nil {
			s.lg.Error("unable to write summary", slog.Any("error", werr))
		}
	}

	s.lg.Info("run finished", slog.Int("flights", len(retired)))
	s.lg.Debug("retired", log.AnyPointerSlice("flights", retired))
	s.events.Post(Event{Type: RunFinishedEvent, Message: fmt.Sprintf("%d flights", len(retired))})
	return err
}

// dispatch sorts the runway queues, fixes each flight's turn on its
// runway and empties the queues.
func (s *Sim) dispatch() []dispatch {
	s.reg.mu.Lock(s.lg)
	defer s.reg.mu.Unlock(s.lg)

	var ds []dispatch
	for _, rwy := range av.Runways {
		q := s.reg.queues[rwy]
		q.Sort(waitPerPos)
		q.Reorder()

		lock := s.runways[rwy]
		lock.Reset(len(q))
		for i, f := range q {
			f.Dispatched = true
			ds = append(ds, dispatch{flight: f, lock: lock, turn: i, rand: s.rand.Fork()})
		}
		s.reg.queues[rwy] = nil
	}
	s.publishNoLock()
	return ds
}

// Stop ends the current run, if any. Flight tasks notice at their next
// tick and release their runways; the run is still in progress until Run
// has joined all of them.
func (s *Sim) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.cancel != nil {
		s.lg.Info("run stopped")
		s.cancel()
	}
}

func (s *Sim) active(ctx context.Context) bool {
	return ctx.Err() == nil && s.running.Load()
}

// Airlines returns a copy of the roster with current availability.
func (s *Sim) Airlines() []av.Airline {
	s.reg.mu.Lock(s.lg)
	defer s.reg.mu.Unlock(s.lg)
	return slices.Clone(s.reg.airlines)
}

// Flight returns a copy of the flight with the given id.
func (s *Sim) Flight(id string) (Flight, error) {
	s.reg.mu.Lock(s.lg)
	defer s.reg.mu.Unlock(s.lg)

	if f := s.reg.lookupFlightNoLock(id); f != nil {
		return deep.MustCopy(*f), nil
	}
	return Flight{}, fmt.Errorf("%s: %w", id, ErrUnknownFlight)
}

// Destroy releases the event stream's monitor goroutine.
func (s *Sim) Destroy() {
	s.Stop()
	s.events.Destroy()
}
