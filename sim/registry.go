// sim/registry.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/util"
)

// Registry holds every flight that has been added and not yet retired,
// the airline roster and the per-runway wait queues. A single lock
// guards all of it; methods with a NoLock suffix must be called with
// that lock held.
type Registry struct {
	mu       util.LoggingMutex
	flights  []*Flight
	airlines []av.Airline
	queues   [av.NumRunways]RunwayQueue
	seq      int
}

func newRegistry(airlines []av.Airline) *Registry {
	return &Registry{
		mu:       util.LoggingMutex{Name: "registry"},
		airlines: slices.Clone(airlines),
	}
}

// lookupAirlineNoLock resolves an airline by roster index or by name;
// names are matched without regard to case or spaces.
func (r *Registry) lookupAirlineNoLock(s string) (int, error) {
	if idx, err := strconv.Atoi(s); err == nil {
		if idx < 0 || idx >= len(r.airlines) {
			return 0, fmt.Errorf("%d: %w", idx, ErrUnknownAirline)
		}
		return idx, nil
	}

	norm := func(s string) string { return strings.ToLower(strings.ReplaceAll(s, " ", "")) }
	for i, al := range r.airlines {
		if norm(al.Name) == norm(s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s: %w", s, ErrUnknownAirline)
}

func (r *Registry) lookupFlightNoLock(id string) *Flight {
	for _, f := range r.flights {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// enqueueNoLock adds f to its runway's wait queue.
func (r *Registry) enqueueNoLock(f *Flight) {
	r.queues[f.Runway].Add(f)
}

// retireNoLock removes flights that have been dispatched and returns
// them.
func (r *Registry) retireNoLock() []*Flight {
	var retired []*Flight
	r.flights = slices.DeleteFunc(r.flights, func(f *Flight) bool {
		if f.Dispatched {
			retired = append(retired, f)
			return true
		}
		return false
	})
	return retired
}
