// sim/runway_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
)

func TestAssignRunway(t *testing.T) {
	full := make(RunwayQueue, 20)

	tests := []struct {
		name      string
		typ       av.FlightType
		departure bool
		dir       av.Direction
		emergency bool
		fuel      int
		fullQueue av.RunwayID
		expect    av.RunwayID
	}{
		{"arrival north", av.Commercial, false, av.North, false, 80, av.NoRunway, av.RunwayA},
		{"arrival south", av.Commercial, false, av.South, false, 80, av.NoRunway, av.RunwayA},
		{"departure east", av.Commercial, true, av.East, false, 100, av.NoRunway, av.RunwayB},
		{"departure west", av.Commercial, true, av.West, false, 100, av.NoRunway, av.RunwayB},
		{"emergency", av.Commercial, false, av.North, true, 80, av.NoRunway, av.RunwayC},
		{"low fuel", av.Commercial, false, av.North, false, 10, av.NoRunway, av.RunwayC},
		{"cargo arrival", av.Cargo, false, av.North, false, 80, av.NoRunway, av.RunwayC},
		{"cargo departure", av.Cargo, true, av.East, false, 100, av.NoRunway, av.RunwayC},
		{"arrival queue full", av.Commercial, false, av.South, false, 80, av.RunwayA, av.RunwayC},
		{"departure queue full", av.Commercial, true, av.West, false, 100, av.RunwayB, av.RunwayC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var queues [av.NumRunways]RunwayQueue
			if tt.fullQueue != av.NoRunway {
				queues[tt.fullQueue] = full
			}
			f := &Flight{Type: tt.typ, Departure: tt.departure, Direction: tt.dir, Emergency: tt.emergency, Fuel: tt.fuel}
			if r := assignRunway(f, &queues, 20, av.FuelThreshold); r != tt.expect {
				t.Errorf("assigned %s, expected %s", r, tt.expect)
			}
			if f.X != f.TargetX || f.TargetX == 0 {
				t.Errorf("display x not set: %f %f", f.X, f.TargetX)
			}
		})
	}
}

func TestRunwayLockSingleHolderInTurnOrder(t *testing.T) {
	const n = 8
	l := NewRunwayLock(av.RunwayA, testLogger())
	l.Reset(n)

	var active, maxActive atomic.Int32
	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	// Start them in reverse so that turn order, not start order, decides.
	for turn := n - 1; turn >= 0; turn-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background(), turn, fmt.Sprintf("F%d", turn)); err != nil {
				t.Errorf("turn %d: %v", turn, err)
				return
			}
			a := active.Add(1)
			for {
				m := maxActive.Load()
				if a <= m || maxActive.CompareAndSwap(m, a) {
					break
				}
			}
			mu.Lock()
			order = append(order, turn)
			mu.Unlock()
			if h := l.Holder(); h != fmt.Sprintf("F%d", turn) {
				t.Errorf("holder %q during turn %d", h, turn)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			l.Release(turn)
		}()
	}
	wg.Wait()

	if m := maxActive.Load(); m != 1 {
		t.Errorf("%d concurrent holders observed", m)
	}
	if !slices.Equal(order, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("runway granted out of turn: %v", order)
	}
	if h := l.Holder(); h != "" {
		t.Errorf("runway still held by %q", h)
	}
}

func TestRunwayLockAcquireCanceled(t *testing.T) {
	l := NewRunwayLock(av.RunwayC, testLogger())
	l.Reset(2)
	if err := l.Acquire(context.Background(), 0, "F0"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Acquire(ctx, 1, "F1"); err == nil {
		t.Error("acquired a runway that was held")
	}
	if h := l.Holder(); h != "F0" {
		t.Errorf("holder changed to %q", h)
	}
}

func TestRunwayLockRepeatedRelease(t *testing.T) {
	l := NewRunwayLock(av.RunwayA, testLogger())
	l.Reset(2)
	if err := l.Acquire(context.Background(), 0, "F0"); err != nil {
		t.Fatal(err)
	}
	l.Release(0)
	// A second release of the same turn must not close the next gate
	// again or leave the lock held.
	l.Release(0)

	if h := l.Holder(); h != "" {
		t.Errorf("holder %q after release", h)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Acquire(ctx, 1, "F1"); err != nil {
		t.Errorf("next turn not granted: %v", err)
	}
}
