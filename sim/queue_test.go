// sim/queue_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"slices"
	"testing"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/rand"
)

func randomFlights(n int) []*Flight {
	r := rand.MakeSeeded(17)
	var fs []*Flight
	for i := range n {
		f := makeTestFlight(fmt.Sprintf("F%03d", i), av.Holding, av.RunwayA)
		f.Emergency = r.Percent(25)
		f.Priority = r.Intn(4)
		f.ScheduledTime = r.Intn(5)
		fs = append(fs, f)
	}
	return fs
}

func TestCompareDispatchTotalOrder(t *testing.T) {
	fs := randomFlights(40)
	for _, a := range fs {
		if CompareDispatch(a, a) != 0 {
			t.Errorf("%s does not compare equal to itself", a.ID)
		}
		for _, b := range fs {
			if a == b {
				continue
			}
			ab, ba := CompareDispatch(a, b), CompareDispatch(b, a)
			if ab == 0 || ab != -ba {
				t.Errorf("%s vs %s: compare %d and %d", a.ID, b.ID, ab, ba)
			}
			if a.Emergency && !b.Emergency && ab >= 0 {
				t.Errorf("emergency %s not before %s", a.ID, b.ID)
			}
		}
	}
}

func TestRunwayQueueSort(t *testing.T) {
	mk := func(id string, emergency bool, prio, sched int) *Flight {
		f := makeTestFlight(id, av.Holding, av.RunwayA)
		f.Emergency, f.Priority, f.ScheduledTime = emergency, prio, sched
		return f
	}
	q := RunwayQueue{
		mk("ARR001", false, 0, 0),
		mk("ARR002", false, 2, 5),
		mk("ARR003", true, 3, 9),
		mk("ARR004", false, 2, 1),
		mk("ARR005", false, 2, 1),
	}
	q.Sort(waitPerPos)

	expect := []string{"ARR003", "ARR004", "ARR005", "ARR002", "ARR001"}
	if ids := q.IDs(); !slices.Equal(ids, expect) {
		t.Errorf("got order %v, expected %v", ids, expect)
	}
	for i, f := range q {
		if f.EstimatedWait != i*30 {
			t.Errorf("%s: estimated wait %d, expected %d", f.ID, f.EstimatedWait, i*30)
		}
	}
}

func TestRunwayQueueAddEmergency(t *testing.T) {
	var q RunwayQueue
	for i := range 3 {
		f := makeTestFlight(fmt.Sprintf("ARR%03d", i+1), av.Holding, av.RunwayC)
		f.Priority = 1
		q.Add(f)
	}
	if ids := q.IDs(); !slices.Equal(ids, []string{"ARR001", "ARR002", "ARR003"}) {
		t.Fatalf("non-emergency adds reordered the queue: %v", ids)
	}

	e := makeTestFlight("ARR004", av.Holding, av.RunwayC)
	e.Emergency = true
	q.Add(e)
	if ids := q.IDs(); !slices.Equal(ids, []string{"ARR004", "ARR001", "ARR002", "ARR003"}) {
		t.Errorf("emergency not moved forward stably: %v", ids)
	}
}
