// sim/queue.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"cmp"
	"slices"
	"strings"
)

// CompareDispatch is the full ordering used to fix dispatch order before
// a run: emergencies first, then higher priority, then earlier scheduled
// time, then flight id.
func CompareDispatch(a, b *Flight) int {
	if c := compareEmergencyPriority(a, b); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ScheduledTime, b.ScheduledTime); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// CompareEmergency orders by emergency status and then priority alone.
// It is applied with a stable sort whenever a queue's membership changes
// so that emergencies move forward without disturbing everything else.
func CompareEmergency(a, b *Flight) int {
	return compareEmergencyPriority(a, b)
}

func compareEmergencyPriority(a, b *Flight) int {
	if a.Emergency != b.Emergency {
		if a.Emergency {
			return -1
		}
		return 1
	}
	return cmp.Compare(b.Priority, a.Priority)
}

// RunwayQueue is the ordered set of flights assigned to a runway that
// have not yet been dispatched.
type RunwayQueue []*Flight

func (q *RunwayQueue) Add(f *Flight) {
	*q = append(*q, f)
	if f.Emergency {
		q.Reorder()
	}
}

// Reorder moves emergencies and higher-priority flights forward.
func (q RunwayQueue) Reorder() {
	slices.SortStableFunc(q, CompareEmergency)
}

// Sort fixes the dispatch order and updates each flight's estimated wait.
func (q RunwayQueue) Sort(waitPerSlot int) {
	slices.SortStableFunc(q, CompareDispatch)
	for i, f := range q {
		f.EstimatedWait = i * waitPerSlot
	}
}

func (q RunwayQueue) IDs() []string {
	ids := make([]string, len(q))
	for i, f := range q {
		ids[i] = f.ID
	}
	return ids
}
