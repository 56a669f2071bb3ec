// sim/detector_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"slices"
	"strings"
	"testing"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
)

func makeTestDetector() (*Detector, *EventsSubscription) {
	es := NewEventStream(testLogger())
	return NewDetector(es, testLogger()), es.Subscribe()
}

func violationEvents(sub *EventsSubscription) []Event {
	var v []Event
	for _, e := range sub.Get() {
		if e.Type == ViolationEvent {
			v = append(v, e)
		}
	}
	return v
}

func TestHoldingOverspeed(t *testing.T) {
	d, sub := makeTestDetector()
	f := makeTestFlight("ARR001", av.Holding, av.RunwayA)
	f.Speed = 650

	now := time.Now()
	violated, msg := d.Check(f, now)
	if !violated {
		t.Fatal("650 km/h in holding not detected")
	}
	if !strings.Contains(msg, "Speed Violation: 650") {
		t.Errorf("unexpected message %q", msg)
	}
	if f.AVNStatus != av.AVNActive {
		t.Errorf("AVN status %s, expected Active", f.AVNStatus)
	}
	if f.AVNCount != 1 {
		t.Errorf("AVN count %d, expected 1", f.AVNCount)
	}
	if f.Speed != 525 {
		t.Errorf("speed corrected to %d, expected 525", f.Speed)
	}
	if f.LastAVN == nil || !f.LastAVN.Time.Equal(now) || f.LastAVN.Speed != 650 {
		t.Errorf("last AVN not recorded: %+v", f.LastAVN)
	}

	ev := violationEvents(sub)
	if len(ev) != 1 {
		t.Fatalf("got %d violation events, expected 1", len(ev))
	}
	if a := ev[0].AVN; a == nil || a.Speed != 650 || a.Kind != av.SpeedViolation || a.FlightID != "ARR001" {
		t.Errorf("unexpected AVN %+v", a)
	}
}

func TestDetectorIdempotent(t *testing.T) {
	d, sub := makeTestDetector()
	f := makeTestFlight("DEP001", av.Climb, av.RunwayB)
	f.Speed = 600
	f.Altitude = 20000
	f.Position = 20

	if violated, _ := d.Check(f, time.Now()); !violated {
		t.Fatal("expected violations")
	}
	if f.AVNCount != 3 {
		t.Fatalf("AVN count %d after three failed checks", f.AVNCount)
	}
	if violated, msg := d.Check(f, time.Now()); violated {
		t.Errorf("corrected flight still in violation: %s", msg)
	}
	if f.AVNCount != 3 {
		t.Errorf("AVN count changed to %d on second check", f.AVNCount)
	}
	if n := len(violationEvents(sub)); n != 3 {
		t.Errorf("got %d violation events, expected 3", n)
	}
}

func TestCorrectionLandsInEnvelope(t *testing.T) {
	for _, p := range slices.Concat(av.ArrivalPhases, av.DeparturePhases) {
		d, _ := makeTestDetector()
		f := makeTestFlight("F", p, av.RunwayC)
		f.Speed, f.Altitude, f.Position = 5000, 90000, 5000
		d.Check(f, time.Now())

		for _, fd := range evaluate(f) {
			t.Errorf("%s: residual %s after correction", p, fd.Message)
		}
	}
}

func TestRunwayViolationIsInformational(t *testing.T) {
	d, sub := makeTestDetector()
	f := makeTestFlight("DEP002", av.Taxi, av.RunwayB)
	f.Type = av.Cargo

	violated, msg := d.Check(f, time.Now())
	if !violated || !strings.Contains(msg, "Runway Violation: RWY-B") {
		t.Fatalf("cargo on RWY-B not reported: %v %q", violated, msg)
	}
	if f.AVNCount != 0 || f.AVNStatus != av.AVNInactive {
		t.Errorf("runway violation triggered an AVN: count %d status %s", f.AVNCount, f.AVNStatus)
	}
	if n := len(violationEvents(sub)); n != 0 {
		t.Errorf("runway violation posted %d events", n)
	}
}

func TestAVNActivatedOnce(t *testing.T) {
	d, sub := makeTestDetector()
	f := makeTestFlight("ARR002", av.Approach, av.RunwayA)
	for range 3 {
		f.Speed = 100
		d.Check(f, time.Now())
	}

	activations := 0
	for _, e := range sub.Get() {
		if e.Type == AVNActivatedEvent {
			activations++
		}
	}
	if activations != 1 {
		t.Errorf("AVN activated %d times", activations)
	}
	if f.AVNCount != 3 {
		t.Errorf("AVN count %d, expected 3", f.AVNCount)
	}
}
