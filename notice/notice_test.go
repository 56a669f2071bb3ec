// notice/notice_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package notice

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aircontrolx/aircontrolx/audit"
	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/wire"
)

func TestFine(t *testing.T) {
	for _, test := range []struct {
		t     av.FlightType
		total int64
		ok    bool
	}{
		{av.Commercial, 575000, true},
		{av.Cargo, 805000, true},
		{av.Emergency, 0, false},
		{av.VIP, 0, false},
	} {
		base, fee, ok := Fine(test.t)
		if ok != test.ok || base+fee != test.total {
			t.Errorf("%s: got %d+%d (%v), expected %d (%v)", test.t, base, fee, ok, test.total, test.ok)
		}
	}
}

func TestService(t *testing.T) {
	var ledger bytes.Buffer
	inS, inR := wire.Pipe()
	outS, outR := wire.Pipe()
	svc := NewService(inR, outS, audit.New(&ledger), log.NewWriter(io.Discard, "warn"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error)
	go func() { done <- svc.Run(ctx) }()

	detected := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	avns := []av.AVN{
		{FlightID: "ARR001", Airline: "PIA", Type: av.Commercial, Phase: av.Holding, Kind: av.SpeedViolation, Speed: 650, Time: detected},
		{FlightID: "DEP002", Airline: "Pakistan Airforce", Type: av.Emergency, Phase: av.Climb, Kind: av.AltitudeViolation, Time: detected},
		{FlightID: "ARR003", Airline: "FedEx", Type: av.Cargo, Phase: av.Approach, Kind: av.PositionViolation, Time: detected.Add(time.Minute)},
	}
	go func() {
		for _, a := range avns {
			if err := inS.Send(ctx, wire.ViolationNotice{AVN: a}); err != nil {
				t.Error(err)
				return
			}
		}
		inS.Close()
	}()

	expect := []struct {
		id      int64
		airline string
		amount  int64
		due     time.Time
	}{
		{1, "PIA", 575000, detected.Add(72 * time.Hour)},
		{2, "FedEx", 805000, detected.Add(time.Minute + 72*time.Hour)},
	}
	for _, e := range expect {
		m, err := outR.Receive(ctx)
		if err != nil {
			t.Fatal(err)
		}
		tk := m.(wire.BillingTicket).Ticket
		if tk.ID != e.id || tk.Airline != e.airline || tk.Amount != e.amount || tk.Status != av.Unpaid {
			t.Errorf("got ticket %s, expected %d %s %d", tk, e.id, e.airline, e.amount)
		}
		if !tk.Due.Equal(e.due) {
			t.Errorf("ticket %d due %s, expected %s", tk.ID, tk.Due, e.due)
		}
	}

	if err := <-done; err != nil {
		t.Errorf("service returned %v", err)
	}

	out := ledger.String()
	if n := strings.Count(out, "[AVN]"); n != len(avns) {
		t.Errorf("%d AVN audit records, expected %d", n, len(avns))
	}
	if !strings.Contains(out, "no fine applicable to Emergency flights") {
		t.Errorf("emergency flight not recorded:\n%s", out)
	}
	if !strings.Contains(out, "Total: Rs.805000") {
		t.Errorf("cargo fine not recorded:\n%s", out)
	}
}
