// wire/conduit_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wire

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPipe(t *testing.T) {
	s, r := Pipe()
	defer s.Close()

	go func() {
		for i := range 5 {
			s.Send(context.Background(), PaymentQuery{ID: uint64(i), Airline: "PIA"})
		}
	}()

	for i := range 5 {
		m, err := r.Receive(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if q, ok := m.(PaymentQuery); !ok || q.ID != uint64(i) {
			t.Errorf("message %d: got %+v", i, m)
		}
	}
}

func TestReceiveCanceled(t *testing.T) {
	s, r := Pipe()
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(10*time.Millisecond, 50*time.Millisecond)
	var got []time.Duration
	for range 5 {
		got = append(got, b.Next())
	}
	expect := []time.Duration{10, 20, 40, 50, 50}
	for i := range expect {
		if got[i] != expect[i]*time.Millisecond {
			t.Errorf("delay %d: got %s, expected %s", i, got[i], expect[i]*time.Millisecond)
		}
	}
	b.Reset()
	if d := b.Next(); d != 10*time.Millisecond {
		t.Errorf("after reset got %s", d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewBackoff(time.Hour, time.Hour).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled, got %v", err)
	}
}
