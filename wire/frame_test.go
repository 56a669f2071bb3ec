// wire/frame_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wire

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
)

func TestEncodeDecode(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	for _, m := range []Message{
		ViolationNotice{AVN: av.AVN{FlightID: "ARR003", Airline: "PIA", Type: av.Commercial, Phase: av.Holding,
			Kind: av.SpeedViolation, Speed: 650, Altitude: 9000, Position: 512, Count: 1, Time: now}},
		BillingTicket{Ticket: av.Ticket{ID: 7, Airline: "FedEx", FlightID: "DEP002", Type: av.Cargo,
			Base: 700000, Fee: 105000, Amount: 805000, Issued: now, Due: now.Add(72 * time.Hour)}},
		PaymentQuery{ID: 42, Airline: "PIA"},
		PaymentReply{ID: 42, Airline: "PIA", Amount: 1380000},
	} {
		t.Run(m.Schema().String(), func(t *testing.T) {
			frame, err := Encode(m)
			if err != nil {
				t.Fatal(err)
			}
			h, err := ParseHeader(frame)
			if err != nil {
				t.Fatal(err)
			}
			if h.Schema != m.Schema() || h.Version != Version || int(h.Length) != len(frame)-HeaderSize {
				t.Errorf("unexpected header %+v for %d byte frame", h, len(frame))
			}

			got, err := Decode(frame)
			if err != nil {
				t.Fatal(err)
			}
			switch want := m.(type) {
			case ViolationNotice:
				g := got.(ViolationNotice)
				if !g.AVN.Time.Equal(want.AVN.Time) {
					t.Errorf("time %v, expected %v", g.AVN.Time, want.AVN.Time)
				}
				g.AVN.Time = want.AVN.Time
				if g != want {
					t.Errorf("got %+v, expected %+v", g, want)
				}
			case BillingTicket:
				g := got.(BillingTicket)
				if !g.Ticket.Due.Equal(want.Ticket.Due) || !g.Ticket.Issued.Equal(want.Ticket.Issued) {
					t.Errorf("dates %v %v, expected %v %v", g.Ticket.Issued, g.Ticket.Due, want.Ticket.Issued, want.Ticket.Due)
				}
				g.Ticket.Issued, g.Ticket.Due = want.Ticket.Issued, want.Ticket.Due
				if g != want {
					t.Errorf("got %+v, expected %+v", g, want)
				}
			default:
				if got != m {
					t.Errorf("got %+v, expected %+v", got, m)
				}
			}
		})
	}
}

func TestLargeFramesCompressed(t *testing.T) {
	q := PaymentQuery{ID: 1, Airline: strings.Repeat("Pakistan Airforce ", 200)}
	frame, err := Encode(q)
	if err != nil {
		t.Fatal(err)
	}
	h, err := ParseHeader(frame)
	if err != nil {
		t.Fatal(err)
	}
	if h.Flags&FlagZstd == 0 {
		t.Errorf("%d byte body not compressed", h.Length)
	}
	if len(frame) > len(q.Airline) {
		t.Errorf("compressed frame %d bytes larger than payload", len(frame))
	}
	if got, err := Decode(frame); err != nil || got != q {
		t.Errorf("round trip failed: %v", err)
	}

	small, _ := Encode(PaymentQuery{ID: 2, Airline: "PIA"})
	if h, _ := ParseHeader(small); h.Flags&FlagZstd != 0 {
		t.Error("small frame compressed")
	}
}

func TestBadFrames(t *testing.T) {
	good, err := Encode(PaymentQuery{ID: 3, Airline: "AirBlue"})
	if err != nil {
		t.Fatal(err)
	}
	corrupt := func(f func(b []byte)) []byte {
		b := bytes.Clone(good)
		f(b)
		return b
	}

	for _, test := range []struct {
		name  string
		frame []byte
		err   error
	}{
		{"magic", corrupt(func(b []byte) { b[0] = 0 }), ErrBadMagic},
		{"version", corrupt(func(b []byte) { b[2] = 9 }), ErrBadVersion},
		{"schema", corrupt(func(b []byte) { b[3] = 77 }), ErrUnknownSchema},
		{"length", corrupt(func(b []byte) { b[8] = 0xff }), ErrFrameTooLarge},
		{"truncated", good[:len(good)-2], io.ErrUnexpectedEOF},
		{"header", good[:5], io.ErrUnexpectedEOF},
	} {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Decode(test.frame); !errors.Is(err, test.err) {
				t.Errorf("expected %v, got %v", test.err, err)
			}
		})
	}
}

func TestReadMessageStream(t *testing.T) {
	var buf bytes.Buffer
	for i := range 3 {
		if err := WriteMessage(&buf, PaymentReply{ID: uint64(i), Amount: int64(i) * 575000}); err != nil {
			t.Fatal(err)
		}
	}
	stream := buf.Bytes()

	r := bytes.NewReader(stream)
	for i := range 3 {
		m, err := ReadMessage(r)
		if err != nil {
			t.Fatal(err)
		}
		if rep := m.(PaymentReply); rep.ID != uint64(i) || rep.Amount != int64(i)*575000 {
			t.Errorf("frame %d: got %+v", i, rep)
		}
	}
	if _, err := ReadMessage(r); err != io.EOF {
		t.Errorf("expected io.EOF at frame boundary, got %v", err)
	}

	r = bytes.NewReader(stream[:len(stream)-1])
	for range 2 {
		if _, err := ReadMessage(r); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ReadMessage(r); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF mid-frame, got %v", err)
	}
}
