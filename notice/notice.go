// notice/notice.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package notice implements the notice and fine service: it consumes
// airspace violation notices, records them in the audit ledger and issues
// a billing ticket for each one that carries a fine.
package notice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aircontrolx/aircontrolx/audit"
	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/wire"
)

const (
	// DueAfter is the payment window from the time the violation was
	// detected.
	DueAfter = 72 * time.Hour

	AdminFeePercent = 15
)

var baseFines = map[av.FlightType]int64{
	av.Commercial: 500000,
	av.Cargo:      700000,
}

// Fine returns the base fine and administrative fee for a violation by
// a flight of the given type. ok is false for types that are not fined.
func Fine(t av.FlightType) (base, fee int64, ok bool) {
	base, ok = baseFines[t]
	return base, base * AdminFeePercent / 100, ok
}

// Service turns violation notices into billing tickets. Notices are
// handled one at a time in arrival order.
type Service struct {
	in     wire.Receiver
	out    wire.Sender
	ledger *audit.Ledger
	nextID int64
	lg     *log.Logger
}

func NewService(in wire.Receiver, out wire.Sender, ledger *audit.Ledger, lg *log.Logger) *Service {
	return &Service{
		in:     in,
		out:    out,
		ledger: ledger,
		nextID: 1,
		lg:     lg.With(slog.String("service", "notice")),
	}
}

// Issue records the AVN and returns the ticket for it. It returns false
// if the flight type carries no fine.
func (s *Service) Issue(a av.AVN) (av.Ticket, bool) {
	e := av.EnvelopeFor(a.Phase)
	s.ledger.Record("avn", "Airline: %s | Flight: %s | Type: %s | Phase: %s | %s violation | "+
		"Speed: %d (%d-%d) | Altitude: %d (safe %d, max %d) | Position: %d (%d-%d) | Detected: %s",
		a.Airline, a.FlightID, a.Type, a.Phase, a.Kind,
		a.Speed, e.MinSpeed, e.MaxSpeed, a.Altitude, e.SafeAltitude, e.MaxAltitude,
		a.Position, e.MinPosition, e.MaxPosition, a.Time.Format(time.DateTime))

	base, fee, ok := Fine(a.Type)
	if !ok {
		s.ledger.Record("fine", "%s %s: no fine applicable to %s flights", a.Airline, a.FlightID, a.Type)
		s.lg.Info("no fine", slog.Any("avn", a))
		return av.Ticket{}, false
	}

	t := av.Ticket{
		ID:       s.nextID,
		Airline:  a.Airline,
		FlightID: a.FlightID,
		Type:     a.Type,
		Kind:     a.Kind,
		Base:     base,
		Fee:      fee,
		Amount:   base + fee,
		Issued:   a.Time,
		Due:      a.Time.Add(DueAfter),
		Status:   av.Unpaid,
	}
	s.nextID++

	s.ledger.Record("fine", "Ticket %d | Airline: %s | Flight: %s | Base: Rs.%d | Admin fee (%d%%): Rs.%d | "+
		"Total: Rs.%d | Due: %s | %s", t.ID, t.Airline, t.FlightID, t.Base, AdminFeePercent, t.Fee,
		t.Amount, t.Due.Format(time.DateTime), t.Status)
	s.lg.Info("ticket issued", slog.Any("ticket", t))
	return t, true
}

// Run consumes notices until ctx is canceled or the inbound conduit is
// closed. Tickets are forwarded without waiting for any acknowledgment; a
// ticket that cannot be delivered is logged and dropped.
func (s *Service) Run(ctx context.Context) error {
	defer s.lg.CatchAndReportCrash()

	for {
		m, err := s.in.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, wire.ErrClosed) || errors.Is(err, io.EOF) {
				s.lg.Info("notice service stopping", slog.Any("reason", err))
				return nil
			}
			return fmt.Errorf("notice: %w", err)
		}

		v, ok := m.(wire.ViolationNotice)
		if !ok {
			s.lg.Warn("unexpected message", slog.String("schema", m.Schema().String()))
			continue
		}

		t, ok := s.Issue(v.AVN)
		if !ok {
			continue
		}
		if err := s.out.Send(ctx, wire.BillingTicket{Ticket: t}); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.lg.Error("unable to forward ticket", slog.Any("ticket", t), slog.Any("error", err))
		}
	}
}
