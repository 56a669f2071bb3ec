// settlement/service.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package settlement keeps the ledger of billing tickets and settles an
// airline's unpaid tickets on request.
package settlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aircontrolx/aircontrolx/audit"
	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/util"
	"github.com/aircontrolx/aircontrolx/wire"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

const (
	// Replies are remembered for this long so that a resent query is
	// answered with the original amount instead of being settled again.
	replyTTL       = 10 * time.Minute
	replyCacheSize = 256

	replySendTimeout = 5 * time.Second
)

// Service receives tickets and payment queries on separate conduits and
// handles them one at a time; settling is atomic with respect to ticket
// arrival and to readers of the ledger.
type Service struct {
	mu      util.LoggingMutex
	ledger  Ledger
	replies *expirable.LRU[uint64, wire.PaymentReply]

	tickets  wire.Receiver
	queries  wire.Receiver
	replyOut wire.Sender
	audit    *audit.Ledger
	lg       *log.Logger
}

func NewService(tickets, queries wire.Receiver, replies wire.Sender, ledger *audit.Ledger, lg *log.Logger) *Service {
	return &Service{
		mu:       util.LoggingMutex{Name: "settlement"},
		replies:  expirable.NewLRU[uint64, wire.PaymentReply](replyCacheSize, nil, replyTTL),
		tickets:  tickets,
		queries:  queries,
		replyOut: replies,
		audit:    ledger,
		lg:       lg.With(slog.String("service", "settlement")),
	}
}

// AddTicket appends t to the ledger as unpaid.
func (s *Service) AddTicket(t av.Ticket) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	s.ledger.Add(t)
	s.audit.Record("ticket", "Received %s", t)
	s.lg.Info("ticket received", slog.Any("ticket", t))
}

// Settle handles a payment query: it pays off all of the airline's unpaid
// tickets and returns the total. A query whose ID has already been
// answered gets the earlier reply again.
func (s *Service) Settle(q wire.PaymentQuery) wire.PaymentReply {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if r, ok := s.replies.Get(q.ID); ok && r.Airline == q.Airline {
		s.lg.Info("replaying reply", slog.Any("query", q), slog.Int64("amount", r.Amount))
		return r
	}

	total, settled := s.ledger.Settle(q.Airline)
	for _, t := range settled {
		s.audit.Record("settle", "Paid %s", t)
	}
	s.audit.Record("settle", "Query %d from %s: settled %d tickets for Rs.%d", q.ID, q.Airline, len(settled), total)
	s.lg.Info("settled", slog.Any("query", q), slog.Int("tickets", len(settled)), slog.Int64("amount", total))

	r := wire.PaymentReply{ID: q.ID, Airline: q.Airline, Amount: total}
	s.replies.Add(q.ID, r)
	return r
}

// Tickets returns a copy of the airline's tickets (all tickets if airline
// is empty).
func (s *Service) Tickets(airline string) []av.Ticket {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.ledger.Tickets(airline)
}

func (s *Service) Outstanding(airline string) int64 {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.ledger.Outstanding(airline)
}

// Run services both inbound conduits until ctx is canceled. Each conduit
// has its own reader goroutine; their messages are multiplexed into a
// single handling loop.
func (s *Service) Run(ctx context.Context) error {
	defer s.lg.CatchAndReportCrash()

	ticketCh := make(chan av.Ticket)
	queryCh := make(chan wire.PaymentQuery)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return pump(ctx, s.tickets, s.lg, func(m wire.Message) bool {
			if bt, ok := m.(wire.BillingTicket); ok {
				select {
				case ticketCh <- bt.Ticket:
				case <-ctx.Done():
				}
				return true
			}
			return false
		})
	})
	eg.Go(func() error {
		return pump(ctx, s.queries, s.lg, func(m wire.Message) bool {
			if q, ok := m.(wire.PaymentQuery); ok {
				select {
				case queryCh <- q:
				case <-ctx.Done():
				}
				return true
			}
			return false
		})
	})
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case t := <-ticketCh:
				s.AddTicket(t)
			case q := <-queryCh:
				if q.Airline == "" {
					s.lg.Warn("ignoring query", slog.Any("query", q), slog.Any("error", ErrEmptyAirline))
					continue
				}
				r := s.Settle(q)
				sctx, cancel := context.WithTimeout(ctx, replySendTimeout)
				err := s.replyOut.Send(sctx, r)
				cancel()
				if err != nil && ctx.Err() == nil {
					s.lg.Error("unable to send reply", slog.Any("reply", r), slog.Any("error", err))
				}
			}
		}
	})
	return eg.Wait()
}

// pump receives from r and hands each message to deliver until ctx is
// canceled or the conduit is closed. deliver returns false for messages
// of the wrong type.
func pump(ctx context.Context, r wire.Receiver, lg *log.Logger, deliver func(wire.Message) bool) error {
	for {
		m, err := r.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, wire.ErrClosed) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !deliver(m) {
			lg.Warn("unexpected message", slog.String("schema", m.Schema().String()))
		}
	}
}
