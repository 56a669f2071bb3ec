// settlement/client.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package settlement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/wire"
)

const (
	defaultReplyTimeout = 2 * time.Second
	defaultAttempts     = 3
)

// Client sends payment queries to the settlement service and matches the
// replies to them by correlation id. Run must be running for Pay to
// receive replies.
type Client struct {
	out wire.Sender
	in  wire.Receiver

	mu      sync.Mutex
	pending map[uint64]chan wire.PaymentReply
	nextID  atomic.Uint64

	ReplyTimeout time.Duration
	Attempts     int

	lg *log.Logger
}

func NewClient(out wire.Sender, in wire.Receiver, lg *log.Logger) *Client {
	c := &Client{
		out:          out,
		in:           in,
		pending:      make(map[uint64]chan wire.PaymentReply),
		ReplyTimeout: defaultReplyTimeout,
		Attempts:     defaultAttempts,
		lg:           lg.With(slog.String("service", "payment-client")),
	}
	// Start from the clock so that ids from a restarted client do not
	// collide with replies the service still remembers.
	c.nextID.Store(uint64(time.Now().UnixNano()))
	return c
}

// Pay asks the settlement service to settle all unpaid tickets of the
// airline and returns the amount settled. A query that goes unanswered
// is resent with the same id, so it is settled at most once.
func (c *Client) Pay(ctx context.Context, airline string) (int64, error) {
	airline = strings.TrimSpace(airline)
	if airline == "" {
		return 0, ErrEmptyAirline
	}

	q := wire.PaymentQuery{ID: c.nextID.Add(1), Airline: airline}
	ch := make(chan wire.PaymentReply, 1)

	c.mu.Lock()
	c.pending[q.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, q.ID)
		c.mu.Unlock()
	}()

	for attempt := range c.Attempts {
		if attempt > 0 {
			c.lg.Warn("no reply; resending query", slog.Any("query", q), slog.Int("attempt", attempt+1))
		}
		if err := c.out.Send(ctx, q); err != nil {
			return 0, fmt.Errorf("%s: %w", airline, err)
		}

		t := time.NewTimer(c.ReplyTimeout)
		select {
		case r := <-ch:
			t.Stop()
			c.lg.Info("payment settled", slog.Any("reply", r))
			return r.Amount, nil
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		case <-t.C:
		}
	}
	return 0, fmt.Errorf("%s: %w", airline, ErrNoReply)
}

// Run reads replies and routes each to the Pay call waiting on its id
// until ctx is canceled or the reply conduit is closed.
func (c *Client) Run(ctx context.Context) error {
	defer c.lg.CatchAndReportCrash()

	for {
		m, err := c.in.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, wire.ErrClosed) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		r, ok := m.(wire.PaymentReply)
		if !ok {
			c.lg.Warn("unexpected message", slog.String("schema", m.Schema().String()))
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[r.ID]
		c.mu.Unlock()
		if !ok {
			c.lg.Warn("reply for unknown query", slog.Any("reply", r))
			continue
		}
		select {
		case ch <- r:
		default:
			// Duplicate reply to a resent query.
		}
	}
}
