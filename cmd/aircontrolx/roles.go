// cmd/aircontrolx/roles.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aircontrolx/aircontrolx/audit"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/notice"
	"github.com/aircontrolx/aircontrolx/rand"
	"github.com/aircontrolx/aircontrolx/server"
	"github.com/aircontrolx/aircontrolx/settlement"
	"github.com/aircontrolx/aircontrolx/sim"
	"github.com/aircontrolx/aircontrolx/wire"

	"golang.org/x/sync/errgroup"
)

// Conduit names within the FIFO directory.
const (
	avnConduit    = "avn.fifo"     // facility -> notice
	ticketConduit = "tickets.fifo" // notice -> settlement
	queryConduit  = "payq.fifo"    // facility -> settlement
	replyConduit  = "payr.fifo"    // settlement -> facility
)

type roleConfig struct {
	role        string
	facility    sim.Config
	fifoDir     string
	auditPath   string
	summaryPath string
	httpAddr    string
	script      io.Reader
	output      io.Writer
	linger      time.Duration
	rand        *rand.Rand
}

func (rc roleConfig) runs(r string) bool {
	return rc.role == "all" || rc.role == r
}

// conduits opens the named pipes between roles. When named pipes are not
// available and all roles share this process, in-memory pipes are used
// instead.
type conduits struct {
	dir   string
	pipes map[string]*pipePair
	lg    *log.Logger
}

type pipePair struct {
	s *wire.StreamSender
	r *wire.StreamReceiver
}

func (c *conduits) pipe(name string) *pipePair {
	if p, ok := c.pipes[name]; ok {
		return p
	}
	s, r := wire.Pipe()
	p := &pipePair{s: s, r: r}
	c.pipes[name] = p
	return p
}

func (c *conduits) sender(name string) (wire.Sender, error) {
	if c.pipes != nil {
		return c.pipe(name).s, nil
	}
	return wire.OpenFIFOSender(filepath.Join(c.dir, name), c.lg)
}

func (c *conduits) receiver(name string) (wire.Receiver, error) {
	if c.pipes != nil {
		return c.pipe(name).r, nil
	}
	return wire.OpenFIFOReceiver(filepath.Join(c.dir, name), c.lg)
}

// runRoles starts the services for the configured role and waits for
// them to finish. The facility role finishes once its command script has
// been run (unless the status page is being served); the services run
// until ctx is canceled.
func runRoles(ctx context.Context, rc roleConfig, lg *log.Logger) error {
	switch rc.role {
	case "all", "atc", "notice", "settlement":
	default:
		return fmt.Errorf("%s: unknown role", rc.role)
	}

	cd := &conduits{dir: rc.fifoDir, lg: lg}
	if err := wire.MakeFIFO(filepath.Join(rc.fifoDir, avnConduit)); err != nil {
		if rc.role == "all" && errors.Is(err, errors.ErrUnsupported) {
			lg.Warn("named pipes unavailable; using in-process conduits", slog.Any("error", err))
			cd.pipes = make(map[string]*pipePair)
		} else {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	var ledger *audit.Ledger
	if rc.runs("notice") || rc.runs("settlement") {
		var err error
		if ledger, err = audit.Open(rc.auditPath); err != nil {
			return err
		}
		defer ledger.Close()
	}

	var snapshots server.SnapshotSource
	var tickets server.TicketSource

	if rc.runs("notice") {
		in, err := cd.receiver(avnConduit)
		if err != nil {
			return err
		}
		out, err := cd.sender(ticketConduit)
		if err != nil {
			return err
		}
		svc := notice.NewService(in, out, ledger, lg)
		eg.Go(func() error {
			defer out.Close()
			defer in.Close()
			return svc.Run(ctx)
		})
	}

	if rc.runs("settlement") {
		tr, err := cd.receiver(ticketConduit)
		if err != nil {
			return err
		}
		qr, err := cd.receiver(queryConduit)
		if err != nil {
			return err
		}
		rs, err := cd.sender(replyConduit)
		if err != nil {
			return err
		}
		svc := settlement.NewService(tr, qr, rs, ledger, lg)
		tickets = svc
		eg.Go(func() error {
			defer rs.Close()
			defer qr.Close()
			defer tr.Close()
			return svc.Run(ctx)
		})
	}

	if rc.runs("atc") {
		summary, err := audit.Open(rc.summaryPath)
		if err != nil {
			return err
		}
		defer summary.Close()

		avnOut, err := cd.sender(avnConduit)
		if err != nil {
			return err
		}
		qs, err := cd.sender(queryConduit)
		if err != nil {
			return err
		}
		rr, err := cd.receiver(replyConduit)
		if err != nil {
			return err
		}

		s := sim.NewSim(rc.facility, rc.rand, summary, lg)
		defer s.Destroy()
		snapshots = s
		client := settlement.NewClient(qs, rr, lg)

		violations := s.Events().Subscribe()
		eg.Go(func() error {
			defer avnOut.Close()
			return s.ForwardViolations(ctx, violations, avnOut)
		})
		eg.Go(func() error {
			defer qs.Close()
			defer rr.Close()
			return client.Run(ctx)
		})
		eg.Go(func() error {
			s.PublishSnapshots(ctx)
			return nil
		})
		eg.Go(func() error {
			err := runConsole(ctx, NewConsole(s, client, lg), rc.script, rc.output)

			// Give the notice and settlement services time to handle the
			// last violations before shutting down.
			select {
			case <-time.After(rc.linger):
			case <-ctx.Done():
			}
			if rc.httpAddr == "" {
				cancel()
			}
			return err
		})
	}

	if rc.httpAddr != "" {
		srv := server.NewStatusServer(snapshots, tickets, lg)
		eg.Go(func() error { return srv.Serve(ctx, rc.httpAddr) })
	}

	return eg.Wait()
}

// runConsole runs the script, returning early if ctx is canceled while
// the script is blocked reading its input.
func runConsole(ctx context.Context, c *Console, script io.Reader, output io.Writer) error {
	done := make(chan error, 1)
	go func() { done <- c.RunScript(ctx, script, output) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}
