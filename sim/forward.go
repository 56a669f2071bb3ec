// sim/forward.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"log/slog"
	"time"

	"github.com/aircontrolx/aircontrolx/wire"
)

const forwardInterval = 20 * time.Millisecond

// ForwardViolations sends the AVN of every violation event received by
// sub to out, in the order they were posted, until ctx is canceled. The
// caller subscribes before starting any run so that no violation is
// posted unobserved; sub is unsubscribed on return. Notices that cannot
// be delivered are logged and dropped.
func (s *Sim) ForwardViolations(ctx context.Context, sub *EventsSubscription, out wire.Sender) error {
	defer s.lg.CatchAndReportCrash()
	defer sub.Unsubscribe()

	ticker := time.NewTicker(forwardInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for _, e := range sub.Get() {
			if e.Type != ViolationEvent || e.AVN == nil {
				continue
			}
			if err := out.Send(ctx, wire.ViolationNotice{AVN: *e.AVN}); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.lg.Error("unable to forward violation", slog.Any("avn", *e.AVN), slog.Any("error", err))
			}
		}
	}
}
