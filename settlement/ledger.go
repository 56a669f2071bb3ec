// settlement/ledger.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package settlement

import (
	"slices"
	"strings"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/util"
)

// Ledger is the append-only list of every ticket received. Tickets are
// never removed; settling one only changes its status. Ledger does no
// locking of its own.
type Ledger struct {
	tickets []av.Ticket
}

func (l *Ledger) Add(t av.Ticket) {
	t.Status = av.Unpaid
	l.tickets = append(l.tickets, t)
}

func matchAirline(t *av.Ticket, airline string) bool {
	return strings.EqualFold(t.Airline, strings.TrimSpace(airline))
}

// Settle marks every unpaid ticket of the airline as paid and returns the
// sum of their amounts along with the tickets that were settled.
func (l *Ledger) Settle(airline string) (int64, []av.Ticket) {
	var total int64
	var settled []av.Ticket
	for i := range l.tickets {
		t := &l.tickets[i]
		if t.Status == av.Unpaid && matchAirline(t, airline) {
			t.Status = av.Paid
			total += t.Amount
			settled = append(settled, *t)
		}
	}
	return total, settled
}

// Outstanding returns the sum of the airline's unpaid tickets.
func (l *Ledger) Outstanding(airline string) int64 {
	var total int64
	for i := range l.tickets {
		if t := &l.tickets[i]; t.Status == av.Unpaid && matchAirline(t, airline) {
			total += t.Amount
		}
	}
	return total
}

// Tickets returns a copy of the airline's tickets, or of all tickets if
// airline is empty.
func (l *Ledger) Tickets(airline string) []av.Ticket {
	if airline == "" {
		return slices.Clone(l.tickets)
	}
	return util.FilterSlice(l.tickets, func(t av.Ticket) bool { return matchAirline(&t, airline) })
}

func (l *Ledger) Len() int {
	return len(l.tickets)
}
