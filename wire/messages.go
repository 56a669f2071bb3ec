// wire/messages.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wire

import (
	"fmt"
	"log/slog"

	av "github.com/aircontrolx/aircontrolx/aviation"
)

// Schema identifies the message type carried in a frame.
type Schema uint8

const (
	SchemaViolation Schema = iota + 1
	SchemaTicket
	SchemaPaymentQuery
	SchemaPaymentReply
)

func (s Schema) String() string {
	switch s {
	case SchemaViolation:
		return "violation"
	case SchemaTicket:
		return "ticket"
	case SchemaPaymentQuery:
		return "payment-query"
	case SchemaPaymentReply:
		return "payment-reply"
	default:
		return fmt.Sprintf("schema(%d)", uint8(s))
	}
}

type Message interface {
	Schema() Schema
}

// ViolationNotice carries one AVN from the facility to the notice
// service.
type ViolationNotice struct {
	AVN av.AVN `msgpack:"avn"`
}

func (ViolationNotice) Schema() Schema { return SchemaViolation }

func (v ViolationNotice) LogValue() slog.Value {
	return v.AVN.LogValue()
}

// BillingTicket carries a newly issued ticket from the notice service to
// the settlement service.
type BillingTicket struct {
	Ticket av.Ticket `msgpack:"ticket"`
}

func (BillingTicket) Schema() Schema { return SchemaTicket }

func (b BillingTicket) LogValue() slog.Value {
	return b.Ticket.LogValue()
}

// PaymentQuery asks the settlement service to settle all of an airline's
// unpaid tickets. ID correlates the query with its reply; a query that is
// resent keeps its ID.
type PaymentQuery struct {
	ID      uint64 `msgpack:"id"`
	Airline string `msgpack:"airline"`
}

func (PaymentQuery) Schema() Schema { return SchemaPaymentQuery }

func (q PaymentQuery) LogValue() slog.Value {
	return slog.GroupValue(slog.Uint64("id", q.ID), slog.String("airline", q.Airline))
}

// PaymentReply is the total settled in response to the query with the
// same ID.
type PaymentReply struct {
	ID      uint64 `msgpack:"id"`
	Airline string `msgpack:"airline"`
	Amount  int64  `msgpack:"amount"`
}

func (PaymentReply) Schema() Schema { return SchemaPaymentReply }

func (r PaymentReply) LogValue() slog.Value {
	return slog.GroupValue(slog.Uint64("id", r.ID), slog.String("airline", r.Airline),
		slog.Int64("amount", r.Amount))
}

func newMessage(s Schema) (Message, error) {
	switch s {
	case SchemaViolation:
		return &ViolationNotice{}, nil
	case SchemaTicket:
		return &BillingTicket{}, nil
	case SchemaPaymentQuery:
		return &PaymentQuery{}, nil
	case SchemaPaymentReply:
		return &PaymentReply{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", s, ErrUnknownSchema)
	}
}

// deref returns the message value that m points to, so that decoded
// messages can be type-switched on their value types.
func deref(m Message) Message {
	switch v := m.(type) {
	case *ViolationNotice:
		return *v
	case *BillingTicket:
		return *v
	case *PaymentQuery:
		return *v
	case *PaymentReply:
		return *v
	default:
		return m
	}
}
