// aviation/avn.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"log/slog"
	"time"
)

type ViolationKind int

const (
	SpeedViolation ViolationKind = iota
	PositionViolation
	AltitudeViolation
	RunwayViolation
)

func (k ViolationKind) String() string {
	return [...]string{"Speed", "Position", "Altitude", "Runway"}[k]
}

func (k ViolationKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// AVN (airspace violation notice) is the state of a flight at the moment
// one of its speed, position or altitude checks failed. The values are
// the ones that were observed, before any correction was applied.
type AVN struct {
	FlightID  string        `msgpack:"flight_id" json:"flight_id"`
	Airline   string        `msgpack:"airline" json:"airline"`
	Type      FlightType    `msgpack:"type" json:"type"`
	Phase     Phase         `msgpack:"phase" json:"phase"`
	Direction Direction     `msgpack:"direction" json:"direction"`
	Runway    RunwayID      `msgpack:"runway" json:"runway"`
	Kind      ViolationKind `msgpack:"kind" json:"kind"`
	Speed     int           `msgpack:"speed" json:"speed"`
	Altitude  int           `msgpack:"altitude" json:"altitude"`
	Position  int           `msgpack:"position" json:"position"`
	Fuel      int           `msgpack:"fuel" json:"fuel"`
	Emergency bool          `msgpack:"emergency" json:"emergency"`
	VIP       bool          `msgpack:"vip" json:"vip"`
	Count     int           `msgpack:"count" json:"count"`
	Time      time.Time     `msgpack:"time" json:"time"`
}

func (a AVN) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("flight", a.FlightID),
		slog.String("airline", a.Airline),
		slog.String("type", a.Type.String()),
		slog.String("phase", a.Phase.String()),
		slog.String("kind", a.Kind.String()),
		slog.Int("speed", a.Speed),
		slog.Int("altitude", a.Altitude),
		slog.Int("position", a.Position),
		slog.Time("time", a.Time))
}

type TicketStatus int

const (
	Unpaid TicketStatus = iota
	Paid
)

func (s TicketStatus) String() string {
	if s == Paid {
		return "Paid"
	}
	return "Unpaid"
}

func (s TicketStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Ticket is the bill raised for a single AVN. Amounts are in whole
// rupees: the base fine plus the administrative fee.
type Ticket struct {
	ID       int64         `msgpack:"id" json:"id"`
	Airline  string        `msgpack:"airline" json:"airline"`
	FlightID string        `msgpack:"flight_id" json:"flight_id"`
	Type     FlightType    `msgpack:"type" json:"type"`
	Kind     ViolationKind `msgpack:"kind" json:"kind"`
	Base     int64         `msgpack:"base" json:"base"`
	Fee      int64         `msgpack:"fee" json:"fee"`
	Amount   int64         `msgpack:"amount" json:"amount"`
	Issued   time.Time     `msgpack:"issued" json:"issued"`
	Due      time.Time     `msgpack:"due" json:"due"`
	Status   TicketStatus  `msgpack:"status" json:"status"`
}

func (t Ticket) String() string {
	return fmt.Sprintf("ticket %d %s %s %s: %d due %s (%s)", t.ID, t.Airline, t.FlightID, t.Kind,
		t.Amount, t.Due.Format(time.DateTime), t.Status)
}

func (t Ticket) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("id", t.ID),
		slog.String("airline", t.Airline),
		slog.String("flight", t.FlightID),
		slog.Int64("amount", t.Amount),
		slog.Time("due", t.Due),
		slog.String("status", t.Status.String()))
}
