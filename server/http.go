// server/http.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"text/template"
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/sim"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/cpu"
)

// SnapshotSource provides the facility's most recently published
// snapshot.
type SnapshotSource interface {
	Snapshot() *sim.Snapshot
}

// TicketSource provides read access to the settlement ledger.
type TicketSource interface {
	Tickets(airline string) []av.Ticket
	Outstanding(airline string) int64
}

// StatusServer serves the status page and JSON views of the facility
// and the ledger. It only reads published snapshots and the ledger's
// locked accessors; either source may be nil when this process does not
// run the corresponding role.
type StatusServer struct {
	snapshots SnapshotSource
	tickets   TicketSource
	start     time.Time
	lg        *log.Logger

	// CPUInterval is the sampling window for the CPU usage figure.
	CPUInterval time.Duration
}

func NewStatusServer(snapshots SnapshotSource, tickets TicketSource, lg *log.Logger) *StatusServer {
	return &StatusServer{
		snapshots:   snapshots,
		tickets:     tickets,
		start:       time.Now(),
		lg:          lg,
		CPUInterval: 250 * time.Millisecond,
	}
}

func (s *StatusServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/sup", func(w http.ResponseWriter, r *http.Request) {
		s.statsHandler(w, r)
		s.lg.Infof("%s: served stats request", r.URL.String())
	})
	r.Get("/flights", s.handleFlights)
	r.Get("/flights/{id}", s.handleFlight)
	r.Get("/violations", s.handleViolations)
	r.Get("/ledger", s.handleLedger)
	r.Get("/ledger/{airline}", s.handleLedger)

	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return r
}

// Serve listens on addr and serves until ctx is canceled.
func (s *StatusServer) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lg.Info("launching HTTP server", slog.String("addr", listener.Addr().String()))

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.lg.Errorf("HTTP server error: %v", err)
		return err
	}
	return nil
}

func (s *StatusServer) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.lg.Warn("unable to encode response", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

func (s *StatusServer) snapshot(w http.ResponseWriter) *sim.Snapshot {
	if s.snapshots == nil {
		http.Error(w, "facility not running in this process", http.StatusServiceUnavailable)
		return nil
	}
	return s.snapshots.Snapshot()
}

func (s *StatusServer) handleFlights(w http.ResponseWriter, r *http.Request) {
	if snap := s.snapshot(w); snap != nil {
		s.writeJSON(w, r, snap)
	}
}

func (s *StatusServer) handleFlight(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	id := chi.URLParam(r, "id")
	if f, ok := snap.Lookup(id); ok {
		s.writeJSON(w, r, f)
	} else {
		http.Error(w, id+": unknown flight", http.StatusNotFound)
	}
}

func (s *StatusServer) handleViolations(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	v := snap.ActiveViolations()
	if v == nil {
		v = []sim.ActiveViolation{}
	}
	s.writeJSON(w, r, v)
}

type ledgerView struct {
	Airline     string      `json:"airline,omitempty"`
	Outstanding int64       `json:"outstanding"`
	Tickets     []av.Ticket `json:"tickets"`
}

func (s *StatusServer) handleLedger(w http.ResponseWriter, r *http.Request) {
	if s.tickets == nil {
		http.Error(w, "settlement not running in this process", http.StatusServiceUnavailable)
		return
	}

	airline := chi.URLParam(r, "airline")
	v := ledgerView{Airline: airline, Tickets: s.tickets.Tickets(airline)}
	if v.Tickets == nil {
		v.Tickets = []av.Ticket{}
	}
	if airline != "" {
		v.Outstanding = s.tickets.Outstanding(airline)
	} else {
		for _, t := range v.Tickets {
			if t.Status == av.Unpaid {
				v.Outstanding += t.Amount
			}
		}
	}
	s.writeJSON(w, r, v)
}

///////////////////////////////////////////////////////////////////////////
// Status page

type serverStats struct {
	Uptime           time.Duration
	AllocMemory      uint64
	TotalAllocMemory uint64
	SysMemory        uint64
	NumGC            uint32
	NumGoRoutines    int
	CPUUsage         int

	Facility *sim.Snapshot
	Runways  []runwayStatus

	HaveLedger  bool
	Tickets     int
	Outstanding int64
}

type runwayStatus struct {
	Name   string
	Holder string
	Queue  []string
}

var statsTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html>
<head>
<title>AirControlX</title>
</head>
<style>
table {
  border-collapse: collapse;
  width: 100%;
}

th, td {
  border: 1px solid #dddddd;
  padding: 8px;
  text-align: left;
}

tr:nth-child(even) {
  background-color: #f2f2f2;
}
</style>
<body>
<h1>Server Status</h1>
<ul>
  <li>Uptime: {{.Uptime}}</li>
  <li>CPU usage: {{.CPUUsage}}%</li>
  <li>Allocated memory: {{.AllocMemory}} MB</li>
  <li>Total allocated memory: {{.TotalAllocMemory}} MB</li>
  <li>System memory: {{.SysMemory}} MB</li>
  <li>Garbage collection passes: {{.NumGC}}</li>
  <li>Running goroutines: {{.NumGoRoutines}}</li>
</ul>

{{if .Facility}}
<h1>Facility{{if .Facility.Running}} (simulation running){{end}}</h1>
<table>
  <tr><th>Runway</th><th>Holder</th><th>Queue</th></tr>
{{range .Runways}}
  <tr><td>{{.Name}}</td><td>{{.Holder}}</td><td><tt>{{range .Queue}}{{.}} {{end}}</tt></td></tr>
{{end}}
</table>

<h2>Flights</h2>
<table>
  <tr>
  <th>Flight</th><th>Airline</th><th>Type</th><th>Phase</th><th>Runway</th>
  <th>Speed</th><th>Altitude</th><th>Position</th><th>Fuel</th><th>Priority</th><th>AVNs</th>
  </tr>
{{range .Facility.Flights}}
  <tr>
  <td>{{.ID}}{{if .Emergency}} (EMERGENCY){{end}}{{if .VIP}} (VIP){{end}}</td>
  <td>{{.Airline}}</td>
  <td>{{.Type}}</td>
  <td>{{.Phase}}</td>
  <td>{{.Runway}}</td>
  <td>{{.Speed}}</td>
  <td>{{.Altitude}}</td>
  <td>{{.Position}}</td>
  <td>{{.Fuel}}%</td>
  <td>{{.Priority}}</td>
  <td>{{.AVNCount}}</td>
  </tr>
{{end}}
</table>
{{end}}

{{if .HaveLedger}}
<h1>Ledger</h1>
<ul>
  <li>Tickets: {{.Tickets}}</li>
  <li>Outstanding: Rs.{{.Outstanding}}</li>
</ul>
{{end}}

</body>
</html>
`))

func (s *StatusServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := serverStats{
		Uptime:           time.Since(s.start).Round(time.Second),
		AllocMemory:      m.Alloc / (1024 * 1024),
		TotalAllocMemory: m.TotalAlloc / (1024 * 1024),
		SysMemory:        m.Sys / (1024 * 1024),
		NumGC:            m.NumGC,
		NumGoRoutines:    runtime.NumGoroutine(),
	}
	if usage, err := cpu.Percent(s.CPUInterval, false); err == nil && len(usage) > 0 {
		stats.CPUUsage = int(math.Round(usage[0]))
	}

	if s.snapshots != nil {
		snap := s.snapshots.Snapshot()
		stats.Facility = snap
		for _, rwy := range av.Runways {
			stats.Runways = append(stats.Runways, runwayStatus{
				Name:   rwy.String(),
				Holder: snap.RunwayHolders[rwy],
				Queue:  snap.Queues[rwy],
			})
		}
	}
	if s.tickets != nil {
		stats.HaveLedger = true
		for _, t := range s.tickets.Tickets("") {
			stats.Tickets++
			if t.Status == av.Unpaid {
				stats.Outstanding += t.Amount
			}
		}
	}

	if err := statsTemplate.Execute(w, stats); err != nil {
		s.lg.Warn("unable to render status page", slog.Any("error", err))
	}
}
