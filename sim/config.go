// sim/config.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"time"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/util"
)

// Config describes the facility being simulated. The zero value is not
// useful; start from DefaultConfig and override fields as needed.
type Config struct {
	Airlines []av.Airline `json:"airlines"`

	// MaxFlights is the soft cap on each runway's wait queue; once a
	// queue is full, further flights are sent to the overflow runway.
	MaxFlights int `json:"max_flights"`
	// Capacity bounds the number of flights in the registry.
	Capacity      int `json:"capacity"`
	FuelThreshold int `json:"fuel_threshold"`

	PhaseSeconds float64 `json:"phase_seconds"`
	TickHz       int     `json:"tick_hz"`
	// TimeScale converts a flight's scheduled time (seconds) into a
	// wall-clock delay; 1 is real time.
	TimeScale      float64 `json:"time_scale"`
	FaultPercent   int     `json:"fault_percent"`
	SnapshotMillis int     `json:"snapshot_millis"`
}

func DefaultConfig() Config {
	return Config{
		Airlines:       av.DefaultRoster(),
		MaxFlights:     20,
		Capacity:       20,
		FuelThreshold:  av.FuelThreshold,
		PhaseSeconds:   2,
		TickHz:         60,
		TimeScale:      1,
		FaultPercent:   5,
		SnapshotMillis: 250,
	}
}

// LoadConfig parses a JSON facility description on top of the defaults.
// Problems are reported through e rather than returned so that all of
// them can be shown together.
func LoadConfig(b []byte, e *util.ErrorLogger) Config {
	cfg := DefaultConfig()
	if err := util.UnmarshalJSONBytes(b, &cfg); err != nil {
		e.Error(err)
		return cfg
	}
	cfg.Check(e)
	return cfg
}

func (c Config) Check(e *util.ErrorLogger) {
	e.Push("facility")
	defer e.Pop()

	if len(c.Airlines) == 0 {
		e.ErrorString("no airlines specified")
	}
	av.CheckRoster(c.Airlines, e)

	if c.MaxFlights <= 0 {
		e.ErrorString("max_flights %d must be positive", c.MaxFlights)
	}
	if c.Capacity <= 0 {
		e.ErrorString("capacity %d must be positive", c.Capacity)
	}
	if c.FuelThreshold < 0 || c.FuelThreshold > 100 {
		e.ErrorString("fuel_threshold %d must be between 0 and 100", c.FuelThreshold)
	}
	if c.PhaseSeconds <= 0 {
		e.ErrorString("phase_seconds %f must be positive", c.PhaseSeconds)
	}
	if c.TickHz <= 0 || c.TickHz > 1000 {
		e.ErrorString("tick_hz %d must be between 1 and 1000", c.TickHz)
	}
	if c.TimeScale < 0 {
		e.ErrorString("time_scale %f must not be negative", c.TimeScale)
	}
	if c.FaultPercent < 0 || c.FaultPercent > 100 {
		e.ErrorString("fault_percent %d must be between 0 and 100", c.FaultPercent)
	}
	if c.SnapshotMillis <= 0 {
		e.ErrorString("snapshot_millis %d must be positive", c.SnapshotMillis)
	}
}

func (c Config) PhaseDuration() time.Duration {
	return time.Duration(c.PhaseSeconds * float64(time.Second))
}

func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickHz)
}

func (c Config) ScheduledDelay(seconds int) time.Duration {
	return time.Duration(float64(seconds) * c.TimeScale * float64(time.Second))
}

func (c Config) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotMillis) * time.Millisecond
}
