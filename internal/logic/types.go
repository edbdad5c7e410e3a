// Package logic contains the pure voltage cutoff decision logic.
// This package has NO external dependencies (no ADC, GPIO, serial, MQTT or OS).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// ErrSampleOutOfRange is returned by Tick when a raw sample lies outside [0, MaxAnalog].
var ErrSampleOutOfRange = errors.New("raw sample out of range")

// State represents the connection state of the load.
type State string

const (
	StateEngaged    State = "ENGAGED"    // relay closed, load connected
	StateDisengaged State = "DISENGAGED" // relay open, load disconnected
)

// Transition identifies the hysteresis edge a decision produced, if any.
type Transition string

const (
	TransitionNone    Transition = ""
	TransitionDrop    Transition = "DROP"    // voltage fell to or below the cutoff
	TransitionRecover Transition = "RECOVER" // voltage climbed past the toggle band
)

// Config holds the fixed controller parameters.
type Config struct {
	Cutoff         float64       // volts at or below which the load is disconnected
	TogglePoint    float64       // margin above Cutoff that suppresses reconnection after a drop
	SampleInterval time.Duration // minimum spacing between decisions
	MaxAnalog      int           // full-scale raw sample
	SupplyVoltage  float64       // volts represented by MaxAnalog
}

// DefaultConfig returns the parameters of the reference hardware:
// 2.2V cutoff, 0.1V band, 1s interval, 10-bit ADC on a 5V rail.
func DefaultConfig() Config {
	return Config{
		Cutoff:         2.2,
		TogglePoint:    0.1,
		SampleInterval: time.Second,
		MaxAnalog:      1023,
		SupplyVoltage:  5,
	}
}

// Validate reports whether the parameters describe a usable controller.
func (c Config) Validate() error {
	if c.MaxAnalog <= 0 {
		return fmt.Errorf("max analog must be positive, got %d", c.MaxAnalog)
	}
	if c.SupplyVoltage <= 0 {
		return fmt.Errorf("supply voltage must be positive, got %v", c.SupplyVoltage)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive, got %v", c.SampleInterval)
	}
	if c.Cutoff <= 0 || c.Cutoff >= c.SupplyVoltage {
		return fmt.Errorf("cutoff %v must lie within (0, %v)", c.Cutoff, c.SupplyVoltage)
	}
	if c.TogglePoint < 0 {
		return fmt.Errorf("toggle point must not be negative, got %v", c.TogglePoint)
	}
	// No sample can exceed the rail, so a band reaching it never recovers.
	if c.Cutoff+c.TogglePoint >= c.SupplyVoltage {
		return fmt.Errorf("recovery threshold %v must lie below supply %v", c.Cutoff+c.TogglePoint, c.SupplyVoltage)
	}
	return nil
}

// Telemetry is the record emitted once per decision.
type Telemetry struct {
	Time         time.Time
	Millis       int64 // milliseconds since the controller started
	Voltage      float64
	Oscillations uint16
}

// Decision is the outcome of one sampling interval.
type Decision struct {
	Connect    bool
	State      State
	Transition Transition
	// Changed is true when the connection state differs from the previous decision.
	Changed   bool
	Telemetry Telemetry
}

// Counts tracks decision bookkeeping since startup.
type Counts struct {
	Decisions uint64
	Drops     uint64
	Recovers  uint64
	Rejected  uint64
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp    time.Time
	Uptime       time.Duration
	State        State
	Voltage      float64
	Oscillations uint16
	Counts       Counts
}
