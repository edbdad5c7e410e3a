package logic

import (
	"fmt"
	"time"
)

// Controller decides once per sampling interval whether the load stays connected.
type Controller struct {
	cfg       Config
	scheduler *Scheduler
	startTime time.Time

	lastVoltage   float64
	hasDroppedLow bool
	oscillations  uint16
	state         State

	counts        Counts
	lastHeartbeat time.Time
}

// NewController creates a controller with the given parameters.
// The startTime is the zero point for telemetry millis and heartbeat uptime.
func NewController(cfg Config, startTime time.Time) *Controller {
	return &Controller{
		cfg:           cfg,
		scheduler:     NewScheduler(cfg.SampleInterval, startTime),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Due reports whether the next call to Tick at now would make a decision.
// Callers use it to avoid sampling the ADC between intervals.
func (c *Controller) Due(now time.Time) bool {
	return c.scheduler.Due(now)
}

// Tick runs one decision step.
// It returns nil, nil when the sampling interval has not yet elapsed.
// An out-of-range sample is rejected without consuming the interval.
func (c *Controller) Tick(now time.Time, raw int) (*Decision, error) {
	if !c.scheduler.Due(now) {
		return nil, nil
	}
	if raw < 0 || raw > c.cfg.MaxAnalog {
		c.counts.Rejected++
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrSampleOutOfRange, raw, c.cfg.MaxAnalog)
	}

	voltage := c.Scale(raw)
	transition := TransitionNone

	// Falling edge only: fires once per descent below the cutoff.
	if voltage <= c.cfg.Cutoff && c.lastVoltage > c.cfg.Cutoff {
		c.hasDroppedLow = true
		c.oscillations++
		c.counts.Drops++
		transition = TransitionDrop
	}

	connect := true
	if voltage <= c.cfg.Cutoff || (voltage <= c.cfg.Cutoff+c.cfg.TogglePoint && c.hasDroppedLow) {
		connect = false
	} else if c.hasDroppedLow {
		c.hasDroppedLow = false
		c.oscillations++
		c.counts.Recovers++
		transition = TransitionRecover
	}

	state := StateDisengaged
	if connect {
		state = StateEngaged
	}
	changed := state != c.state
	c.state = state

	c.lastVoltage = voltage
	c.scheduler.Mark(now)
	c.counts.Decisions++

	return &Decision{
		Connect:    connect,
		State:      state,
		Transition: transition,
		Changed:    changed,
		Telemetry: Telemetry{
			Time:         now,
			Millis:       now.Sub(c.startTime).Milliseconds(),
			Voltage:      voltage,
			Oscillations: c.oscillations,
		},
	}, nil
}

// Scale converts a raw sample to volts.
func (c *Controller) Scale(raw int) float64 {
	return float64(raw) / float64(c.cfg.MaxAnalog) * c.cfg.SupplyVoltage
}

// Config returns the controller parameters.
func (c *Controller) Config() Config {
	return c.cfg
}

// State returns the connection state of the last decision, or "" before the first one.
func (c *Controller) State() State {
	return c.state
}

// Decided reports whether at least one decision has been made.
func (c *Controller) Decided() bool {
	return c.counts.Decisions > 0
}

// LastVoltage returns the voltage of the last decision.
func (c *Controller) LastVoltage() float64 {
	return c.lastVoltage
}

// HasDroppedLow reports whether a drop is awaiting recovery.
func (c *Controller) HasDroppedLow() bool {
	return c.hasDroppedLow
}

// Oscillations returns the drop plus recovery edge count. It wraps at 65535.
func (c *Controller) Oscillations() uint16 {
	return c.oscillations
}

// CountsSnapshot returns a copy of the bookkeeping counters.
func (c *Controller) CountsSnapshot() Counts {
	return c.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil before the first decision, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !c.Decided() {
		return nil
	}

	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp:    now,
		Uptime:       now.Sub(c.startTime),
		State:        c.state,
		Voltage:      c.lastVoltage,
		Oscillations: c.oscillations,
		Counts:       c.counts,
	}
}
