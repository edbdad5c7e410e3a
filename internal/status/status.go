// Package status provides a thread-safe status tracker for the battery-cutoff daemon.
// It is written by the run loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/battery-cutoff/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs           int64
	SampleIntervalMs int64
	Cutoff           float64
	TogglePoint      float64
	HeartbeatMs      int64
	Broker           string // empty = MQTT disabled
	HTTPAddr         string
	SerialPort       string // empty = stdout
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Voltage       float64
	HasDroppedLow bool
	Oscillations  uint16
	Counts        logic.Counts
	LastDecision  time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether the controller has made a decision yet.
func (s Snapshot) Ready() bool {
	return !s.LastDecision.IsZero()
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the outcome of a decision.
// Called from runLoop after every decision.
func (t *Tracker) Update(d logic.Decision, hasDroppedLow bool, counts logic.Counts) {
	t.mu.Lock()
	t.snap.State = d.State
	t.snap.Voltage = d.Telemetry.Voltage
	t.snap.Oscillations = d.Telemetry.Oscillations
	t.snap.LastDecision = d.Telemetry.Time
	t.snap.HasDroppedLow = hasDroppedLow
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetCounts refreshes the counters without a decision (e.g. after a rejected sample).
func (t *Tracker) SetCounts(counts logic.Counts) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
