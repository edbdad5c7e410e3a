package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	State         string     `json:"state"`
	Voltage       float64    `json:"voltage"`
	HasDroppedLow bool       `json:"has_dropped_low"`
	Oscillations  uint16     `json:"oscillations"`
	Ready         bool       `json:"ready"`
	LastDecision  string     `json:"last_decision,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of decision counters.
type CountsJSON struct {
	Decisions uint64 `json:"decisions"`
	Drops     uint64 `json:"drops"`
	Recovers  uint64 `json:"recovers"`
	Rejected  uint64 `json:"rejected"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs           int64   `json:"poll_ms"`
	SampleIntervalMs int64   `json:"sample_interval_ms"`
	Cutoff           float64 `json:"cutoff"`
	TogglePoint      float64 `json:"toggle_point"`
	HeartbeatMs      int64   `json:"heartbeat_ms"`
	Broker           string  `json:"broker"`
	HTTPAddr         string  `json:"http_addr"`
	SerialPort       string  `json:"serial_port"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State:         state,
		Voltage:       math.Round(snap.Voltage*1000) / 1000,
		HasDroppedLow: snap.HasDroppedLow,
		Oscillations:  snap.Oscillations,
		Ready:         snap.Ready(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Decisions: snap.Counts.Decisions,
			Drops:     snap.Counts.Drops,
			Recovers:  snap.Counts.Recovers,
			Rejected:  snap.Counts.Rejected,
		},
		Config: ConfigJSON{
			PollMs:           snap.Config.PollMs,
			SampleIntervalMs: snap.Config.SampleIntervalMs,
			Cutoff:           snap.Config.Cutoff,
			TogglePoint:      snap.Config.TogglePoint,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
			SerialPort:       snap.Config.SerialPort,
		},
	}
	if snap.Ready() {
		inner.LastDecision = snap.LastDecision.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
