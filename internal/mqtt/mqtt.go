// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/battery-cutoff/internal/logic"
)

// TopicTelemetry is the MQTT topic for per-decision telemetry.
const TopicTelemetry = "energy/battery/cutoff/telemetry"

// TopicEvents is the MQTT topic for load connection changes.
const TopicEvents = "energy/battery/cutoff/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "energy/battery/cutoff/system"

// Load event names.
const (
	EventLoadConnected    = "LOAD_CONNECTED"
	EventLoadDisconnected = "LOAD_DISCONNECTED"
)

// Publisher publishes controller output to MQTT.
type Publisher interface {
	// Publish sends the telemetry of one decision.
	// Returns error if publishing fails (should not crash the process).
	Publish(d logic.Decision) error

	// PublishEvent sends a load connection change.
	PublishEvent(d logic.Decision) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the telemetry message.
type Payload struct {
	Telemetry TelemetryPayload `json:"telemetry"`
}

// TelemetryPayload contains one decision's telemetry.
type TelemetryPayload struct {
	Timestamp    string  `json:"timestamp"`
	Millis       int64   `json:"millis"`
	Voltage      float64 `json:"voltage"`
	Oscillations uint16  `json:"oscillations"`
	State        string  `json:"state"`
}

// FormatPayload creates the JSON payload for a decision's telemetry.
func FormatPayload(d logic.Decision) ([]byte, error) {
	payload := Payload{
		Telemetry: TelemetryPayload{
			Timestamp:    d.Telemetry.Time.UTC().Format(time.RFC3339),
			Millis:       d.Telemetry.Millis,
			Voltage:      roundMilli(d.Telemetry.Voltage),
			Oscillations: d.Telemetry.Oscillations,
			State:        string(d.State),
		},
	}
	return json.Marshal(payload)
}

// EventPayload is the load change message.
type EventPayload struct {
	Load LoadPayload `json:"load"`
}

// LoadPayload contains the load change details.
type LoadPayload struct {
	Timestamp    string  `json:"timestamp"`
	Event        string  `json:"event"`
	Transition   string  `json:"transition,omitempty"`
	Voltage      float64 `json:"voltage"`
	Oscillations uint16  `json:"oscillations"`
}

// FormatEventPayload creates the JSON payload for a load connection change.
func FormatEventPayload(d logic.Decision) ([]byte, error) {
	event := EventLoadDisconnected
	if d.Connect {
		event = EventLoadConnected
	}
	payload := EventPayload{
		Load: LoadPayload{
			Timestamp:    d.Telemetry.Time.UTC().Format(time.RFC3339),
			Event:        event,
			Transition:   string(d.Transition),
			Voltage:      roundMilli(d.Telemetry.Voltage),
			Oscillations: d.Telemetry.Oscillations,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// willPayload is registered with the broker as the last will.
func willPayload() []byte {
	data, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: "OFFLINE", Reason: "LWT"}})
	return data
}

// roundMilli matches the three decimals of the serial stream.
func roundMilli(v float64) float64 {
	return math.Round(v*1000) / 1000
}
