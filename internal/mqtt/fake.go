package mqtt

import (
	"github.com/sweeney/battery-cutoff/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Decisions contains every decision passed to Publish.
	Decisions []logic.Decision

	// Payloads contains the telemetry JSON payloads.
	Payloads [][]byte

	// Events contains every decision passed to PublishEvent.
	Events []logic.Decision

	// EventPayloads contains the load event JSON payloads.
	EventPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish and PublishEvent.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the decision telemetry.
func (f *FakePublisher) Publish(d logic.Decision) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(d)
	if err != nil {
		return err
	}
	f.Decisions = append(f.Decisions, d)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishEvent records the load event.
func (f *FakePublisher) PublishEvent(d logic.Decision) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatEventPayload(d)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, d)
	f.EventPayloads = append(f.EventPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Decisions = nil
	f.Payloads = nil
	f.Events = nil
	f.EventPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
