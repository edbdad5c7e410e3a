package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// doneToken is a token that has already completed.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// recordingClient records publishes. Only the methods RealPublisher calls
// after construction are implemented.
type recordingClient struct {
	paho.Client
	open      bool
	published []string
	onPublish func(topic string)
}

func (c *recordingClient) IsConnectionOpen() bool { return c.open }

func (c *recordingClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published = append(c.published, string(payload.([]byte)))
	if c.onPublish != nil {
		c.onPublish(topic)
	}
	return doneToken{}
}

func newTestPublisher(client *recordingClient, size int) *RealPublisher {
	return &RealPublisher{client: client, buffer: newRingBuffer(size)}
}

func TestRealPublisherBuffersUntilConnected(t *testing.T) {
	client := &recordingClient{}
	p := newTestPublisher(client, 10)

	for _, msg := range []string{"a", "b"} {
		if err := p.publish(TopicTelemetry, 0, false, []byte(msg)); err != nil {
			t.Fatalf("publish %s: %v", msg, err)
		}
	}
	if len(client.published) != 0 {
		t.Fatalf("expected nothing sent while offline, got %v", client.published)
	}

	client.open = true
	p.onConnect(client)

	if err := p.publish(TopicTelemetry, 0, false, []byte("c")); err != nil {
		t.Fatalf("publish c: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(client.published) != len(want) {
		t.Fatalf("expected %v, got %v", want, client.published)
	}
	for i := range want {
		if client.published[i] != want[i] {
			t.Errorf("message %d: got %q, want %q", i, client.published[i], want[i])
		}
	}
}

func TestRealPublisherMessageDuringReplayNotStranded(t *testing.T) {
	client := &recordingClient{}
	p := newTestPublisher(client, 10)
	p.publish(TopicTelemetry, 0, false, []byte("a"))
	p.publish(TopicTelemetry, 0, false, []byte("b"))

	// The run loop publishes while the replay is still in flight.
	client.open = true
	injected := false
	client.onPublish = func(string) {
		if injected {
			return
		}
		injected = true
		if err := p.publish(TopicTelemetry, 0, false, []byte("c")); err != nil {
			t.Errorf("publish during replay: %v", err)
		}
	}
	p.onConnect(client)

	want := []string{"a", "b", "c"}
	if len(client.published) != len(want) {
		t.Fatalf("expected %v, got %v", want, client.published)
	}
	for i := range want {
		if client.published[i] != want[i] {
			t.Errorf("message %d: got %q, want %q", i, client.published[i], want[i])
		}
	}
	if n := p.buffer.len(); n != 0 {
		t.Errorf("expected empty buffer after replay, got %d", n)
	}
	if !p.online {
		t.Error("expected publisher online after replay")
	}
}

func TestRealPublisherConnectionLostBuffers(t *testing.T) {
	client := &recordingClient{open: true}
	p := newTestPublisher(client, 10)
	p.onConnect(client)

	p.onConnectionLost(client, errors.New("eof"))
	p.publish(TopicTelemetry, 0, false, []byte("x"))

	if len(client.published) != 0 {
		t.Errorf("expected message buffered after connection loss, got %v", client.published)
	}
	if n := p.buffer.len(); n != 1 {
		t.Errorf("expected 1 buffered message, got %d", n)
	}

	// A reconnect announces itself before replaying.
	p.onConnect(client)
	if len(client.published) != 2 {
		t.Fatalf("expected RECONNECTED then replay, got %v", client.published)
	}
	if client.published[1] != "x" {
		t.Errorf("expected replayed message last, got %q", client.published[1])
	}
}
