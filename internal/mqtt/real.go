package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/battery-cutoff/internal/logic"
)

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the broker is unreachable are buffered and
// replayed, oldest first, once the connection comes back.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	buffer    *ringBuffer
	connected bool // at least one successful connection
	online    bool // connected and the buffer has been replayed
}

// NewRealPublisher creates a publisher for the given broker.
// An unreachable broker is not an error: the client keeps retrying in the
// background and messages are buffered meanwhile.
func NewRealPublisher(broker, clientID string, bufferSize int) (*RealPublisher, error) {
	p := &RealPublisher{buffer: newRingBuffer(bufferSize)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(willPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: broker %s not reachable yet, buffering", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect replays buffered messages and announces reconnections.
// The publisher only goes online once a drain finds the buffer empty, so
// messages published during the replay are buffered and sent after it in
// order rather than left behind.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected")
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		c.Publish(TopicSystem, 1, false, payload)
	}

	var replayed, dropped int
	for {
		p.mu.Lock()
		msgs, n := p.buffer.drainAll()
		dropped += n
		if len(msgs) == 0 {
			p.online = true
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()

		for _, m := range msgs {
			token := c.Publish(m.topic, m.qos, m.retained, m.payload)
			if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
				log.Printf("mqtt: replay to %s failed", m.topic)
			}
		}
		replayed += len(msgs)
	}

	if replayed > 0 || dropped > 0 {
		log.Printf("mqtt: replayed %d buffered messages (%d dropped)", replayed, dropped)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.online = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// Publish sends a decision's telemetry. QoS 0, not retained.
func (p *RealPublisher) Publish(d logic.Decision) error {
	payload, err := FormatPayload(d)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(TopicTelemetry, 0, false, payload)
}

// PublishEvent sends a load connection change. QoS 1, not retained.
func (p *RealPublisher) PublishEvent(d logic.Decision) error {
	payload, err := FormatEventPayload(d)
	if err != nil {
		return fmt.Errorf("format event payload: %w", err)
	}
	return p.publish(TopicEvents, 1, false, payload)
}

// PublishSystem sends a system lifecycle event. QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.online || !p.client.IsConnectionOpen() {
		if p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained}) && p.buffer.dropped == 1 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", p.buffer.len())
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
