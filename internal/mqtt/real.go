package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/dht11-sensor/internal/logic"
)

// BufferSize is the number of messages held while the broker is unreachable.
const BufferSize = 256

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are buffered and replayed in order on reconnect.
type RealPublisher struct {
	client paho.Client
	log    logrus.FieldLogger

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	connects  int

	onReconnect func(Publisher)
}

// NewRealPublisher creates a publisher for the given broker. The initial
// connect is attempted for a bounded time; if the broker is down the client
// keeps retrying in the background and publishes are buffered meanwhile.
// onReconnect, if non-nil, runs after each reconnect once the buffer has been
// replayed; it is not called for the first connection.
func NewRealPublisher(broker string, log logrus.FieldLogger, onReconnect func(Publisher)) (*RealPublisher, error) {
	p := &RealPublisher{
		log:         log.WithField("broker", broker),
		onReconnect: onReconnect,
	}
	p.buf = newRingBuffer(BufferSize, p.log)

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		p.log.Warn("broker not reachable yet, buffering until connected")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	p.connects++
	reconnect := p.connects > 1
	pending := p.buf.drainAll()
	p.mu.Unlock()

	if reconnect {
		p.log.Info("reconnected to broker")
	} else {
		p.log.Info("connected to broker")
	}

	if len(pending) > 0 {
		p.log.WithField("messages", len(pending)).Info("replaying buffered messages")
	}
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.log.WithError(err).WithField("topic", m.topic).Warn("replay failed")
		}
	}

	if reconnect && p.onReconnect != nil {
		p.onReconnect(p)
	}
}

func (p *RealPublisher) onConnectionLost(c paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.log.WithError(err).Warn("lost connection to broker")
}

// publish sends now or buffers while disconnected.
func (p *RealPublisher) publish(m bufferedMsg) error {
	p.mu.Lock()
	if !p.connected {
		p.buf.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.send(m)
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// Publish sends a sensor event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	if n := p.buf.len(); n > 0 {
		p.log.WithField("messages", n).Warn("discarding buffered messages on close")
	}
	p.mu.Unlock()

	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
