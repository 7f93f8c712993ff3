package mqtt

import (
	"fmt"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/touch-tube/internal/logic"
)

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the broker is unreachable are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topic  string
	out    *outbox

	// set after the first successful connection
	connectedBefore atomic.Bool
}

// NewRealPublisher creates a publisher connected to the given broker. The
// broker keeps a retained SHUTDOWN/MQTT_DISCONNECT will on the system
// topic in case the process dies without a clean shutdown.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{topic: Topic}

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
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.out = newOutbox(BufferSize, p.client.IsConnectionOpen, p.send)

	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// ClientID returns a broker client ID unique to this process.
func ClientID() string {
	return "touch-tube-" + uuid.NewString()[:8]
}

func (p *RealPublisher) onConnect(_ paho.Client) {
	reconnect := p.connectedBefore.Swap(true)

	sent, err := p.out.replay()
	if err != nil {
		log.Warnf("mqtt: replay stopped after %d messages: %v", sent, err)
	} else if sent > 0 {
		log.Infof("mqtt: replayed %d buffered messages", sent)
	}

	if reconnect {
		if err := p.announceReconnect(); err != nil {
			log.Warnf("mqtt: reconnected event: %v", err)
		}
	}
}

func (p *RealPublisher) announceReconnect() error {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a device event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.out.publish(bufferedMsg{topic: p.topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	if err := p.out.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Pending returns the number of buffered messages.
func (p *RealPublisher) Pending() int {
	return p.out.pending()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
