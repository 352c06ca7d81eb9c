package control

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"rovercam/pkg/models"
)

var ErrNotConnected = errors.New("broker not connected")

// Publisher delivers rover commands to the control transport.
type Publisher interface {
	Publish(ctx context.Context, cmd models.RoverCommand) error
	Status() models.ControlStatus
}

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker   string // host:port or a full URL such as tcp://host:1883
	Topic    string
	ClientID string
}

// MQTTPublisher publishes commands to an MQTT topic with QoS 0, matching
// what the browser console does.
type MQTTPublisher struct {
	opts      MQTTOptions
	client    mqtt.Client
	connected atomic.Bool
	log       logrus.FieldLogger
}

// NewMQTTPublisher prepares a client; call Connect to dial the broker.
func NewMQTTPublisher(opts MQTTOptions, log logrus.FieldLogger) *MQTTPublisher {
	p := &MQTTPublisher{opts: opts, log: log}

	co := mqtt.NewClientOptions()
	co.AddBroker(brokerURL(opts.Broker))
	co.SetClientID(opts.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)

	co.OnConnect = func(c mqtt.Client) {
		p.connected.Store(true)
		p.log.WithFields(logrus.Fields{
			"broker":    opts.Broker,
			"client_id": opts.ClientID,
		}).Info("mqtt connection established")
	}
	co.OnConnectionLost = func(c mqtt.Client, err error) {
		p.connected.Store(false)
		p.log.WithError(err).WithField("broker", opts.Broker).Warn("mqtt connection lost, will auto-reconnect")
	}

	p.client = mqtt.NewClient(co)
	return p
}

// Connect dials the broker and waits until the first connection succeeds or
// ctx is done. The client keeps retrying in the background either way.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", p.opts.Broker, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connecting to %s: %w", p.opts.Broker, ctx.Err())
	}
}

// Publish sends cmd to the configured topic. Commands are not queued while
// the broker is unreachable; a late movement command is worse than none.
func (p *MQTTPublisher) Publish(ctx context.Context, cmd models.RoverCommand) error {
	if !p.connected.Load() {
		return ErrNotConnected
	}

	token := p.client.Publish(p.opts.Topic, 0, false, Payload(cmd))
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", p.opts.Topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports the broker connection.
func (p *MQTTPublisher) Status() models.ControlStatus {
	return models.ControlStatus{
		Enabled:   true,
		Connected: p.connected.Load(),
		Broker:    p.opts.Broker,
		Topic:     p.opts.Topic,
	}
}

// Close disconnects from the broker, giving in-flight messages 250ms.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
	p.connected.Store(false)
}

func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
