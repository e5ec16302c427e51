package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/config"
)

// MessageHandler receives every raw message from the subscribed topics.
// Decoding and validation are downstream concerns; the subscriber only moves
// bytes off the wire.
type MessageHandler func(topic string, payload []byte)

// Handleable is the narrow surface modules need to attach their handler.
type Handleable interface {
	SetMessageHandler(handler MessageHandler)
}

// Subscriber wraps the paho client for the health engine's ingest side. It
// subscribes to the aggregate topic and the per-station wildcard below it.
// Reconnect and backoff are handled by paho; the engine never sees them.
type Subscriber struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	handler MessageHandler
}

// SetMessageHandler sets the raw message handler. Call before Connect so no
// queued message delivered right after CONNACK is missed.
func (s *Subscriber) SetMessageHandler(handler MessageHandler) {
	s.handler = handler
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.BrokerHost, cfg.BrokerPort))
	opts.SetClientID(cfg.MQTTClientID)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Callbacks keep internal state accurate
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.BrokerHost, "port", cfg.BrokerPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Connect establishes the broker connection and subscribes to the configured
// topic namespace. It respects ctx and Disconnect().
func (s *Subscriber) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			break
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}

	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

// topics returns the aggregate topic and the per-station wildcard under it.
func (s *Subscriber) topics() []string {
	return []string{s.cfg.Topic, s.cfg.Topic + "/#"}
}

func (s *Subscriber) subscribe() error {
	if !s.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	qos := byte(1) // At least once delivery

	messageHandler := func(client mqtt.Client, msg mqtt.Message) {
		s.logger.Debug("received mqtt message", "topic", msg.Topic(), "size", len(msg.Payload()))
		if s.handler != nil {
			s.handler(msg.Topic(), msg.Payload())
		}
	}

	for _, topic := range s.topics() {
		token := s.client.Subscribe(topic, qos, messageHandler)
		if !token.WaitTimeout(5 * time.Second) {
			return fmt.Errorf("subscribe timeout for topic %s", topic)
		}
		if token.Error() != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
		}
		s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	}

	return nil
}

// IsConnected returns whether the client is connected.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times. Paho quiesces in-flight
// handlers for the grace period, so a message either completes its
// validate+record+transition sequence or is never started.
func (s *Subscriber) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.topics()...)
		token.WaitTimeout(2 * time.Second)
	}

	// Disconnect without holding s.mu to avoid lock contention/deadlocks.
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
