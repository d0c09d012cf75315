package sink

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/odse/internal/config"
	"github.com/speedwagon-io/odse/internal/model"
)

const mqttConnectTimeout = 10 * time.Second

// MQTTSink publishes envelope JSON to <topic_prefix>/<source>.
type MQTTSink struct {
	client mqtt.Client
	prefix string
	qos    byte
	retain bool
}

func NewMQTTSink(cfg config.MQTTSinkConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect timed out after %v", mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	qos := cfg.QoS
	if qos < 0 || qos > 2 {
		qos = 0
	}

	return &MQTTSink{
		client: client,
		prefix: cfg.TopicPrefix,
		qos:    byte(qos),
		retain: cfg.Retain,
	}, nil
}

func (s *MQTTSink) Name() string {
	return "mqtt"
}

func (s *MQTTSink) Publish(ctx context.Context, envelope *model.ResultEnvelope) error {
	payload, err := envelope.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	token := s.client.Publish(topicFor(s.prefix, envelope.Source), s.qos, s.retain, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to mqtt: %w", err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}

func topicFor(prefix, source string) string {
	if prefix == "" {
		return "odse/records/" + source
	}
	return prefix + "/" + source
}
