// Package mqttsink publishes stored device logs as MQTT events.
package mqttsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jrsteele09/device-auth-server/telemetry"
	"github.com/rs/zerolog/log"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultKeepAlive         = 60 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	publishQoS               = 1
)

var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
)

// Sink publishes each log to "<prefix>/<device_id>/log".
type Sink struct {
	client pahomqtt.Client
	prefix string
}

var _ telemetry.Sink = (*Sink)(nil)

// Connect dials broker (e.g. "tcp://localhost:1883") with auto-reconnect.
func Connect(broker, clientID, prefix string) (*Sink, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Str("sink", "mqtt").Msg("Connection lost")
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Sink{client: client, prefix: prefix}, nil
}

func (s *Sink) Name() string {
	return "mqtt"
}

// Publish queues the event and returns without waiting for the broker. The
// delivery outcome is logged.
func (s *Sink) Publish(_ context.Context, entry *telemetry.Log) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	topic := Topic(s.prefix, entry.DeviceID)
	token := s.client.Publish(topic, publishQoS, false, payload)
	go awaitDelivery(token, topic, defaultPublishTimeout)
	return nil
}

func awaitDelivery(token pahomqtt.Token, topic string, timeout time.Duration) {
	if !token.WaitTimeout(timeout) {
		log.Warn().Str("sink", "mqtt").Str("topic", topic).Dur("timeout", timeout).Msg("Publish not acknowledged")
		return
	}
	if err := token.Error(); err != nil {
		log.Err(err).Str("sink", "mqtt").Str("topic", topic).Msg("Publish failed")
	}
}

func (s *Sink) Close() error {
	s.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// Topic builds the event topic for a device. MQTT wildcard and separator
// characters in the device ID are replaced.
func Topic(prefix, deviceID string) string {
	safe := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(deviceID)
	return strings.TrimSuffix(prefix, "/") + "/" + safe + "/log"
}
