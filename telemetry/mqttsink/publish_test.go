package mqttsink

import (
	"context"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jrsteele09/device-auth-server/telemetry"
	"github.com/stretchr/testify/require"
)

// pendingToken never completes until released
type pendingToken struct {
	pahomqtt.Token
	release chan struct{}
}

func (t *pendingToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.release:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *pendingToken) Error() error { return nil }

// stalledClient records publishes whose acknowledgements never arrive
type stalledClient struct {
	pahomqtt.Client
	token   *pendingToken
	topics  chan string
	payload chan []byte
}

func (c *stalledClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.topics <- topic
	c.payload <- payload.([]byte)
	return c.token
}

func TestPublish_DoesNotWaitForBroker(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client := &stalledClient{
		token:   &pendingToken{release: release},
		topics:  make(chan string, 1),
		payload: make(chan []byte, 1),
	}
	sink := &Sink{client: client, prefix: "devices"}

	done := make(chan error, 1)
	go func() {
		done <- sink.Publish(context.Background(), &telemetry.Log{ID: "log-1", DeviceID: "dev-1", StatusInt: 3})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on an unacknowledged message")
	}

	require.Equal(t, "devices/dev-1/log", <-client.topics)
	require.Contains(t, string(<-client.payload), `"log_id":"log-1"`)
}

func TestAwaitDelivery_Timeout(t *testing.T) {
	token := &pendingToken{release: make(chan struct{})}

	start := time.Now()
	awaitDelivery(token, "devices/dev-1/log", 10*time.Millisecond)
	require.Less(t, time.Since(start), time.Second)
}
