// Package influxsink mirrors device logs into an InfluxDB v2 bucket.
package influxsink

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/jrsteele09/device-auth-server/telemetry"
	"github.com/rs/zerolog/log"
)

const (
	measurement    = "device_log"
	connectTimeout = 10 * time.Second
	batchSize      = 100
	flushInterval  = 1000 // milliseconds
)

// ErrConnectionFailed is returned when the server cannot be reached at startup.
var ErrConnectionFailed = errors.New("influxdb: connection failed")

// Sink writes each log as a point. Writes are batched and non-blocking; async
// write failures are logged.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

var _ telemetry.Sink = (*Sink)(nil)

// Connect creates the client and verifies the server is healthy.
func Connect(url, token, org, bucket string) (*Sink, error) {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().
			SetBatchSize(batchSize).
			SetFlushInterval(flushInterval),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(org, bucket)
	go func(errorsCh <-chan error) {
		for err := range errorsCh {
			log.Err(err).Str("sink", "influxdb").Msg("Async write failed")
		}
	}(writeAPI.Errors())

	return &Sink{client: client, writeAPI: writeAPI}, nil
}

func (s *Sink) Name() string {
	return "influxdb"
}

func (s *Sink) Publish(_ context.Context, entry *telemetry.Log) error {
	s.writeAPI.WritePoint(Point(entry))
	return nil
}

// Close flushes pending points and closes the client.
func (s *Sink) Close() error {
	s.writeAPI.Flush()
	s.client.Close()
	return nil
}

// Point converts a log to an InfluxDB point timestamped with the device's
// created_at.
func Point(entry *telemetry.Log) *write.Point {
	return write.NewPoint(
		measurement,
		map[string]string{
			"device_id": entry.DeviceID,
		},
		map[string]interface{}{
			"status_int": entry.StatusInt,
			"log_id":     entry.ID,
		},
		time.Unix(entry.CreatedAt, 0),
	)
}
