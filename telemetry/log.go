package telemetry

import (
	"context"
	"time"
)

// Log is one status report submitted by a device.
type Log struct {
	ID         string    `json:"log_id"`
	DeviceID   string    `json:"device_id"`
	StatusInt  int       `json:"status_int"`
	CreatedAt  int64     `json:"created_at"` // Unix seconds, as reported by the device
	ReceivedAt time.Time `json:"received_at"`
}

// Repo stores device logs. Add assigns entry.ID when it is empty.
type Repo interface {
	Add(ctx context.Context, entry *Log) error
	List(ctx context.Context, deviceID string) ([]*Log, error)
}

// Sink receives a copy of every stored log. Sinks are best effort mirrors
// (time series, message bus); their failures never fail the write.
type Sink interface {
	Name() string
	Publish(ctx context.Context, entry *Log) error
}
