package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/device-auth-server/devices"
	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/rs/zerolog/log"
)

// Recorder appends device logs and fans them out to the configured sinks.
type Recorder struct {
	devices devices.Repo
	logs    Repo
	sinks   []Sink
	nowTime func() time.Time
}

// RecorderOption defines a function type to modify the Recorder instance.
type RecorderOption func(*Recorder)

// WithSinks adds mirrors that receive every stored log.
func WithSinks(sinks ...Sink) RecorderOption {
	return func(r *Recorder) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.nowTime = nowFunc
	}
}

func NewRecorder(deviceRepo devices.Repo, logRepo Repo, options ...RecorderOption) (*Recorder, error) {
	if deviceRepo == nil {
		return nil, fmt.Errorf("[NewRecorder] devices repo is required")
	}
	if logRepo == nil {
		return nil, fmt.Errorf("[NewRecorder] logs repo is required")
	}

	r := &Recorder{
		devices: deviceRepo,
		logs:    logRepo,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Record stores a log for a registered device and returns the stored entry.
// It fails with errors.ErrDeviceNotFound when the device is not registered.
func (r *Recorder) Record(ctx context.Context, deviceID string, statusInt int, createdAt int64) (*Log, error) {
	if _, err := r.devices.Get(ctx, deviceID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, fmt.Errorf("[Recorder Record] %s: %w", deviceID, errors.ErrDeviceNotFound)
		}
		return nil, errors.StoreErr(err, "[Recorder Record] get device")
	}

	entry := &Log{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		StatusInt:  statusInt,
		CreatedAt:  createdAt,
		ReceivedAt: r.nowTime().UTC(),
	}
	if err := r.logs.Add(ctx, entry); err != nil {
		return nil, errors.StoreErr(err, "[Recorder Record] add log")
	}

	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, entry); err != nil {
			log.Err(err).Str("sink", sink.Name()).Str("device_id", deviceID).Msg("Failed to mirror device log")
		}
	}
	return entry, nil
}

// List returns the logs stored for deviceID, oldest first.
func (r *Recorder) List(ctx context.Context, deviceID string) ([]*Log, error) {
	logs, err := r.logs.List(ctx, deviceID)
	if err != nil {
		return nil, errors.StoreErr(err, "[Recorder List]")
	}
	return logs, nil
}
