package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/device-auth-server/telemetry"
)

// LogRepo implements telemetry.Repo.
type LogRepo struct {
	store *Store
}

var _ telemetry.Repo = (*LogRepo)(nil)

func (r *LogRepo) Add(ctx context.Context, entry *telemetry.Log) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.store.db.ExecContext(ctx, r.store.rebind(`
		INSERT INTO device_logs (log_id, device_id, status_int, created_at, received_at) VALUES (?, ?, ?, ?, ?)`),
		entry.ID, entry.DeviceID, entry.StatusInt, entry.CreatedAt, entry.ReceivedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("[sqlstore Add] log for %s: %w", entry.DeviceID, err)
	}
	return nil
}

// List returns the device's logs in the order they were received.
func (r *LogRepo) List(ctx context.Context, deviceID string) ([]*telemetry.Log, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(`
		SELECT log_id, device_id, status_int, created_at, received_at FROM device_logs
		WHERE device_id = ? ORDER BY received_at, log_id`), deviceID)
	if err != nil {
		return nil, fmt.Errorf("[sqlstore List] logs for %s: %w", deviceID, err)
	}
	defer rows.Close()

	logs := make([]*telemetry.Log, 0)
	for rows.Next() {
		var (
			entry      telemetry.Log
			receivedAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.DeviceID, &entry.StatusInt, &entry.CreatedAt, &receivedAt); err != nil {
			return nil, fmt.Errorf("[sqlstore List] scan: %w", err)
		}
		entry.ReceivedAt = time.Unix(0, receivedAt).UTC()
		logs = append(logs, &entry)
	}
	return logs, rows.Err()
}
