package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jrsteele09/device-auth-server/devices"
	"github.com/jrsteele09/device-auth-server/internal/errors"
)

// DeviceRepo implements devices.Repo and devices.CredentialRepo.
type DeviceRepo struct {
	store *Store
}

var (
	_ devices.Repo           = (*DeviceRepo)(nil)
	_ devices.CredentialRepo = (*DeviceRepo)(nil)
)

func (r *DeviceRepo) Upsert(ctx context.Context, device *devices.Device) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, r.store.rebind(`
		INSERT INTO devices (device_id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET name = excluded.name`),
		device.ID, device.Name, device.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("[sqlstore Upsert] device %s: %w", device.ID, err)
	}
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, deviceID string) (*devices.Device, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	var (
		d         devices.Device
		createdAt int64
	)
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT device_id, name, created_at FROM devices WHERE device_id = ?`), deviceID).
		Scan(&d.ID, &d.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[sqlstore Get] device %s: %w", deviceID, err)
	}
	d.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &d, nil
}

// List returns devices ordered by ID. A non-positive limit returns all rows
// from offset.
func (r *DeviceRepo) List(ctx context.Context, offset, limit int) ([]*devices.Device, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = -1
		if r.store.dialect == Postgres {
			limit = 1<<31 - 1
		}
	}
	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(`SELECT device_id, name, created_at FROM devices ORDER BY device_id LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("[sqlstore List] devices: %w", err)
	}
	defer rows.Close()

	list := make([]*devices.Device, 0)
	for rows.Next() {
		var (
			d         devices.Device
			createdAt int64
		)
		if err := rows.Scan(&d.ID, &d.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("[sqlstore List] scan: %w", err)
		}
		d.CreatedAt = time.Unix(createdAt, 0).UTC()
		list = append(list, &d)
	}
	return list, rows.Err()
}

func (r *DeviceRepo) UpsertCredential(ctx context.Context, credential *devices.Credential) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, r.store.rebind(`
		INSERT INTO device_credentials (device_id, shared_key, active) VALUES (?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET shared_key = excluded.shared_key, active = excluded.active`),
		credential.DeviceID, credential.SharedKey, credential.Active)
	if err != nil {
		return fmt.Errorf("[sqlstore UpsertCredential] %s: %w", credential.DeviceID, err)
	}
	return nil
}

func (r *DeviceRepo) GetCredential(ctx context.Context, deviceID string) (*devices.Credential, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	c := devices.Credential{DeviceID: deviceID}
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT shared_key, active FROM device_credentials WHERE device_id = ?`), deviceID).
		Scan(&c.SharedKey, &c.Active)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[sqlstore GetCredential] %s: %w", deviceID, err)
	}
	return &c, nil
}
