package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/jrsteele09/device-auth-server/token"
)

// TokenRepo implements token.Repo.
type TokenRepo struct {
	store *Store
}

var _ token.Repo = (*TokenRepo)(nil)

// Put upserts the token record keyed on (device_id, kind).
func (r *TokenRepo) Put(ctx context.Context, issued *token.IssuedToken) error {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, r.store.rebind(`
		INSERT INTO device_tokens (device_id, kind, type, iat, exp) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (device_id, kind) DO UPDATE SET type = excluded.type, iat = excluded.iat, exp = excluded.exp`),
		issued.DeviceID, string(issued.Kind), issued.Type, issued.IssuedAt, issued.ExpiresAt)
	if err != nil {
		return fmt.Errorf("[sqlstore Put] %s token for %s: %w", issued.Kind, issued.DeviceID, err)
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, deviceID string, kind token.Kind) (*token.IssuedToken, error) {
	ctx, cancel := r.store.opContext(ctx)
	defer cancel()

	t := token.IssuedToken{DeviceID: deviceID, Kind: kind}
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT type, iat, exp FROM device_tokens WHERE device_id = ? AND kind = ?`), deviceID, string(kind)).
		Scan(&t.Type, &t.IssuedAt, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[sqlstore Get] %s token for %s: %w", kind, deviceID, err)
	}
	return &t, nil
}
