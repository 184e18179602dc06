// Package redisstore keeps issued token records in Redis, expiring each key
// with its token.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/jrsteele09/device-auth-server/token"
)

// expiredGrace keeps a record readable after its token expires so a validator
// reports the token as expired rather than missing.
const expiredGrace = time.Hour

// TokenRepo implements token.Repo using Redis
type TokenRepo struct {
	client *redis.Client
}

var _ token.Repo = (*TokenRepo)(nil)

// Connect creates a Redis-backed token repo and checks the connection.
func Connect(ctx context.Context, addr, password string, db int) (*TokenRepo, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("[redisstore Connect] failed to connect to Redis: %w", err)
	}
	return &TokenRepo{client: client}, nil
}

// Key returns the Redis key of a device's token of the given kind.
func Key(deviceID string, kind token.Kind) string {
	return fmt.Sprintf("device_tokens/%s/AR_Tokens/%s", deviceID, kind.DocumentID())
}

// Close closes the Redis connection
func (r *TokenRepo) Close() error {
	return r.client.Close()
}

// Health checks the Redis connection health
func (r *TokenRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *TokenRepo) Put(ctx context.Context, issued *token.IssuedToken) error {
	data, err := json.Marshal(issued)
	if err != nil {
		return fmt.Errorf("[redisstore Put] marshal: %w", err)
	}

	ttl := time.Until(time.Unix(issued.ExpiresAt, 0)) + expiredGrace
	if ttl < expiredGrace {
		ttl = expiredGrace
	}
	if err := r.client.Set(ctx, Key(issued.DeviceID, issued.Kind), data, ttl).Err(); err != nil {
		return fmt.Errorf("[redisstore Put] %s token for %s: %w", issued.Kind, issued.DeviceID, err)
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, deviceID string, kind token.Kind) (*token.IssuedToken, error) {
	data, err := r.client.Get(ctx, Key(deviceID, kind)).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[redisstore Get] %s token for %s: %w", kind, deviceID, err)
	}

	var issued token.IssuedToken
	if err := json.Unmarshal(data, &issued); err != nil {
		return nil, fmt.Errorf("[redisstore Get] unmarshal: %w", err)
	}
	issued.Kind = kind
	return &issued, nil
}
