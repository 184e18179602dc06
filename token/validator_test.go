package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/jrsteele09/device-auth-server/token"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc", "abc", false},
		{"", "", true},
		{"Bearer", "", true},
		{"Bearer ", "", true},
		{"Basic dXNlcjpwYXNz", "", true},
		{"Bearer a b", "", true},
		{"abc.def.ghi", "", true},
	}
	for _, tt := range tests {
		got, err := token.BearerToken(tt.header)
		if tt.err {
			require.ErrorIs(t, err, errors.ErrMalformedHeader, tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		require.Equal(t, tt.want, got)
	}
}

func TestDeviceTokenValidator_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("authorized", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)

		claims, err := f.validator.Validate(ctx, testDeviceID, "Bearer "+pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, testDeviceID, claims.DeviceID)
	})

	t.Run("malformed header", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)

		_, err := f.validator.Validate(ctx, testDeviceID, pair.AccessToken)
		require.ErrorIs(t, err, errors.ErrMalformedHeader)
	})

	t.Run("undecodable token", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.validator.Validate(ctx, testDeviceID, "Bearer not-a-jwt")
		require.ErrorIs(t, err, errors.ErrSignatureInvalid)
	})

	t.Run("no stored token", func(t *testing.T) {
		f := setupTestFixture(t)
		raw := sign(t, testSecret, token.Claims{
			Type:      token.TypeBearer,
			DeviceID:  testDeviceID,
			IssuedAt:  f.now.Unix(),
			ExpiresAt: f.now.Add(15 * time.Minute).Unix(),
		})
		_, err := f.validator.Validate(ctx, testDeviceID, "Bearer "+raw)
		require.ErrorIs(t, err, errors.ErrTokenNotFound)
	})

	t.Run("unknown device", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.validator.Validate(ctx, "ghost", "Bearer "+f.signature(t, "ghost", testSecret))
		require.ErrorIs(t, err, errors.ErrTokenNotFound)
	})

	t.Run("inactive credential", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)
		f.addCredential(t, testDeviceID, testSecret, false)

		_, err := f.validator.Validate(ctx, testDeviceID, "Bearer "+pair.AccessToken)
		require.ErrorIs(t, err, errors.ErrTokenInactive)
	})

	t.Run("expired", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)
		f.advance(15 * time.Minute)

		_, err := f.validator.Validate(ctx, testDeviceID, "Bearer "+pair.AccessToken)
		require.ErrorIs(t, err, errors.ErrSignatureExpired)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)
		issued, err := f.verifier.Verify(pair.AccessToken, []byte(testSecret))
		require.NoError(t, err)

		forged := sign(t, testOtherSecret, *issued)
		_, err = f.validator.Validate(ctx, testDeviceID, "Bearer "+forged)
		require.ErrorIs(t, err, errors.ErrSignatureInvalid)
	})

	t.Run("token for another device", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)
		f.handshake(t, testOtherDevice, testOtherSecret)

		_, err := f.validator.Validate(ctx, testOtherDevice, "Bearer "+pair.AccessToken)
		require.ErrorIs(t, err, errors.ErrDeviceMismatch)
	})

	t.Run("superseded token", func(t *testing.T) {
		f := setupTestFixture(t)
		first := f.handshake(t, testDeviceID, testSecret)
		f.advance(time.Minute)
		second := f.handshake(t, testDeviceID, testSecret)

		_, err := f.validator.Validate(ctx, testDeviceID, "Bearer "+first.AccessToken)
		require.ErrorIs(t, err, errors.ErrSignatureInvalid)

		_, err = f.validator.Validate(ctx, testDeviceID, "Bearer "+second.AccessToken)
		require.NoError(t, err)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)

		_, err := f.validator.Validate(ctx, testDeviceID, "Bearer "+pair.RefreshToken)
		require.ErrorIs(t, err, errors.ErrSignatureInvalid)
	})

	t.Run("store unavailable", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)
		f.rebuild(t, token.Repos{Credentials: f.devices, Tokens: &failingTokenRepo{Repo: f.tokens, failGet: true}})

		_, err := f.validator.Validate(ctx, testDeviceID, "Bearer "+pair.AccessToken)
		require.ErrorIs(t, err, errors.ErrStoreUnavailable)
	})
}
