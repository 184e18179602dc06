package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/jrsteele09/device-auth-server/token"
	"github.com/stretchr/testify/require"
)

func TestNewIssuer_RequiresDependencies(t *testing.T) {
	f := setupTestFixture(t)

	_, err := token.NewIssuer(token.Repos{Tokens: f.tokens}, config.Token{}, f.verifier)
	require.Error(t, err)
	_, err = token.NewIssuer(token.Repos{Credentials: f.devices}, config.Token{}, f.verifier)
	require.Error(t, err)
	_, err = token.NewIssuer(token.Repos{Credentials: f.devices, Tokens: f.tokens}, nil, f.verifier)
	require.Error(t, err)
	_, err = token.NewIssuer(token.Repos{Credentials: f.devices, Tokens: f.tokens}, config.Token{}, nil)
	require.Error(t, err)
}

func TestIssuer_Handshake(t *testing.T) {
	ctx := context.Background()

	t.Run("issues access and refresh tokens", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)

		access, err := f.verifier.Verify(pair.AccessToken, []byte(testSecret))
		require.NoError(t, err)
		require.Equal(t, testDeviceID, access.DeviceID)
		require.Equal(t, token.TypeBearer, access.Type)
		require.Equal(t, f.now.Unix(), access.IssuedAt)
		require.Equal(t, int64(900), access.ExpiresAt-access.IssuedAt)

		refresh, err := f.verifier.Verify(pair.RefreshToken, []byte(testSecret))
		require.NoError(t, err)
		require.Equal(t, testDeviceID, refresh.DeviceID)
		require.Equal(t, int64(3600), refresh.ExpiresAt-refresh.IssuedAt)

		storedAccess, err := f.tokens.Get(ctx, testDeviceID, token.KindAccess)
		require.NoError(t, err)
		require.True(t, access.Matches(storedAccess))

		storedRefresh, err := f.tokens.Get(ctx, testDeviceID, token.KindRefresh)
		require.NoError(t, err)
		require.True(t, refresh.Matches(storedRefresh))
	})

	t.Run("issued tokens do not verify with another key", func(t *testing.T) {
		f := setupTestFixture(t)
		pair := f.handshake(t, testDeviceID, testSecret)

		_, err := f.verifier.Verify(pair.AccessToken, []byte(testOtherSecret))
		require.ErrorIs(t, err, errors.ErrSignatureInvalid)
	})

	t.Run("unregistered device", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.issuer.Handshake(ctx, token.HandshakeRequest{
			DeviceID:  "ghost",
			Signature: f.signature(t, "ghost", testSecret),
		})
		require.ErrorIs(t, err, errors.ErrCredentialNotFound)
		require.Zero(t, f.tokens.Count("ghost"))
	})

	t.Run("wrong secret", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.issuer.Handshake(ctx, token.HandshakeRequest{
			DeviceID:  testDeviceID,
			Signature: f.signature(t, testDeviceID, "wrong"),
		})
		require.ErrorIs(t, err, errors.ErrSignatureInvalid)
		require.Zero(t, f.tokens.Count(testDeviceID))
	})

	t.Run("expired signature", func(t *testing.T) {
		f := setupTestFixture(t)
		sig := f.signature(t, testDeviceID, testSecret)
		f.advance(2 * time.Minute)

		_, err := f.issuer.Handshake(ctx, token.HandshakeRequest{DeviceID: testDeviceID, Signature: sig})
		require.ErrorIs(t, err, errors.ErrSignatureExpired)
		require.Zero(t, f.tokens.Count(testDeviceID))
	})

	t.Run("signature claims another device", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.issuer.Handshake(ctx, token.HandshakeRequest{
			DeviceID:  testDeviceID,
			Signature: f.signature(t, testOtherDevice, testSecret),
		})
		require.ErrorIs(t, err, errors.ErrSignatureInvalid)
		require.Zero(t, f.tokens.Count(testDeviceID))
	})

	t.Run("inactive device can still handshake", func(t *testing.T) {
		f := setupTestFixture(t)
		f.addCredential(t, testDeviceID, testSecret, false)
		f.handshake(t, testDeviceID, testSecret)
		require.Equal(t, 2, f.tokens.Count(testDeviceID))
	})

	t.Run("second handshake overwrites the first", func(t *testing.T) {
		f := setupTestFixture(t)
		f.handshake(t, testDeviceID, testSecret)
		f.advance(30 * time.Second)
		second := f.handshake(t, testDeviceID, testSecret)

		require.Equal(t, 2, f.tokens.Count(testDeviceID))

		stored, err := f.tokens.Get(ctx, testDeviceID, token.KindAccess)
		require.NoError(t, err)
		claims, err := f.verifier.Verify(second.AccessToken, []byte(testSecret))
		require.NoError(t, err)
		require.True(t, claims.Matches(stored))
	})

	t.Run("store unavailable on access write", func(t *testing.T) {
		f := setupTestFixture(t)
		f.rebuild(t, token.Repos{Credentials: f.devices, Tokens: &failingTokenRepo{Repo: f.tokens, failPut: token.KindAccess}})

		_, err := f.issuer.Handshake(ctx, token.HandshakeRequest{
			DeviceID:  testDeviceID,
			Signature: f.signature(t, testDeviceID, testSecret),
		})
		require.ErrorIs(t, err, errors.ErrStoreUnavailable)
		require.Zero(t, f.tokens.Count(testDeviceID))
	})

	t.Run("refresh write failure leaves access token live", func(t *testing.T) {
		f := setupTestFixture(t)
		f.rebuild(t, token.Repos{Credentials: f.devices, Tokens: &failingTokenRepo{Repo: f.tokens, failPut: token.KindRefresh}})

		_, err := f.issuer.Handshake(ctx, token.HandshakeRequest{
			DeviceID:  testDeviceID,
			Signature: f.signature(t, testDeviceID, testSecret),
		})
		require.ErrorIs(t, err, errors.ErrStoreUnavailable)

		_, err = f.tokens.Get(ctx, testDeviceID, token.KindAccess)
		require.NoError(t, err)
		_, err = f.tokens.Get(ctx, testDeviceID, token.KindRefresh)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})
}
