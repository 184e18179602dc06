package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/device-auth-server/devices"
	devicerepofake "github.com/jrsteele09/device-auth-server/devices/repofake"
	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/token"
	tokenfakerepo "github.com/jrsteele09/device-auth-server/token/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testDeviceID    = "dev-1"
	testOtherDevice = "dev-2"
	testSecret      = "s3cret"
	testOtherSecret = "other-s3cret"
)

var testEpoch = time.Unix(1_700_000_000, 0)

// testFixture holds all test dependencies
type testFixture struct {
	now       time.Time
	devices   *devicerepofake.FakeDeviceRepo
	tokens    *tokenfakerepo.FakeTokenRepo
	verifier  *token.Verifier
	issuer    *token.Issuer
	validator *token.DeviceTokenValidator
}

// setupTestFixture registers dev-1 (s3cret) and dev-2 (other-s3cret), both active.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:     testEpoch,
		devices: devicerepofake.NewFakeDeviceRepo(),
		tokens:  tokenfakerepo.NewFakeTokensRepo(),
	}
	f.verifier = token.NewVerifier(token.WithNowTime(func() time.Time { return f.now }))
	f.rebuild(t, token.Repos{Credentials: f.devices, Tokens: f.tokens})

	f.addCredential(t, testDeviceID, testSecret, true)
	f.addCredential(t, testOtherDevice, testOtherSecret, true)
	return f
}

func (f *testFixture) rebuild(t *testing.T, repos token.Repos) {
	t.Helper()

	issuer, err := token.NewIssuer(repos, config.Token{}, f.verifier)
	require.NoError(t, err)
	validator, err := token.NewDeviceTokenValidator(repos, f.verifier)
	require.NoError(t, err)

	f.issuer = issuer
	f.validator = validator
}

func (f *testFixture) addCredential(t *testing.T, deviceID, secret string, active bool) {
	t.Helper()
	require.NoError(t, f.devices.UpsertCredential(context.Background(), &devices.Credential{
		DeviceID:  deviceID,
		SharedKey: []byte(secret),
		Active:    active,
	}))
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// signature builds a handshake signature for deviceID valid for one minute.
func (f *testFixture) signature(t *testing.T, deviceID, secret string) string {
	t.Helper()
	return sign(t, secret, token.Claims{
		Type:      token.TypeBearer,
		DeviceID:  deviceID,
		IssuedAt:  f.now.Unix(),
		ExpiresAt: f.now.Add(time.Minute).Unix(),
	})
}

func (f *testFixture) handshake(t *testing.T, deviceID, secret string) *token.Pair {
	t.Helper()
	pair, err := f.issuer.Handshake(context.Background(), token.HandshakeRequest{
		DeviceID:  deviceID,
		CreatedAt: f.now.Unix(),
		Signature: f.signature(t, deviceID, secret),
	})
	require.NoError(t, err)
	return pair
}

func sign(t *testing.T, secret string, claims token.Claims) string {
	t.Helper()
	signed, err := token.NewHMACSigner([]byte(secret)).Sign(claims.MapClaims())
	require.NoError(t, err)
	return signed
}

var errStoreDown = errors.New("connection refused")

// failingTokenRepo fails Put for one kind and, optionally, every Get.
type failingTokenRepo struct {
	token.Repo
	failPut token.Kind
	failGet bool
}

func (r *failingTokenRepo) Put(ctx context.Context, issued *token.IssuedToken) error {
	if issued.Kind == r.failPut {
		return errStoreDown
	}
	return r.Repo.Put(ctx, issued)
}

func (r *failingTokenRepo) Get(ctx context.Context, deviceID string, kind token.Kind) (*token.IssuedToken, error) {
	if r.failGet {
		return nil, errStoreDown
	}
	return r.Repo.Get(ctx, deviceID, kind)
}
