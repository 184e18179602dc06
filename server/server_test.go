package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/device-auth-server/devices"
	devicerepofake "github.com/jrsteele09/device-auth-server/devices/repofake"
	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/server"
	"github.com/jrsteele09/device-auth-server/telemetry"
	telemetryrepofake "github.com/jrsteele09/device-auth-server/telemetry/repofake"
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

type testFixture struct {
	now      time.Time
	devices  *devicerepofake.FakeDeviceRepo
	tokens   *tokenfakerepo.FakeTokenRepo
	logs     *telemetryrepofake.FakeLogRepo
	services server.Services
	handler  http.Handler
}

// setupTestFixture registers dev-1 and dev-2 with active credentials and
// registry records.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:     testEpoch,
		devices: devicerepofake.NewFakeDeviceRepo(),
		tokens:  tokenfakerepo.NewFakeTokensRepo(),
		logs:    telemetryrepofake.NewFakeLogRepo(),
	}
	f.build(t, f.devices)

	for id, secret := range map[string]string{testDeviceID: testSecret, testOtherDevice: testOtherSecret} {
		f.addCredential(t, id, secret, true)
		require.NoError(t, f.devices.Upsert(context.Background(), &devices.Device{ID: id, Name: "sensor " + id, CreatedAt: testEpoch}))
	}
	return f
}

func (f *testFixture) build(t *testing.T, credentials devices.CredentialRepo) {
	t.Helper()

	clock := func() time.Time { return f.now }
	verifier := token.NewVerifier(token.WithNowTime(clock))
	repos := token.Repos{Credentials: credentials, Tokens: f.tokens}

	issuer, err := token.NewIssuer(repos, config.Token{}, verifier)
	require.NoError(t, err)
	validator, err := token.NewDeviceTokenValidator(repos, verifier)
	require.NoError(t, err)
	recorder, err := telemetry.NewRecorder(f.devices, f.logs, telemetry.WithNowTime(clock))
	require.NoError(t, err)

	f.services = server.Services{
		Issuer:    issuer,
		Validator: validator,
		Recorder:  recorder,
		Devices:   f.devices,
	}
	srv, err := server.New(config.New(), f.services)
	require.NoError(t, err)
	f.handler = srv
}

func (f *testFixture) addCredential(t *testing.T, deviceID, secret string, active bool) {
	t.Helper()
	require.NoError(t, f.devices.UpsertCredential(context.Background(), &devices.Credential{
		DeviceID:  deviceID,
		SharedKey: []byte(secret),
		Active:    active,
	}))
}

func (f *testFixture) signature(t *testing.T, deviceID, secret string) string {
	t.Helper()
	claims := token.Claims{
		Type:      token.TypeBearer,
		DeviceID:  deviceID,
		IssuedAt:  f.now.Unix(),
		ExpiresAt: f.now.Add(time.Minute).Unix(),
	}
	signed, err := token.NewHMACSigner([]byte(secret)).Sign(claims.MapClaims())
	require.NoError(t, err)
	return signed
}

func (f *testFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) handshake(t *testing.T, deviceID, secret string) server.HandshakeResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/device/"+deviceID+"/auth", map[string]any{
		"device_id":  deviceID,
		"created_at": f.now.Unix(),
		"signature":  f.signature(t, deviceID, secret),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp server.HandshakeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (f *testFixture) postLog(t *testing.T, deviceID, accessToken string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/device/"+deviceID+"/log",
		map[string]any{"status_int": 3, "created_at": f.now.Unix()},
		map[string]string{"Authorization": "Bearer " + accessToken})
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

// failingCredentialRepo simulates an unreachable credential store
type failingCredentialRepo struct{}

func (failingCredentialRepo) UpsertCredential(context.Context, *devices.Credential) error {
	return errors.New("connection refused")
}

func (failingCredentialRepo) GetCredential(context.Context, string) (*devices.Credential, error) {
	return nil, errors.New("connection refused")
}
