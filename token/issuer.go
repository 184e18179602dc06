package token

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/internal/errors"
)

// Issuer runs the device handshake: it verifies the device's signature with
// the device's own shared key, then mints and persists an access and a
// refresh token signed with that same key.
type Issuer struct {
	repos         Repos
	verifier      *Verifier
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewIssuer initializes an Issuer. The verifier also supplies the clock used
// for iat/exp.
func NewIssuer(repos Repos, cfg config.TokenConfig, verifier *Verifier) (*Issuer, error) {
	if err := repos.validate("NewIssuer"); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("[NewIssuer] token config is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("[NewIssuer] verifier is required")
	}
	if cfg.GetAccessTokenExpiry() <= 0 || cfg.GetRefreshTokenExpiry() <= 0 {
		return nil, fmt.Errorf("[NewIssuer] token lifetimes must be positive")
	}

	return &Issuer{
		repos:         repos,
		verifier:      verifier,
		accessExpiry:  cfg.GetAccessTokenExpiry(),
		refreshExpiry: cfg.GetRefreshTokenExpiry(),
	}, nil
}

// Handshake authenticates req and returns a freshly issued token pair.
//
// Failures:
//   - errors.ErrCredentialNotFound: no credential for req.DeviceID
//   - errors.ErrSignatureInvalid / errors.ErrSignatureExpired: the signature did not verify
//   - errors.ErrStoreUnavailable: the store could not be read or written
//
// A failure persisting the refresh token leaves the already written access
// token in place.
func (i *Issuer) Handshake(ctx context.Context, req HandshakeRequest) (*Pair, error) {
	credential, err := i.repos.Credentials.GetCredential(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, fmt.Errorf("[Issuer Handshake] device %s: %w", req.DeviceID, errors.ErrCredentialNotFound)
		}
		return nil, errors.StoreErr(err, "[Issuer Handshake] get credential")
	}

	claims, err := i.verifier.Verify(req.Signature, credential.SharedKey)
	if err != nil {
		return nil, errors.Wrapf(err, "[Issuer Handshake] verify signature")
	}
	if claims.DeviceID != req.DeviceID {
		return nil, fmt.Errorf("[Issuer Handshake] signature issued for another device: %w", errors.ErrSignatureInvalid)
	}

	now := i.verifier.Now().Unix()
	signer := NewHMACSigner(credential.SharedKey)

	access, err := i.issue(ctx, signer, req.DeviceID, KindAccess, now, i.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := i.issue(ctx, signer, req.DeviceID, KindRefresh, now, i.refreshExpiry)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (i *Issuer) issue(ctx context.Context, signer Signer, deviceID string, kind Kind, now int64, lifetime time.Duration) (string, error) {
	record := &IssuedToken{
		DeviceID:  deviceID,
		Kind:      kind,
		Type:      TypeBearer,
		IssuedAt:  now,
		ExpiresAt: now + int64(lifetime/time.Second),
	}

	claims := Claims{
		Type:      record.Type,
		DeviceID:  record.DeviceID,
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
	}
	signed, err := signer.Sign(claims.MapClaims())
	if err != nil {
		return "", fmt.Errorf("[Issuer issue] sign %s token: %w", kind, err)
	}

	if err := i.repos.Tokens.Put(ctx, record); err != nil {
		return "", errors.StoreErr(err, "[Issuer issue] put %s token", kind)
	}
	return signed, nil
}
