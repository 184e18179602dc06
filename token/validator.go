package token

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/device-auth-server/internal/errors"
)

// BearerValidator gates protected writes on an Authorization header.
// Exactly one implementation is wired per deployment.
type BearerValidator interface {
	// Validate authorizes authorization for writes on deviceID, returning the
	// verified claims.
	Validate(ctx context.Context, deviceID, authorization string) (*Claims, error)
}

// DeviceTokenValidator validates a bearer token against the shared key and the
// stored access-token record of the device the token claims to belong to.
//
// Failures, in the order they are checked:
//   - errors.ErrMalformedHeader: header is not "Bearer <token>"
//   - errors.ErrSignatureInvalid: token cannot be decoded
//   - errors.ErrTokenNotFound: no credential or no stored access token for the claimed device
//   - errors.ErrTokenInactive: the device's credential is inactive
//   - errors.ErrSignatureExpired / errors.ErrSignatureInvalid: signature or expiry check failed
//   - errors.ErrDeviceMismatch: the token belongs to another device
//   - errors.ErrSignatureInvalid: the token is not the device's current access token
//   - errors.ErrStoreUnavailable: the store could not be read
type DeviceTokenValidator struct {
	repos    Repos
	verifier *Verifier
}

var _ BearerValidator = (*DeviceTokenValidator)(nil)

// NewDeviceTokenValidator creates the validator.
func NewDeviceTokenValidator(repos Repos, verifier *Verifier) (*DeviceTokenValidator, error) {
	if err := repos.validate("NewDeviceTokenValidator"); err != nil {
		return nil, err
	}
	if verifier == nil {
		return nil, fmt.Errorf("[NewDeviceTokenValidator] verifier is required")
	}
	return &DeviceTokenValidator{
		repos:    repos,
		verifier: verifier,
	}, nil
}

func (v *DeviceTokenValidator) Validate(ctx context.Context, deviceID, authorization string) (*Claims, error) {
	raw, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	claimedID, err := ClaimedDeviceID(raw)
	if err != nil {
		return nil, err
	}

	credential, err := v.repos.Credentials.GetCredential(ctx, claimedID)
	if err != nil {
		return nil, lookupErr(err, "get credential")
	}
	stored, err := v.repos.Tokens.Get(ctx, claimedID, KindAccess)
	if err != nil {
		return nil, lookupErr(err, "get access token")
	}

	if !credential.Active {
		return nil, errors.ErrTokenInactive
	}

	claims, err := v.verifier.Verify(raw, credential.SharedKey)
	if err != nil {
		return nil, err
	}

	if claims.DeviceID != deviceID {
		return nil, errors.ErrDeviceMismatch
	}

	if !claims.Matches(stored) {
		return nil, fmt.Errorf("%w: token superseded", errors.ErrSignatureInvalid)
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(authorization string) (string, error) {
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.ErrMalformedHeader
	}
	token := strings.TrimSpace(parts[1])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", errors.ErrMalformedHeader
	}
	return token, nil
}

func lookupErr(err error, op string) error {
	if errors.Is(err, errors.ErrNotFound) {
		return fmt.Errorf("[DeviceTokenValidator] %s: %w", op, errors.ErrTokenNotFound)
	}
	return errors.StoreErr(err, "[DeviceTokenValidator] %s", op)
}
