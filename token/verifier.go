package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/device-auth-server/internal/errors"
)

// Verifier checks HS256 signed payloads against a device's shared key.
type Verifier struct {
	nowTime Clock
}

// NewVerifier creates a Verifier using the system clock unless overridden.
func NewVerifier(options ...VerifierOption) *Verifier {
	v := &Verifier{nowTime: time.Now}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Now returns the verifier's notion of the current time.
func (v *Verifier) Now() time.Time {
	return v.nowTime()
}

// Verify parses raw, checks its signature against secret and its expiry
// against the clock, and returns the decoded claims.
//
// An expired but correctly signed payload fails with ErrSignatureExpired; any
// other failure (bad signature, wrong algorithm, malformed, missing claims)
// fails with ErrSignatureInvalid.
func (v *Verifier) Verify(raw string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty key", errors.ErrSignatureInvalid)
	}

	signer := NewHMACSigner(secret)
	parsed, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, signer.GetVerificationKey,
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(v.nowTime),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", errors.ErrSignatureExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", errors.ErrSignatureInvalid, err)
	}
	if !parsed.Valid {
		return nil, errors.ErrSignatureInvalid
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: error extracting claims", errors.ErrSignatureInvalid)
	}
	return claimsFromMap(mapClaims)
}

// ClaimedDeviceID reads the device_id claim without verifying the signature.
// The result only selects which key to verify with.
func ClaimedDeviceID(raw string) (string, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrSignatureInvalid, err)
	}
	mapClaims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: error extracting claims", errors.ErrSignatureInvalid)
	}
	deviceID, _ := mapClaims["device_id"].(string)
	if deviceID == "" {
		return "", fmt.Errorf("%w: missing device_id claim", errors.ErrSignatureInvalid)
	}
	return deviceID, nil
}
