package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/jrsteele09/device-auth-server/internal/utils"
)

// TypeBearer is the application level type tag carried by every issued token.
const TypeBearer = "Bearer"

// Kind distinguishes the two tokens issued on a handshake.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// DocumentID is the name the token is stored under, per device.
func (k Kind) DocumentID() string {
	switch k {
	case KindAccess:
		return "accessToken"
	case KindRefresh:
		return "refreshToken"
	default:
		return string(k)
	}
}

// IssuedToken is the persisted record of the live token of one kind for one
// device. The signed string itself is not stored; it is reproducible from the
// record and the device's shared key.
type IssuedToken struct {
	DeviceID  string `json:"device_id"`
	Kind      Kind   `json:"-"`
	Type      string `json:"type"`
	IssuedAt  int64  `json:"iat"` // Unix seconds
	ExpiresAt int64  `json:"exp"` // Unix seconds
}

// Claims are the flat claims carried by handshake signatures and issued tokens.
type Claims struct {
	Type      string `json:"type"`
	DeviceID  string `json:"device_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// MapClaims converts the claims for signing.
func (c Claims) MapClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"type":      c.Type,
		"device_id": c.DeviceID,
		"iat":       c.IssuedAt,
		"exp":       c.ExpiresAt,
	}
}

// Matches reports whether the claims describe the stored token record.
func (c Claims) Matches(t *IssuedToken) bool {
	return t != nil &&
		c.DeviceID == t.DeviceID &&
		c.Type == t.Type &&
		c.IssuedAt == t.IssuedAt &&
		c.ExpiresAt == t.ExpiresAt
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	deviceID, ok := m["device_id"].(string)
	if !ok || deviceID == "" {
		return nil, fmt.Errorf("%w: missing device_id claim", errors.ErrSignatureInvalid)
	}
	exp, ok := utils.ToInt64(m["exp"])
	if !ok {
		return nil, fmt.Errorf("%w: missing exp claim", errors.ErrSignatureInvalid)
	}
	// iat and type are optional on handshake signatures
	iat, _ := utils.ToInt64(m["iat"])
	typ, _ := m["type"].(string)

	return &Claims{
		Type:      typ,
		DeviceID:  deviceID,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}

// HandshakeRequest is the body a device posts to obtain a token pair.
type HandshakeRequest struct {
	DeviceID  string `json:"device_id"`
	CreatedAt int64  `json:"created_at"`
	Signature string `json:"signature"`
}

// Pair is the result of a successful handshake.
type Pair struct {
	AccessToken  string
	RefreshToken string
}
