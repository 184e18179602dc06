package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/device-auth-server/internal/errors"
)

const contentTypeJSON = "application/json"

// Client facing messages. They never carry internal error text.
const (
	detailInvalidBody        = "Invalid request body"
	detailDeviceIDMismatch   = "device_id does not match the request path"
	detailCredentialNotFound = "Device credential not found"
	detailUnauthorized       = "Unauthorized Access"
	detailDeviceNotFound     = "Device not found"
	detailInvalidTokenFormat = "Invalid token format"
	detailTokenNotFound      = "Token not found"
	detailTokenExpired       = "Token expired"
	detailInvalidToken       = "Invalid token"
	detailTokenInactive      = "Token inactive"
	detailTokenWrongDevice   = "Token not valid for this device"
	detailStoreUnavailable   = "Service temporarily unavailable"
	detailInvalidPaging      = "offset and limit must be non-negative integers"
)

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes a {"detail": ...} error response
func writeJSONError(w http.ResponseWriter, detail string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"detail": detail})
}

// bearerFailure maps a BearerValidator error to its HTTP status and message.
func bearerFailure(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrMalformedHeader):
		return http.StatusUnauthorized, detailInvalidTokenFormat
	case errors.Is(err, errors.ErrTokenNotFound):
		return http.StatusUnauthorized, detailTokenNotFound
	case errors.Is(err, errors.ErrSignatureExpired):
		return http.StatusUnauthorized, detailTokenExpired
	case errors.Is(err, errors.ErrSignatureInvalid):
		return http.StatusUnauthorized, detailInvalidToken
	case errors.Is(err, errors.ErrTokenInactive):
		return http.StatusForbidden, detailTokenInactive
	case errors.Is(err, errors.ErrDeviceMismatch):
		return http.StatusForbidden, detailTokenWrongDevice
	default:
		return http.StatusInternalServerError, detailStoreUnavailable
	}
}

// handshakeFailure maps an Issuer error to its HTTP status and message. Every
// verification failure collapses into the same opaque message.
func handshakeFailure(err error) (int, string) {
	if errors.Is(err, errors.ErrCredentialNotFound) {
		return http.StatusNotFound, detailCredentialNotFound
	}
	return http.StatusInternalServerError, detailUnauthorized
}

// errorKind names the sentinel carried by err for log output.
func errorKind(err error) string {
	for _, kind := range []error{
		errors.ErrMalformedHeader,
		errors.ErrCredentialNotFound,
		errors.ErrTokenNotFound,
		errors.ErrTokenInactive,
		errors.ErrSignatureExpired,
		errors.ErrSignatureInvalid,
		errors.ErrDeviceMismatch,
		errors.ErrDeviceNotFound,
		errors.ErrStoreUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "unknown"
}
