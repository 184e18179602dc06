package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the device authentication core
var (
	// Bearer header errors
	ErrMalformedHeader = errors.New("malformed authorization header")

	// Credential and token lookup errors
	ErrCredentialNotFound = errors.New("device credential not found")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenInactive      = errors.New("token inactive")

	// Signature errors
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrSignatureExpired = errors.New("signature expired")

	// Authorization errors
	ErrDeviceMismatch = errors.New("token not valid for this device")

	// Registry errors
	ErrDeviceNotFound = errors.New("device not found")

	// Store errors
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// StoreErr classifies an error returned by a store. Misses are returned as
// ErrNotFound, everything else is reported as ErrStoreUnavailable.
func StoreErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return Wrapf(err, format, args...)
	}
	return fmt.Errorf(format+": %w: %w", append(args, ErrStoreUnavailable, err)...)
}
