package token

import "time"

// Clock supplies the current time for issued-at, expiry and verification.
type Clock func() time.Time

// VerifierOption defines a function type to modify the Verifier instance.
type VerifierOption func(*Verifier)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(now Clock) VerifierOption {
	return func(v *Verifier) {
		v.nowTime = now
	}
}
