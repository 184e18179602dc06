package token

import (
	"context"
	"fmt"

	"github.com/jrsteele09/device-auth-server/devices"
)

// Repo persists the live token of each kind per device. Put overwrites any
// existing token of the same kind for the device.
type Repo interface {
	Put(ctx context.Context, token *IssuedToken) error
	Get(ctx context.Context, deviceID string, kind Kind) (*IssuedToken, error)
}

// Repos is the credential store consumed by the issuer and the validator.
type Repos struct {
	Credentials devices.CredentialRepo
	Tokens      Repo
}

func (r Repos) validate(caller string) error {
	if r.Credentials == nil {
		return fmt.Errorf("[%s] credentials repo is required", caller)
	}
	if r.Tokens == nil {
		return fmt.Errorf("[%s] tokens repo is required", caller)
	}
	return nil
}
