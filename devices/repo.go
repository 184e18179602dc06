package devices

import "context"

// Repo is the device registry.
type Repo interface {
	Upsert(ctx context.Context, device *Device) error
	Get(ctx context.Context, deviceID string) (*Device, error)
	List(ctx context.Context, offset, limit int) ([]*Device, error)
}

// CredentialRepo holds device shared keys. The authentication core only reads
// from it; credentials are written out of band by the admin CLI.
type CredentialRepo interface {
	UpsertCredential(ctx context.Context, credential *Credential) error
	GetCredential(ctx context.Context, deviceID string) (*Credential, error)
}
