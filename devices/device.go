package devices

import "time"

// Device is the registry entry for a device that may submit telemetry.
type Device struct {
	ID        string    `json:"device_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential is the per-device secret material used to verify handshakes and
// to sign the tokens issued to that device.
type Credential struct {
	DeviceID  string
	SharedKey []byte // Opaque HMAC key, never logged or returned to callers
	Active    bool   // Writes are rejected while false
}

// String keeps the shared key out of formatted output.
func (c Credential) String() string {
	return "Credential{DeviceID: " + c.DeviceID + ", SharedKey: [redacted]}"
}
