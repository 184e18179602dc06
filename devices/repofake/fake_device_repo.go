package devicerepofake

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/device-auth-server/devices"
	"github.com/jrsteele09/device-auth-server/internal/errors"
)

var (
	_ devices.Repo           = (*FakeDeviceRepo)(nil)
	_ devices.CredentialRepo = (*FakeDeviceRepo)(nil)
)

// FakeDeviceRepo keeps the registry and credentials in memory.
type FakeDeviceRepo struct {
	devices     map[string]*devices.Device
	credentials map[string]*devices.Credential
	lock        sync.RWMutex
}

func NewFakeDeviceRepo() *FakeDeviceRepo {
	return &FakeDeviceRepo{
		devices:     make(map[string]*devices.Device),
		credentials: make(map[string]*devices.Credential),
	}
}

func (dr *FakeDeviceRepo) Upsert(_ context.Context, device *devices.Device) error {
	dr.lock.Lock()
	defer dr.lock.Unlock()
	d := *device
	dr.devices[device.ID] = &d
	return nil
}

func (dr *FakeDeviceRepo) Get(_ context.Context, deviceID string) (*devices.Device, error) {
	dr.lock.RLock()
	defer dr.lock.RUnlock()
	d, ok := dr.devices[deviceID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	device := *d
	return &device, nil
}

func (dr *FakeDeviceRepo) List(_ context.Context, offset, limit int) ([]*devices.Device, error) {
	dr.lock.RLock()
	defer dr.lock.RUnlock()

	list := make([]*devices.Device, 0, len(dr.devices))
	for _, d := range dr.devices {
		device := *d
		list = append(list, &device)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if offset >= len(list) {
		return []*devices.Device{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}

func (dr *FakeDeviceRepo) UpsertCredential(_ context.Context, credential *devices.Credential) error {
	dr.lock.Lock()
	defer dr.lock.Unlock()
	c := *credential
	c.SharedKey = append([]byte(nil), credential.SharedKey...)
	dr.credentials[credential.DeviceID] = &c
	return nil
}

func (dr *FakeDeviceRepo) GetCredential(_ context.Context, deviceID string) (*devices.Credential, error) {
	dr.lock.RLock()
	defer dr.lock.RUnlock()
	c, ok := dr.credentials[deviceID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	credential := *c
	return &credential, nil
}
