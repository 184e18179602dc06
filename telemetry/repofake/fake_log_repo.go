package telemetryrepofake

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/device-auth-server/telemetry"
)

var _ telemetry.Repo = (*FakeLogRepo)(nil)

type FakeLogRepo struct {
	logs map[string][]*telemetry.Log // device ID to logs in insertion order
	lock sync.RWMutex
}

func NewFakeLogRepo() *FakeLogRepo {
	return &FakeLogRepo{
		logs: make(map[string][]*telemetry.Log),
	}
}

func (lr *FakeLogRepo) Add(_ context.Context, entry *telemetry.Log) error {
	lr.lock.Lock()
	defer lr.lock.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	l := *entry
	lr.logs[entry.DeviceID] = append(lr.logs[entry.DeviceID], &l)
	return nil
}

func (lr *FakeLogRepo) List(_ context.Context, deviceID string) ([]*telemetry.Log, error) {
	lr.lock.RLock()
	defer lr.lock.RUnlock()
	logs := make([]*telemetry.Log, 0, len(lr.logs[deviceID]))
	for _, l := range lr.logs[deviceID] {
		entry := *l
		logs = append(logs, &entry)
	}
	return logs, nil
}
