package tokenfakerepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/device-auth-server/internal/errors"
	"github.com/jrsteele09/device-auth-server/token"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

type tokenKey struct {
	deviceID string
	kind     token.Kind
}

type FakeTokenRepo struct {
	tokens map[tokenKey]*token.IssuedToken
	lock   sync.RWMutex
}

func NewFakeTokensRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		tokens: make(map[tokenKey]*token.IssuedToken),
	}
}

func (tr *FakeTokenRepo) Put(_ context.Context, issued *token.IssuedToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	t := *issued
	tr.tokens[tokenKey{issued.DeviceID, issued.Kind}] = &t
	return nil
}

func (tr *FakeTokenRepo) Get(_ context.Context, deviceID string, kind token.Kind) (*token.IssuedToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tokens[tokenKey{deviceID, kind}]
	if !ok {
		return nil, errors.ErrNotFound
	}
	issued := *t
	return &issued, nil
}

// Count returns the number of stored tokens for deviceID across all kinds.
func (tr *FakeTokenRepo) Count(deviceID string) int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	n := 0
	for k := range tr.tokens {
		if k.deviceID == deviceID {
			n++
		}
	}
	return n
}
