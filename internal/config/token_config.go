package config

import "time"

type TokenConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetAccessTokenExpiry() time.Duration {
	return 15 * time.Minute
}

func (Token) GetRefreshTokenExpiry() time.Duration {
	return 60 * time.Minute
}
