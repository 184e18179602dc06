package config

import (
	"time"

	"github.com/spf13/viper"
)

// Supported STORE_DRIVER values
const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Supported TOKEN_STORE values
const (
	TokenStoreSQL   = "sql"
	TokenStoreRedis = "redis"
)

const (
	storeDriverVar   = "STORE_DRIVER"
	storeDSNVar      = "STORE_DSN"
	storeTimeoutVar  = "STORE_TIMEOUT"
	tokenStoreVar    = "TOKEN_STORE"
	redisAddrVar     = "REDIS_ADDR"
	redisPasswordVar = "REDIS_PASSWORD"
	redisDBVar       = "REDIS_DB"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetStoreDSN() string
	GetStoreTimeout() time.Duration
	GetTokenStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Store struct {
	v *viper.Viper
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string {
	return s.v.GetString(storeDriverVar)
}

// GetStoreDSN is a file path for sqlite and a connection string for postgres.
func (s Store) GetStoreDSN() string {
	return s.v.GetString(storeDSNVar)
}

func (s Store) GetStoreTimeout() time.Duration {
	return s.v.GetDuration(storeTimeoutVar)
}

func (s Store) GetTokenStore() string {
	return s.v.GetString(tokenStoreVar)
}

func (s Store) GetRedisAddr() string {
	return s.v.GetString(redisAddrVar)
}

func (s Store) GetRedisPassword() string {
	return s.v.GetString(redisPasswordVar)
}

func (s Store) GetRedisDB() int {
	return s.v.GetInt(redisDBVar)
}
