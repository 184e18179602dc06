package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/device-auth-server/devices"
	devicerepofake "github.com/jrsteele09/device-auth-server/devices/repofake"
	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/store/redisstore"
	"github.com/jrsteele09/device-auth-server/store/sqlstore"
	"github.com/jrsteele09/device-auth-server/telemetry"
	"github.com/jrsteele09/device-auth-server/telemetry/influxsink"
	"github.com/jrsteele09/device-auth-server/telemetry/mqttsink"
	telemetryrepofake "github.com/jrsteele09/device-auth-server/telemetry/repofake"
	"github.com/jrsteele09/device-auth-server/token"
	tokenfakerepo "github.com/jrsteele09/device-auth-server/token/repofake"
	"github.com/rs/zerolog/log"
)

type stores struct {
	devices     devices.Repo
	credentials devices.CredentialRepo
	tokens      token.Repo
	logs        telemetry.Repo
	persistent  bool
	closers     []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Err(err).Msg("Failed to close store")
		}
	}
}

// openStores builds the repositories selected by STORE_DRIVER and TOKEN_STORE.
func openStores(ctx context.Context, c config.StoreConfig) (*stores, error) {
	s := &stores{}

	switch c.GetStoreDriver() {
	case config.StoreDriverMemory:
		deviceRepo := devicerepofake.NewFakeDeviceRepo()
		s.devices = deviceRepo
		s.credentials = deviceRepo
		s.tokens = tokenfakerepo.NewFakeTokensRepo()
		s.logs = telemetryrepofake.NewFakeLogRepo()
		log.Warn().Msg("Using the in-memory store, state is lost on restart")

	case config.StoreDriverSQLite, config.StoreDriverPostgres:
		db, err := sqlstore.Open(sqlstore.Dialect(c.GetStoreDriver()), c.GetStoreDSN(), c.GetStoreTimeout())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		deviceRepo := db.Devices()
		s.devices = deviceRepo
		s.credentials = deviceRepo
		s.tokens = db.Tokens()
		s.logs = db.Logs()
		s.persistent = true
		log.Info().Str("driver", c.GetStoreDriver()).Msg("Connected to database")

	default:
		return nil, fmt.Errorf("[openStores] unsupported STORE_DRIVER %q", c.GetStoreDriver())
	}

	switch c.GetTokenStore() {
	case config.TokenStoreSQL:
	case config.TokenStoreRedis:
		redisCtx, cancel := context.WithTimeout(ctx, c.GetStoreTimeout())
		defer cancel()
		tokens, err := redisstore.Connect(redisCtx, c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, tokens)
		s.tokens = tokens
		log.Info().Str("addr", c.GetRedisAddr()).Msg("Issued tokens stored in Redis")
	default:
		s.Close()
		return nil, fmt.Errorf("[openStores] unsupported TOKEN_STORE %q", c.GetTokenStore())
	}
	return s, nil
}

type sinks struct {
	sinks   []telemetry.Sink
	closers []io.Closer
}

func (s *sinks) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Err(err).Msg("Failed to close telemetry sink")
		}
	}
}

// openSinks connects the optional telemetry mirrors. A sink that cannot be
// reached is logged and skipped.
func openSinks(c config.TelemetryConfig) *sinks {
	s := &sinks{}

	if c.GetInfluxURL() != "" {
		sink, err := influxsink.Connect(c.GetInfluxURL(), c.GetInfluxToken(), c.GetInfluxOrg(), c.GetInfluxBucket())
		if err != nil {
			log.Err(err).Msg("InfluxDB sink disabled")
		} else {
			s.sinks = append(s.sinks, sink)
			s.closers = append(s.closers, sink)
		}
	}

	if c.GetMQTTBroker() != "" {
		sink, err := mqttsink.Connect(c.GetMQTTBroker(), c.GetMQTTClientID(), c.GetMQTTTopicPrefix())
		if err != nil {
			log.Err(err).Msg("MQTT sink disabled")
		} else {
			s.sinks = append(s.sinks, sink)
			s.closers = append(s.closers, sink)
		}
	}
	return s
}
