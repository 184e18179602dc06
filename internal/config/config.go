package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	StoreConfig
	TelemetryConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Store
	Telemetry
}

// New builds a Config from environment variables only.
func New() Config {
	return newConfig(newViper())
}

// Load builds a Config from an optional YAML file overlaid by environment
// variables. An empty configFile searches ./config.yaml and /etc/device-auth.
func Load(configFile string) (Config, error) {
	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/device-auth")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("[config Load] failed to read config file: %w", err)
		}
	}
	return newConfig(v), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(appNameVar, "Device Auth")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")
	v.SetDefault(allowedOriginsVar, "")
	v.SetDefault(storeDriverVar, StoreDriverMemory)
	v.SetDefault(storeDSNVar, "./data/devices.db")
	v.SetDefault(storeTimeoutVar, 5*time.Second)
	v.SetDefault(tokenStoreVar, TokenStoreSQL)
	v.SetDefault(redisAddrVar, "localhost:6379")
	v.SetDefault(redisDBVar, 0)
	v.SetDefault(mqttClientIDVar, "device-auth")
	v.SetDefault(mqttTopicPrefixVar, "devices")
	return v
}

func newConfig(v *viper.Viper) Config {
	return mainConfig{
		EnvVars:   EnvVars{v: v},
		Cors:      Cors{v: v},
		Token:     Token{},
		Store:     Store{v: v},
		Telemetry: Telemetry{v: v},
	}
}
