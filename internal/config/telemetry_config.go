package config

import "github.com/spf13/viper"

const (
	influxURLVar       = "INFLUX_URL"
	influxTokenVar     = "INFLUX_TOKEN"
	influxOrgVar       = "INFLUX_ORG"
	influxBucketVar    = "INFLUX_BUCKET"
	mqttBrokerVar      = "MQTT_BROKER"
	mqttClientIDVar    = "MQTT_CLIENT_ID"
	mqttTopicPrefixVar = "MQTT_TOPIC_PREFIX"
)

// TelemetryConfig configures the optional telemetry mirrors. An empty URL or
// broker disables the corresponding sink.
type TelemetryConfig interface {
	GetInfluxURL() string
	GetInfluxToken() string
	GetInfluxOrg() string
	GetInfluxBucket() string
	GetMQTTBroker() string
	GetMQTTClientID() string
	GetMQTTTopicPrefix() string
}

type Telemetry struct {
	v *viper.Viper
}

var _ TelemetryConfig = Telemetry{}

func (t Telemetry) GetInfluxURL() string       { return t.v.GetString(influxURLVar) }
func (t Telemetry) GetInfluxToken() string     { return t.v.GetString(influxTokenVar) }
func (t Telemetry) GetInfluxOrg() string       { return t.v.GetString(influxOrgVar) }
func (t Telemetry) GetInfluxBucket() string    { return t.v.GetString(influxBucketVar) }
func (t Telemetry) GetMQTTBroker() string      { return t.v.GetString(mqttBrokerVar) }
func (t Telemetry) GetMQTTClientID() string    { return t.v.GetString(mqttClientIDVar) }
func (t Telemetry) GetMQTTTopicPrefix() string { return t.v.GetString(mqttTopicPrefixVar) }
