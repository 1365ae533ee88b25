package config

import "github.com/spf13/viper"

type TelemetryConfig interface {
	GetOTLPEndpoint() string
	GetMetricsEnabled() bool
	GetServiceName() string
}

type Telemetry struct {
	v *viper.Viper
}

var _ TelemetryConfig = Telemetry{}

// GetOTLPEndpoint enables trace export when set (e.g. "otel-collector:4318")
func (t Telemetry) GetOTLPEndpoint() string {
	return t.v.GetString(OTLPEndpointKey)
}

func (t Telemetry) GetMetricsEnabled() bool {
	return t.v.GetBool(MetricsEnabledKey)
}

func (t Telemetry) GetServiceName() string {
	return t.v.GetString(TelemetryServiceNameKey)
}
