package config

import (
	"errors"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// ObservabilityConfig drives the New Relic agent. ServiceName and
// Environment are filled by LoadConfig, not from the environment.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	LicenseKey  string `koanf:"license_key"`
	ServiceName string `koanf:"-"`
	Environment string `koanf:"-"`
}

func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{Enabled: false}
}

func (o *ObservabilityConfig) Validate() error {
	if o.Enabled && o.LicenseKey == "" {
		return errors.New("observability enabled without a license key")
	}
	return nil
}

// NewRelicApp builds the agent application, or returns nil when
// observability is disabled. A nil application is safe to pass around;
// the agent's instrumentation helpers treat it as a no-op.
func (o *ObservabilityConfig) NewRelicApp() (*newrelic.Application, error) {
	if !o.Enabled {
		return nil, nil
	}
	return newrelic.NewApplication(
		newrelic.ConfigAppName(o.ServiceName),
		newrelic.ConfigLicense(o.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		func(cfg *newrelic.Config) {
			cfg.Labels = map[string]string{"environment": o.Environment}
		},
	)
}
