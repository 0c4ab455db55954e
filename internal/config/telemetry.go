package config

import (
	"fmt"
	"net"
)

// DefaultMetricsAddress is the default metrics listen address
const DefaultMetricsAddress = "127.0.0.1:9090"

// Telemetry contains configuration for telemetry
type Telemetry struct {
	// Metrics contains metrics configuration
	Metrics Metrics `yaml:"metrics,omitempty" mapstructure:"metrics,omitempty"`
}

// Metrics contains configuration for the Prometheus metrics endpoint
type Metrics struct {
	// Enabled serves Prometheus metrics when true
	Enabled bool `yaml:"enabled,omitempty" mapstructure:"enabled,omitempty"`
	// Address is the listen address for the metrics endpoint
	Address string `yaml:"address,omitempty" mapstructure:"address,omitempty"`
}

// Validate validates the telemetry configuration
func (t *Telemetry) Validate() error {
	if !t.Metrics.Enabled {
		return nil
	}
	if t.Metrics.Address == "" {
		return nil
	}

	host, port, err := net.SplitHostPort(t.Metrics.Address)
	if err != nil {
		return fmt.Errorf("metrics address must be host:port: %w", err)
	}
	if host != "" {
		if err := ValidateHost(host); err != nil {
			return fmt.Errorf("metrics address: %w", err)
		}
	}
	if err := ValidatePortString(port); err != nil {
		return fmt.Errorf("metrics address: %w", err)
	}

	return nil
}
