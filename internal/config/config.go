// Package config contains the top level configuration structures and logic
package config

// Config is the configuration for fluxfakr.
type Config struct {
	// Logging configuration for the logger
	Logging Logging `yaml:"logging,omitempty" mapstructure:"logging,omitempty"`
	// Generator configuration
	Generator Generator `yaml:"generator,omitempty" mapstructure:"generator,omitempty"`
	// Output configuration
	Output Output `yaml:"output,omitempty" mapstructure:"output,omitempty"`
	// Dump configuration for the final state dump
	Dump Dump `yaml:"dump,omitempty" mapstructure:"dump,omitempty"`
	// Telemetry configuration for metrics
	Telemetry Telemetry `yaml:"telemetry,omitempty" mapstructure:"telemetry,omitempty"`
}

// NewConfig returns a new config
func NewConfig() *Config {
	return &Config{}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Generator.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return nil
}

// ApplyDefaults applies default values to the configuration
func (c *Config) ApplyDefaults() {
	// Apply logging defaults
	if c.Logging.Type == "" {
		c.Logging.Type = LoggingTypeStdout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}

	// Apply generator defaults
	if c.Generator.Type == "" {
		c.Generator.Type = GeneratorTypeNop
	}
	if c.Generator.MessagesPerSecond == 0 {
		c.Generator.MessagesPerSecond = DefaultMessagesPerSecond
	}
	if c.Generator.Variants == 0 {
		c.Generator.Variants = DefaultVariants
	}

	// Apply stock generator defaults
	if c.Generator.Stock.Drift == 0 {
		c.Generator.Stock.Drift = DefaultStockDrift
	}
	if c.Generator.Stock.Volatility == 0 {
		c.Generator.Stock.Volatility = DefaultStockVolatility
	}

	// Apply output defaults
	if c.Output.Type == "" {
		c.Output.Type = OutputTypeStdout
	}
	if c.Output.Kafka.Workers == 0 {
		c.Output.Kafka.Workers = 1
	}

	// Apply telemetry defaults
	if c.Telemetry.Metrics.Address == "" {
		c.Telemetry.Metrics.Address = DefaultMetricsAddress
	}
}
