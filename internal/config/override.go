package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Override is a configuration override
type Override struct {
	// Field is the config field to override
	Field string
	// Flag is the flag that will override the field
	Flag string
	// Env is the environment variable that will override the field
	Env string
	// Usage is the usage for the override
	Usage string
	// Default is the default value for the override
	Default any
}

// NewOverride creates a new override
func NewOverride(field, usage string, def any) *Override {
	return &Override{
		Field:   field,
		Flag:    createFlagName(field),
		Env:     createEnvName(field),
		Usage:   usage,
		Default: def,
	}
}

// Bind binds the override to the viper instance
func (o *Override) Bind(flags *pflag.FlagSet) error {
	flag := o.createFlag(flags)
	if err := viper.BindPFlag(o.Field, flag); err != nil {
		return err
	}
	if err := viper.BindEnv(o.Field, o.Env); err != nil {
		return err
	}
	return nil
}

// createFlag creates a flag for the override
func (o *Override) createFlag(flags *pflag.FlagSet) *pflag.Flag {
	if existingFlag := flags.Lookup(o.Flag); existingFlag != nil {
		return existingFlag
	}

	switch v := o.Default.(type) {
	case string:
		_ = flags.String(o.Flag, v, o.Usage)
	case []string:
		_ = flags.StringSlice(o.Flag, v, o.Usage)
	case LogLevel:
		_ = flags.String(o.Flag, string(v), o.Usage)
	case GeneratorType:
		_ = flags.String(o.Flag, string(v), o.Usage)
	case OutputType:
		_ = flags.String(o.Flag, string(v), o.Usage)
	case int:
		_ = flags.Int(o.Flag, v, o.Usage)
	case int64:
		_ = flags.Int64(o.Flag, v, o.Usage)
	case uint64:
		_ = flags.Uint64(o.Flag, v, o.Usage)
	case float64:
		_ = flags.Float64(o.Flag, v, o.Usage)
	case time.Duration:
		_ = flags.Duration(o.Flag, v, o.Usage)
	case bool:
		_ = flags.Bool(o.Flag, v, o.Usage)
	default:
		_ = flags.String(o.Flag, "", o.Usage)
	}

	return flags.Lookup(o.Flag)
}

// createFlagName creates a flag name from a field
func createFlagName(field string) string {
	updatedField := strings.ReplaceAll(field, ".", "-")
	return strings.ToLower(updatedField)
}

// createEnvName creates an environment variable name from a field
func createEnvName(field string) string {
	updatedField := strings.ReplaceAll(field, ".", "_")
	updatedField = strings.ToUpper(updatedField)
	return "FLUXFAKR_" + updatedField
}

// DefaultOverrides returns all overrides for the application
func DefaultOverrides() []*Override {
	return []*Override{
		NewOverride("logging.type", "output of the log. One of: stdout", LoggingTypeStdout),
		NewOverride("logging.level", "log level to use. One of: debug|info|warn|error", LogLevelInfo),
		NewOverride("generator.type", "generator module to run. One of: nop|stock|supermarket|prompt", GeneratorTypeNop),
		NewOverride("generator.mps", "target aggregate rate in messages per second", DefaultMessagesPerSecond),
		NewOverride("generator.variants", "number of independently simulated variants", DefaultVariants),
		NewOverride("generator.seed", "base seed for the per-variant random streams. 0 derives a seed from the clock", int64(0)),
		NewOverride("generator.repeat", "total records to produce before stopping. 0 runs until interrupted", uint64(0)),
		NewOverride("generator.stock.drift", "drift term of the stock price walk", DefaultStockDrift),
		NewOverride("generator.stock.volatility", "volatility term of the stock price walk", DefaultStockVolatility),
		NewOverride("generator.prompt.text", "prompt used to seed generated records", ""),
		NewOverride("output.type", "output sink type. One of: nop|stdout|kafka|dump", OutputTypeStdout),
		NewOverride("output.kafka.brokers", "Kafka broker addresses, host:port", []string{}),
		NewOverride("output.kafka.topic", "Kafka topic records are published to", ""),
		NewOverride("output.kafka.workers", "number of Kafka writer goroutines", 1),
		NewOverride("dump.path", "path the final state dump is written to", ""),
		NewOverride("telemetry.metrics.enabled", "serve Prometheus metrics", false),
		NewOverride("telemetry.metrics.address", "listen address for the metrics endpoint", DefaultMetricsAddress),
	}
}
