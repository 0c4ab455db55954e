package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	c := NewConfig()
	c.ApplyDefaults()

	assert.Equal(t, LoggingTypeStdout, c.Logging.Type)
	assert.Equal(t, LogLevelInfo, c.Logging.Level)
	assert.Equal(t, GeneratorTypeNop, c.Generator.Type)
	assert.Equal(t, DefaultMessagesPerSecond, c.Generator.MessagesPerSecond)
	assert.Equal(t, DefaultVariants, c.Generator.Variants)
	assert.Equal(t, DefaultStockDrift, c.Generator.Stock.Drift)
	assert.Equal(t, DefaultStockVolatility, c.Generator.Stock.Volatility)
	assert.Equal(t, OutputTypeStdout, c.Output.Type)
	assert.Equal(t, 1, c.Output.Kafka.Workers)
	assert.Equal(t, DefaultMetricsAddress, c.Telemetry.Metrics.Address)
}

func TestConfig_ApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := &Config{
		Generator: Generator{
			Type:              GeneratorTypeStock,
			MessagesPerSecond: 500,
			Variants:          8,
			Stock:             StockGeneratorConfig{Drift: 0.002, Volatility: 0.05},
		},
		Output: Output{Type: OutputTypeKafka, Kafka: KafkaOutputConfig{Workers: 4}},
	}
	c.ApplyDefaults()

	assert.Equal(t, GeneratorTypeStock, c.Generator.Type)
	assert.Equal(t, 500.0, c.Generator.MessagesPerSecond)
	assert.Equal(t, 8, c.Generator.Variants)
	assert.Equal(t, 0.002, c.Generator.Stock.Drift)
	assert.Equal(t, 0.05, c.Generator.Stock.Volatility)
	assert.Equal(t, OutputTypeKafka, c.Output.Type)
	assert.Equal(t, 4, c.Output.Kafka.Workers)
}

func TestConfig_Validate(t *testing.T) {
	c := NewConfig()
	c.ApplyDefaults()
	require.NoError(t, c.Validate())

	c.Generator.Type = "invalid"
	assert.Error(t, c.Validate())

	c.Generator.Type = GeneratorTypeNop
	c.Output.Type = "invalid"
	assert.Error(t, c.Validate())

	c.Output.Type = OutputTypeStdout
	c.Logging.Level = "verbose"
	assert.Error(t, c.Validate())

	c.Logging.Level = LogLevelDebug
	c.Telemetry.Metrics = Metrics{Enabled: true, Address: "not-an-address"}
	assert.Error(t, c.Validate())
}
