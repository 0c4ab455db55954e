package config

import (
	"fmt"
	"net"
)

// OutputType represents the type of output sink
type OutputType string

const (
	// OutputTypeNop represents the NOP sink
	OutputTypeNop OutputType = "nop"
	// OutputTypeStdout represents the stdout streaming sink
	OutputTypeStdout OutputType = "stdout"
	// OutputTypeKafka represents the Kafka streaming sink
	OutputTypeKafka OutputType = "kafka"
	// OutputTypeDump represents the point-in-time dump sink
	OutputTypeDump OutputType = "dump"
)

// Output contains configuration for the record sink
type Output struct {
	// Type specifies the sink type
	Type OutputType `yaml:"type,omitempty" mapstructure:"type,omitempty"`
	// Kafka contains Kafka sink configuration
	Kafka KafkaOutputConfig `yaml:"kafka,omitempty" mapstructure:"kafka,omitempty"`
}

// Validate validates the output configuration
func (o *Output) Validate() error {
	// Allow empty type - defaults will be applied by override system
	if o.Type == "" {
		return nil
	}

	switch o.Type {
	case OutputTypeNop, OutputTypeStdout, OutputTypeDump:
		// No additional validation required
	case OutputTypeKafka:
		if err := o.Kafka.Validate(); err != nil {
			return fmt.Errorf("kafka output validation failed: %w", err)
		}
	default:
		return fmt.Errorf("invalid output type: %s, must be one of: nop, stdout, kafka, dump", o.Type)
	}

	return nil
}

// KafkaOutputConfig contains configuration for the Kafka sink
type KafkaOutputConfig struct {
	// Brokers is the list of broker addresses, host:port
	Brokers []string `yaml:"brokers,omitempty" mapstructure:"brokers,omitempty"`
	// Topic is the topic records are published to
	Topic string `yaml:"topic,omitempty" mapstructure:"topic,omitempty"`
	// Workers is the number of writer goroutines
	Workers int `yaml:"workers,omitempty" mapstructure:"workers,omitempty"`
}

// Validate validates the Kafka sink configuration
func (c *KafkaOutputConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	for _, broker := range c.Brokers {
		host, port, err := net.SplitHostPort(broker)
		if err != nil {
			return fmt.Errorf("kafka broker %q must be host:port: %w", broker, err)
		}
		if err := ValidateHost(host); err != nil {
			return fmt.Errorf("kafka broker %q: %w", broker, err)
		}
		if err := ValidatePortString(port); err != nil {
			return fmt.Errorf("kafka broker %q: %w", broker, err)
		}
	}

	if c.Topic == "" {
		return fmt.Errorf("kafka topic cannot be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("kafka workers cannot be negative, got %d", c.Workers)
	}

	return nil
}

// Dump contains configuration for the final state dump
type Dump struct {
	// Path is where the dump is written. Empty with the dump sink means
	// the dump is written to stdout; empty with a streaming sink means
	// the dump is discarded.
	Path string `yaml:"path,omitempty" mapstructure:"path,omitempty"`
}
