package config

import (
	"fmt"

	"github.com/neural-chilli/fluxfakr/generator"
)

// GeneratorType represents the type of generator module
type GeneratorType string

const (
	// GeneratorTypeNop represents the NOP module
	GeneratorTypeNop GeneratorType = generator.ModuleNop
	// GeneratorTypeStock represents the stock market data module
	GeneratorTypeStock GeneratorType = generator.ModuleStock
	// GeneratorTypeSupermarket represents the supermarket sales module
	GeneratorTypeSupermarket GeneratorType = generator.ModuleSupermarket
	// GeneratorTypePrompt represents the prompt content module
	GeneratorTypePrompt GeneratorType = generator.ModulePrompt
)

const (
	// DefaultMessagesPerSecond is the default aggregate production rate
	DefaultMessagesPerSecond = 1.0
	// DefaultVariants is the default number of variants
	DefaultVariants = 1
	// DefaultStockDrift is the default stock drift term
	DefaultStockDrift = generator.DefaultStockDrift
	// DefaultStockVolatility is the default stock volatility term
	DefaultStockVolatility = generator.DefaultStockVolatility
)

// Generator contains configuration for the generator module and the
// production rate
type Generator struct {
	// Type specifies the generator module to run
	Type GeneratorType `yaml:"type,omitempty" mapstructure:"type,omitempty"`
	// MessagesPerSecond is the target aggregate rate across all variants
	MessagesPerSecond float64 `yaml:"mps,omitempty" mapstructure:"mps,omitempty"`
	// Variants is the number of independently simulated instances
	Variants int `yaml:"variants,omitempty" mapstructure:"variants,omitempty"`
	// Seed is the base seed for the per-variant random streams.
	// Zero means derive a seed from the clock at startup.
	Seed int64 `yaml:"seed,omitempty" mapstructure:"seed,omitempty"`
	// Repeat bounds the total number of records across all variants.
	// Zero means run until interrupted.
	Repeat uint64 `yaml:"repeat,omitempty" mapstructure:"repeat,omitempty"`
	// Stock contains stock module configuration
	Stock StockGeneratorConfig `yaml:"stock,omitempty" mapstructure:"stock,omitempty"`
	// Prompt contains prompt module configuration
	Prompt PromptGeneratorConfig `yaml:"prompt,omitempty" mapstructure:"prompt,omitempty"`
}

// Validate validates the generator configuration
func (g *Generator) Validate() error {
	// Allow empty type - defaults will be applied by override system
	if g.Type == "" {
		return nil
	}

	switch g.Type {
	case GeneratorTypeNop:
		// NOP module requires no additional validation
	case GeneratorTypeStock:
		if err := g.Stock.Validate(); err != nil {
			return fmt.Errorf("stock generator validation failed: %w", err)
		}
	case GeneratorTypeSupermarket:
		// Supermarket module requires no additional validation
	case GeneratorTypePrompt:
		if err := g.Prompt.Validate(); err != nil {
			return fmt.Errorf("prompt generator validation failed: %w", err)
		}
	default:
		return fmt.Errorf("invalid generator type: %s, must be one of: nop, stock, supermarket, prompt", g.Type)
	}

	if g.MessagesPerSecond < 0 {
		return fmt.Errorf("generator mps cannot be negative, got %v", g.MessagesPerSecond)
	}
	if g.Variants < 0 {
		return fmt.Errorf("generator variants cannot be negative, got %d", g.Variants)
	}

	return nil
}

// StockGeneratorConfig contains configuration for the stock module
type StockGeneratorConfig struct {
	// Drift is the drift term of the price walk
	Drift float64 `yaml:"drift,omitempty" mapstructure:"drift,omitempty"`
	// Volatility is the volatility term of the price walk
	Volatility float64 `yaml:"volatility,omitempty" mapstructure:"volatility,omitempty"`
}

// Validate validates the stock module configuration
func (c *StockGeneratorConfig) Validate() error {
	if c.Volatility < 0 {
		return fmt.Errorf("stock volatility cannot be negative, got %v", c.Volatility)
	}
	return nil
}

// PromptGeneratorConfig contains configuration for the prompt module
type PromptGeneratorConfig struct {
	// Text is the prompt used to seed each generated record
	Text string `yaml:"text,omitempty" mapstructure:"text,omitempty"`
}

// Validate validates the prompt module configuration
func (c *PromptGeneratorConfig) Validate() error {
	if c.Text == "" {
		return fmt.Errorf("prompt text cannot be empty")
	}
	return nil
}
