// Package main is the main package for fluxfakr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/neural-chilli/fluxfakr/generator"
	"github.com/neural-chilli/fluxfakr/internal/config"
	"github.com/neural-chilli/fluxfakr/internal/engine"
	"github.com/neural-chilli/fluxfakr/internal/logging"
	"github.com/neural-chilli/fluxfakr/internal/telemetry/metrics"
	"github.com/neural-chilli/fluxfakr/output"
)

func main() {
	// Bind overrides to flags and environment variables
	flags := pflag.NewFlagSet("fluxfakr", pflag.ExitOnError)
	for _, override := range config.DefaultOverrides() {
		if err := override.Bind(flags); err != nil {
			fmt.Printf("Failed to bind override %s: %s", override.Field, err.Error())
			os.Exit(1)
		}
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Printf("Failed to parse flags: %s", err.Error())
		os.Exit(1)
	}

	// Configure Viper to handle env overrides
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfg := config.NewConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Printf("Failed to unmarshal config: %s", err.Error())
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Failed to validate config: %s", err.Error())
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %s", err.Error())
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("fluxfakr started")

	// Create signal context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Listen for OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()
	}()

	if cfg.Telemetry.Metrics.Enabled {
		prom, err := metrics.NewPrometheus(cfg.Telemetry.Metrics.Address)
		if err != nil {
			logger.Error("Failed to create metrics provider", zap.Error(err))
			os.Exit(1)
		}
		if err := prom.Start(ctx); err != nil {
			logger.Error("Failed to start metrics provider", zap.Error(err))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := prom.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to stop metrics provider", zap.Error(err))
			}
		}()
	}

	// A zero seed means every run gets a fresh simulation
	seed := cfg.Generator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		logger.Info("Derived seed from clock", zap.Int64("seed", seed))
	}

	engineConfig := engine.Config{
		Module: string(cfg.Generator.Type),
		Generator: generator.Config{
			Variants: cfg.Generator.Variants,
			Seed:     seed,
			Stock: generator.StockConfig{
				Drift:      cfg.Generator.Stock.Drift,
				Volatility: cfg.Generator.Stock.Volatility,
			},
			Prompt: generator.PromptConfig{
				Text: cfg.Generator.Prompt.Text,
			},
		},
		MessagesPerSecond: cfg.Generator.MessagesPerSecond,
		Repeat:            cfg.Generator.Repeat,
		DumpPath:          cfg.Dump.Path,
		DumpToStdout:      cfg.Output.Type == config.OutputTypeDump && cfg.Dump.Path == "",
	}

	newSink := func(snapshot output.Snapshotter) (output.Sink, error) {
		switch cfg.Output.Type {
		case config.OutputTypeKafka:
			return output.NewKafka(logger, cfg.Output.Kafka.Brokers, cfg.Output.Kafka.Topic, cfg.Output.Kafka.Workers, snapshot)
		case config.OutputTypeStdout:
			return output.NewStdout(logger, snapshot)
		case config.OutputTypeDump:
			return output.NewDump(logger, snapshot)
		case config.OutputTypeNop:
			return output.NewNop(logger, snapshot)
		default:
			return nil, fmt.Errorf("invalid output type: %s", cfg.Output.Type)
		}
	}

	eng, err := engine.New(logger, generator.DefaultRegistry(), engineConfig, newSink)
	if err != nil {
		logger.Error("Failed to configure engine", zap.Error(err))
		os.Exit(1)
	}

	if err := eng.Run(ctx); err != nil {
		logger.Error("Run failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("fluxfakr shutdown complete")
}
