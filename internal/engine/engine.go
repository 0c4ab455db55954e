// Package engine orchestrates a run: it resolves the module through
// the registry, paces generation, routes records into the sink, and
// drives the shutdown sequence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/neural-chilli/fluxfakr/generator"
	"github.com/neural-chilli/fluxfakr/internal/pacer"
	"github.com/neural-chilli/fluxfakr/output"
)

// DefaultDrainTimeout bounds how long draining may take once the run
// loop has stopped.
const DefaultDrainTimeout = 30 * time.Second

// State is the engine lifecycle state.
type State string

const (
	// StateConfiguring is the initial state while components are built.
	StateConfiguring State = "configuring"
	// StateRunning is the state while the scheduler drives ticks.
	StateRunning State = "running"
	// StateDraining is the state while the sink flushes and the dump is
	// written.
	StateDraining State = "draining"
	// StateStopped is the terminal state.
	StateStopped State = "stopped"
)

// Config holds the immutable run parameters of the engine.
type Config struct {
	// Module is the registry name of the generator module to run.
	Module string

	// Generator holds the module-facing parameters.
	Generator generator.Config

	// MessagesPerSecond is the target aggregate production rate.
	MessagesPerSecond float64

	// Repeat bounds the total number of records across all variants.
	// Zero means run until cancelled.
	Repeat uint64

	// DumpPath is where the final state dump is written. Empty means
	// the dump is written to stdout when DumpToStdout is set, and
	// discarded otherwise.
	DumpPath string

	// DumpToStdout writes the final dump to stdout when no DumpPath is
	// configured.
	DumpToStdout bool
}

// SinkFactory builds the sink for a run. The engine supplies the
// snapshotter over its instances.
type SinkFactory func(snapshot output.Snapshotter) (output.Sink, error)

// Stats are the final run counters.
type Stats struct {
	// Produced is the number of records delivered to the sink.
	Produced uint64
	// GenerationFailed is the number of ticks skipped because an
	// instance failed to produce a record.
	GenerationFailed uint64
	// Duration is the wall-clock run duration.
	Duration time.Duration
}

// Engine owns the instances, the pacer, and the sink for one run.
// An engine runs exactly once.
type Engine struct {
	logger    *zap.Logger
	cfg       Config
	runID     string
	instances []generator.Instance
	sink      output.Sink
	pacer     *pacer.Pacer

	state atomic.Value
	stats Stats
	next  int

	recordsProduced  metric.Int64Counter
	generateFailures metric.Int64Counter
	sinkFailures     metric.Int64Counter
	attrs            attribute.Set
}

// New builds an engine in the Configuring state. Any construction
// failure is a fatal configuration error: the engine never reaches
// Running and the error is returned immediately.
func New(logger *zap.Logger, registry *generator.Registry, cfg Config, newSink SinkFactory) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if newSink == nil {
		return nil, fmt.Errorf("sink factory cannot be nil")
	}

	e := &Engine{
		logger: logger.Named("engine"),
		cfg:    cfg,
		runID:  uuid.NewString(),
	}
	e.state.Store(StateConfiguring)

	instances, err := registry.Instantiate(cfg.Module, cfg.Generator)
	if err != nil {
		e.state.Store(StateStopped)
		return nil, fmt.Errorf("configure module %q: %w", cfg.Module, err)
	}
	e.instances = instances

	e.pacer, err = pacer.New(cfg.MessagesPerSecond, cfg.Repeat)
	if err != nil {
		e.state.Store(StateStopped)
		return nil, fmt.Errorf("configure scheduler: %w", err)
	}

	e.sink, err = newSink(e.Snapshots)
	if err != nil {
		e.state.Store(StateStopped)
		return nil, fmt.Errorf("configure sink: %w", err)
	}

	if err := e.initMetrics(); err != nil {
		e.state.Store(StateStopped)
		return nil, err
	}

	e.logger.Info("Engine configured",
		zap.String("run_id", e.runID),
		zap.String("module", cfg.Module),
		zap.Int("variants", len(instances)),
		zap.Float64("mps", cfg.MessagesPerSecond),
		zap.Uint64("repeat", cfg.Repeat))

	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return e.state.Load().(State)
}

// Stats returns the final run counters. Valid once the engine is
// Stopped.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Snapshots dumps every live instance, in variant order.
func (e *Engine) Snapshots() []generator.Snapshot {
	snaps := make([]generator.Snapshot, 0, len(e.instances))
	for _, inst := range e.instances {
		snaps = append(snaps, inst.Dump())
	}
	return snaps
}

// Run drives the run loop until the record budget is exhausted, the
// context is cancelled, or the sink fails fatally, then drains.
// Cancellation is observed at tick boundaries only: an in-flight
// record is never aborted mid-generation.
func (e *Engine) Run(ctx context.Context) error {
	e.state.Store(StateRunning)
	e.logger.Info("Engine running", zap.String("run_id", e.runID))
	start := time.Now()

	var fatal error

loop:
	for {
		n, err := e.pacer.Wait(ctx)
		switch {
		case errors.Is(err, pacer.ErrComplete):
			e.logger.Info("Record budget exhausted", zap.Uint64("records", e.pacer.Issued()))
			break loop
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			e.logger.Info("Cancellation received, stopping run loop")
			break loop
		case err != nil:
			fatal = err
			break loop
		}

		for i := 0; i < n; i++ {
			if err := e.tick(ctx); err != nil {
				if errors.Is(err, output.ErrFatal) {
					e.logger.Error("Sink failed fatally, draining", zap.Error(err))
					fatal = err
					break loop
				}
				if ctx.Err() != nil {
					break loop
				}
			}
		}
	}

	e.drain(fatal == nil)
	e.stats.Duration = time.Since(start)
	e.state.Store(StateStopped)

	e.logger.Info("Engine stopped",
		zap.String("run_id", e.runID),
		zap.Uint64("records_produced", e.stats.Produced),
		zap.Uint64("generation_failures", e.stats.GenerationFailed),
		zap.Duration("duration", e.stats.Duration))

	return fatal
}

// tick selects the next instance round-robin, generates one record,
// and routes it into the sink. A generation failure is isolated to its
// variant: the tick is skipped and the run continues.
func (e *Engine) tick(ctx context.Context) error {
	inst := e.instances[e.next]
	variant := e.next
	e.next = (e.next + 1) % len(e.instances)

	rec, err := inst.Generate()
	if err != nil {
		e.stats.GenerationFailed++
		e.generateFailures.Add(ctx, 1, metric.WithAttributeSet(e.attrs))
		e.logger.Warn("Generation failed, skipping tick",
			zap.Int("variant", variant),
			zap.Error(err))
		return nil
	}

	if err := e.sink.Accept(ctx, rec); err != nil {
		e.sinkFailures.Add(ctx, 1, metric.WithAttributeSet(e.attrs))
		return err
	}

	e.stats.Produced++
	e.recordsProduced.Add(ctx, 1, metric.WithAttributeSet(e.attrs))
	return nil
}

// drain flushes the sink and writes the final state dump. A dump write
// failure is reported as a warning: it never erases already-produced
// streaming output, so the run still counts as a partial success.
func (e *Engine) drain(healthy bool) {
	e.state.Store(StateDraining)
	e.logger.Info("Engine draining", zap.String("run_id", e.runID))

	ctx, cancel := context.WithTimeout(context.Background(), DefaultDrainTimeout)
	defer cancel()

	snaps, err := e.sink.FlushAndClose(ctx)
	if err != nil && healthy {
		e.logger.Warn("Sink flush reported an error", zap.Error(err))
	}

	switch {
	case e.cfg.DumpPath != "":
		if err := output.WriteSnapshotsCSV(e.cfg.DumpPath, snaps); err != nil {
			e.logger.Warn("Failed to write state dump", zap.String("path", e.cfg.DumpPath), zap.Error(err))
			return
		}
		e.logger.Info("State dump written",
			zap.String("path", e.cfg.DumpPath),
			zap.Int("variants", len(snaps)))
	case e.cfg.DumpToStdout:
		if err := output.EncodeSnapshotsCSV(os.Stdout, snaps); err != nil {
			e.logger.Warn("Failed to write state dump to stdout", zap.Error(err))
		}
	}
}

// initMetrics registers the engine counters.
func (e *Engine) initMetrics() error {
	meter := otel.Meter("fluxfakr-engine")

	var err error
	e.recordsProduced, err = meter.Int64Counter(
		"fluxfakr.engine.records.produced",
		metric.WithDescription("Total number of records delivered to the sink"),
	)
	if err != nil {
		return fmt.Errorf("create records produced counter: %w", err)
	}

	e.generateFailures, err = meter.Int64Counter(
		"fluxfakr.engine.generate.failures",
		metric.WithDescription("Total number of ticks skipped due to generation failures"),
	)
	if err != nil {
		return fmt.Errorf("create generate failures counter: %w", err)
	}

	e.sinkFailures, err = meter.Int64Counter(
		"fluxfakr.engine.sink.failures",
		metric.WithDescription("Total number of records the sink refused"),
	)
	if err != nil {
		return fmt.Errorf("create sink failures counter: %w", err)
	}

	e.attrs = attribute.NewSet(
		attribute.String("run_id", e.runID),
		attribute.String("module", e.cfg.Module),
	)

	return nil
}
