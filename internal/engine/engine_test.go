package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/neural-chilli/fluxfakr/generator"
	"github.com/neural-chilli/fluxfakr/output"
)

// collectorSink records every accepted record and can be told to fail.
type collectorSink struct {
	mu       sync.Mutex
	records  []generator.Record
	snapshot output.Snapshotter

	failAfter int // fail fatally once this many records were accepted, 0 disables
	flushed   bool
}

func (c *collectorSink) Accept(_ context.Context, rec generator.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failAfter > 0 && len(c.records) >= c.failAfter {
		return fmt.Errorf("%w: broker gone", output.ErrFatal)
	}

	c.records = append(c.records, rec)
	return nil
}

func (c *collectorSink) FlushAndClose(_ context.Context) ([]generator.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushed = true
	return c.snapshot(), nil
}

func (c *collectorSink) byVariant() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[int]int)
	for _, rec := range c.records {
		counts[rec.Variant]++
	}
	return counts
}

func collectorFactory(sink *collectorSink) SinkFactory {
	return func(snapshot output.Snapshotter) (output.Sink, error) {
		sink.snapshot = snapshot
		return sink, nil
	}
}

func stockConfig(repeat uint64) Config {
	return Config{
		Module: generator.ModuleStock,
		Generator: generator.Config{
			Variants: 5,
			Seed:     42,
			Stock: generator.StockConfig{
				Drift:      generator.DefaultStockDrift,
				Volatility: generator.DefaultStockVolatility,
			},
		},
		MessagesPerSecond: 5000,
		Repeat:            repeat,
	}
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)
	registry := generator.DefaultRegistry()
	sink := &collectorSink{}

	tests := []struct {
		name    string
		build   func() (*Engine, error)
		wantErr string
	}{
		{
			name: "nil logger",
			build: func() (*Engine, error) {
				return New(nil, registry, stockConfig(1), collectorFactory(sink))
			},
			wantErr: "logger cannot be nil",
		},
		{
			name: "nil registry",
			build: func() (*Engine, error) {
				return New(logger, nil, stockConfig(1), collectorFactory(sink))
			},
			wantErr: "registry cannot be nil",
		},
		{
			name: "nil sink factory",
			build: func() (*Engine, error) {
				return New(logger, registry, stockConfig(1), nil)
			},
			wantErr: "sink factory cannot be nil",
		},
		{
			name: "invalid rate",
			build: func() (*Engine, error) {
				cfg := stockConfig(1)
				cfg.MessagesPerSecond = 0
				return New(logger, registry, cfg, collectorFactory(sink))
			},
			wantErr: "configure scheduler",
		},
		{
			name: "sink factory failure",
			build: func() (*Engine, error) {
				return New(logger, registry, stockConfig(1), func(output.Snapshotter) (output.Sink, error) {
					return nil, fmt.Errorf("no broker")
				})
			},
			wantErr: "configure sink",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_UnknownModule(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := &collectorSink{}

	cfg := stockConfig(1)
	cfg.Module = "does-not-exist"

	_, err := New(logger, generator.DefaultRegistry(), cfg, collectorFactory(sink))
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrUnknownModule)
}

func TestEngine_RunToCompletion(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := &collectorSink{}

	eng, err := New(logger, generator.DefaultRegistry(), stockConfig(100), collectorFactory(sink))
	require.NoError(t, err)
	assert.Equal(t, StateConfiguring, eng.State())

	require.NoError(t, eng.Run(context.Background()))

	assert.Equal(t, StateStopped, eng.State())
	assert.True(t, sink.flushed)

	stats := eng.Stats()
	assert.Equal(t, uint64(100), stats.Produced)
	assert.Equal(t, uint64(0), stats.GenerationFailed)
	assert.Greater(t, stats.Duration, time.Duration(0))

	// Round-robin across 5 variants gives each exactly a fifth of the
	// budget.
	counts := sink.byVariant()
	require.Len(t, counts, 5)
	for variant, count := range counts {
		assert.Equal(t, 20, count, "variant %d", variant)
	}
}

func TestEngine_WritesDump(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := &collectorSink{}

	cfg := stockConfig(25)
	cfg.DumpPath = filepath.Join(t.TempDir(), "dump.csv")

	eng, err := New(logger, generator.DefaultRegistry(), cfg, collectorFactory(sink))
	require.NoError(t, err)
	require.NoError(t, eng.Run(context.Background()))

	data, err := os.ReadFile(cfg.DumpPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6) // header plus one row per variant
	assert.Equal(t, "id,price,bid,ask,volume", lines[0])
	for i := 1; i < len(lines); i++ {
		assert.True(t, strings.HasPrefix(lines[i], fmt.Sprintf("STK%d,", i-1)))
	}
}

func TestEngine_Cancellation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := &collectorSink{}

	cfg := stockConfig(0) // no budget, runs until cancelled
	cfg.MessagesPerSecond = 1000

	eng, err := New(logger, generator.DefaultRegistry(), cfg, collectorFactory(sink))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, eng.Run(ctx))
	assert.Equal(t, StateStopped, eng.State())
	assert.True(t, sink.flushed)
	assert.Greater(t, eng.Stats().Produced, uint64(0))

	// No duplicates: the sink saw exactly as many records as the engine
	// counted.
	assert.Equal(t, eng.Stats().Produced, uint64(len(sink.records)))
}

func TestEngine_GenerationFailureIsolated(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := &collectorSink{}

	registry := generator.NewRegistry()
	require.NoError(t, registry.Register("half-broken", func(cfg generator.Config) ([]generator.Instance, error) {
		return []generator.Instance{
			healthyInstance{variant: 0},
			brokenInstance{variant: 1},
		}, nil
	}))

	cfg := Config{
		Module:            "half-broken",
		Generator:         generator.Config{Variants: 2},
		MessagesPerSecond: 5000,
		Repeat:            20,
	}

	eng, err := New(logger, registry, cfg, collectorFactory(sink))
	require.NoError(t, err)
	require.NoError(t, eng.Run(context.Background()))

	stats := eng.Stats()
	assert.Equal(t, uint64(10), stats.Produced)
	assert.Equal(t, uint64(10), stats.GenerationFailed)

	counts := sink.byVariant()
	assert.Equal(t, 10, counts[0])
	assert.Equal(t, 0, counts[1])
}

func TestEngine_FatalSinkStopsRun(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := &collectorSink{failAfter: 7}

	eng, err := New(logger, generator.DefaultRegistry(), stockConfig(1000), collectorFactory(sink))
	require.NoError(t, err)

	err = eng.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, output.ErrFatal)

	assert.Equal(t, StateStopped, eng.State())
	assert.True(t, sink.flushed)
	assert.Equal(t, uint64(7), eng.Stats().Produced)
}

func TestEngine_Snapshots(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := &collectorSink{}

	eng, err := New(logger, generator.DefaultRegistry(), stockConfig(10), collectorFactory(sink))
	require.NoError(t, err)

	snaps := eng.Snapshots()
	require.Len(t, snaps, 5)
	for i, snap := range snaps {
		assert.Equal(t, i, snap.Variant)
	}
}

// healthyInstance emits empty records.
type healthyInstance struct{ variant int }

func (h healthyInstance) Generate() (generator.Record, error) {
	return generator.Record{Module: "half-broken", Variant: h.variant, Payload: []byte("{}")}, nil
}

func (h healthyInstance) Dump() generator.Snapshot {
	return generator.Snapshot{Variant: h.variant, Columns: []string{"id"}, Values: []string{"ok"}}
}

// brokenInstance fails every Generate call.
type brokenInstance struct{ variant int }

func (b brokenInstance) Generate() (generator.Record, error) {
	return generator.Record{}, fmt.Errorf("simulation diverged")
}

func (b brokenInstance) Dump() generator.Snapshot {
	return generator.Snapshot{Variant: b.variant, Columns: []string{"id"}, Values: []string{"broken"}}
}
