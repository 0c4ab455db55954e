package output

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neural-chilli/fluxfakr/generator"
)

// Nop is a no-operation sink that discards records.
type Nop struct {
	logger   *zap.Logger
	snapshot Snapshotter
}

// NewNop creates a new no-operation sink.
func NewNop(logger *zap.Logger, snapshot Snapshotter) (*Nop, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshotter cannot be nil")
	}

	return &Nop{
		logger:   logger.Named("output-nop"),
		snapshot: snapshot,
	}, nil
}

// Accept discards the record.
func (n *Nop) Accept(_ context.Context, _ generator.Record) error {
	return nil
}

// FlushAndClose returns the final instance snapshots.
func (n *Nop) FlushAndClose(_ context.Context) ([]generator.Snapshot, error) {
	n.logger.Info("Stopping NOP sink")
	return n.snapshot(), nil
}
