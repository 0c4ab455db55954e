package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/neural-chilli/fluxfakr/generator"
)

// Dump is the point-in-time sink. It keeps no per-record state beyond
// a counter; the run's value is the instance snapshots collected at
// flush time.
type Dump struct {
	logger   *zap.Logger
	snapshot Snapshotter
	accepted atomic.Uint64
}

// NewDump creates a dump sink.
func NewDump(logger *zap.Logger, snapshot Snapshotter) (*Dump, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshotter cannot be nil")
	}

	return &Dump{
		logger:   logger.Named("output-dump"),
		snapshot: snapshot,
	}, nil
}

// Accept counts the record and discards it.
func (d *Dump) Accept(_ context.Context, _ generator.Record) error {
	d.accepted.Add(1)
	return nil
}

// FlushAndClose snapshots every live instance.
func (d *Dump) FlushAndClose(_ context.Context) ([]generator.Snapshot, error) {
	d.logger.Info("Dump sink stopped", zap.Uint64("records_accepted", d.accepted.Load()))
	return d.snapshot(), nil
}

// EncodeSnapshotsCSV writes snapshots as CSV: a header row naming the
// module-specific columns followed by one row per variant, in variant
// order.
func EncodeSnapshotsCSV(w io.Writer, snaps []generator.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(snaps[0].Columns); err != nil {
		return fmt.Errorf("write dump header: %w", err)
	}
	for _, snap := range snaps {
		if err := cw.Write(snap.Values); err != nil {
			return fmt.Errorf("write dump row for variant %d: %w", snap.Variant, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSnapshotsCSV writes snapshots to the given path atomically: the
// CSV is written to a temp file in the same directory and renamed into
// place, so a crash never leaves a partial dump behind.
func WriteSnapshotsCSV(path string, snaps []generator.Snapshot) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".fluxfakr-dump-*")
	if err != nil {
		return fmt.Errorf("create temp dump file: %w", err)
	}
	defer func() {
		// Best effort cleanup; after a successful rename the temp file
		// no longer exists.
		_ = os.Remove(tmp.Name())
	}()

	if err := EncodeSnapshotsCSV(tmp, snaps); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp dump file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename dump file into place: %w", err)
	}
	return nil
}
