// Package output contains the sinks that consume generated records.
package output

import (
	"context"
	"errors"

	"github.com/neural-chilli/fluxfakr/generator"
)

// ErrFatal marks a sink failure that cannot be retried. The engine
// halts the run when Accept returns an error wrapping ErrFatal.
var ErrFatal = errors.New("fatal sink error")

// Snapshotter returns a point-in-time snapshot of every live generator
// instance, in variant order. Sinks call it once at flush time.
type Snapshotter func() []generator.Snapshot

// Sink consumes generated records.
type Sink interface {
	// Accept delivers one record to the sink. When the sink cannot keep
	// up, Accept blocks until the record is queued or the context is
	// done. Accept shall not be called after FlushAndClose.
	Accept(ctx context.Context, rec generator.Record) error

	// FlushAndClose stops the sink, flushes pending records, and
	// returns the final snapshot of every live instance.
	// FlushAndClose shall not be called more than once.
	FlushAndClose(ctx context.Context) ([]generator.Snapshot, error)
}
