package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/neural-chilli/fluxfakr/generator"
)

// Stdout writes one record per line. It is the print-only streaming
// sink, useful for inspecting generated data without a broker.
type Stdout struct {
	logger   *zap.Logger
	snapshot Snapshotter

	mu     sync.Mutex
	writer *bufio.Writer
	closed bool

	written uint64
}

// NewStdout creates a sink writing records to standard output.
func NewStdout(logger *zap.Logger, snapshot Snapshotter) (*Stdout, error) {
	return newStdout(logger, os.Stdout, snapshot)
}

// newStdout wires the sink around any writer. Split out so tests can
// capture the output.
func newStdout(logger *zap.Logger, w io.Writer, snapshot Snapshotter) (*Stdout, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshotter cannot be nil")
	}

	return &Stdout{
		logger:   logger.Named("output-stdout"),
		snapshot: snapshot,
		writer:   bufio.NewWriter(w),
	}, nil
}

// Accept writes the record payload followed by a newline. Payloads are
// single-line JSON objects, so records never span lines.
func (s *Stdout) Accept(_ context.Context, rec generator.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("stdout sink is closed")
	}

	if _, err := s.writer.Write(rec.Payload); err != nil {
		return fmt.Errorf("%w: write record: %w", ErrFatal, err)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: write record: %w", ErrFatal, err)
	}

	s.written++
	return nil
}

// FlushAndClose flushes buffered records and returns the final
// instance snapshots.
func (s *Stdout) FlushAndClose(_ context.Context) ([]generator.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	err := s.writer.Flush()

	s.logger.Info("Stdout sink stopped", zap.Uint64("records_written", s.written))

	if err != nil {
		return s.snapshot(), fmt.Errorf("flush stdout sink: %w", err)
	}
	return s.snapshot(), nil
}
