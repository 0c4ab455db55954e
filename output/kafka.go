package output

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/neural-chilli/fluxfakr/generator"
	"github.com/neural-chilli/fluxfakr/internal/workermanager"
)

const (
	// DefaultKafkaChannelSize is the per-worker size of the record
	// channel. When a channel is full, Accept blocks (backpressure).
	DefaultKafkaChannelSize = 100

	// DefaultKafkaWorkers is the default number of writer goroutines.
	DefaultKafkaWorkers = 1

	// DefaultKafkaWriteTimeout is the timeout for a single delivery
	// attempt.
	DefaultKafkaWriteTimeout = 5 * time.Second

	// DefaultKafkaRetryBudget is the total retry time per record before
	// a delivery failure becomes fatal.
	DefaultKafkaRetryBudget = 30 * time.Second
)

// kafkaWriter is the subset of kafka.Writer used by the sink.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka forwards records to a Kafka topic. Records are routed to
// per-worker channels by variant so per-variant order is preserved
// regardless of the worker count; cross-variant ordering is not
// imposed. Transient delivery failures are retried with bounded
// exponential backoff; once the retry budget is exhausted the sink
// fails permanently and subsequent Accepts return an error wrapping
// ErrFatal.
type Kafka struct {
	logger   *zap.Logger
	writer   kafkaWriter
	snapshot Snapshotter
	workers  int
	chans    []chan generator.Record
	manager  *workermanager.WorkerManager

	writeTimeout time.Duration
	retryBudget  time.Duration

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewKafka creates a Kafka sink publishing to the given topic.
func NewKafka(logger *zap.Logger, brokers []string, topic string, workers int, snapshot Snapshotter) (*Kafka, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshotter cannot be nil")
	}
	if workers <= 0 {
		workers = DefaultKafkaWorkers
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	return newKafka(logger, writer, workers, snapshot), nil
}

// newKafka wires the sink around any kafkaWriter. Split out so tests
// can substitute the writer.
func newKafka(logger *zap.Logger, writer kafkaWriter, workers int, snapshot Snapshotter) *Kafka {
	k := &Kafka{
		logger:       logger.Named("output-kafka"),
		writer:       writer,
		snapshot:     snapshot,
		workers:      workers,
		chans:        make([]chan generator.Record, workers),
		writeTimeout: DefaultKafkaWriteTimeout,
		retryBudget:  DefaultKafkaRetryBudget,
	}

	for i := range k.chans {
		k.chans[i] = make(chan generator.Record, DefaultKafkaChannelSize)
	}

	k.logger.Info("Starting Kafka sink",
		zap.Int("workers", workers),
		zap.Int("channel_size", DefaultKafkaChannelSize))

	k.manager = workermanager.New(k.logger, workers, k.kafkaWorker)
	k.manager.Start()

	return k
}

// Accept queues one record for delivery. Accept blocks when the
// worker's channel is full, applying backpressure to the producer path.
func (k *Kafka) Accept(ctx context.Context, rec generator.Record) error {
	if err := k.manager.Err(); err != nil {
		return fmt.Errorf("%w: kafka delivery failed: %w", ErrFatal, err)
	}

	select {
	case k.chans[rec.Variant%k.workers] <- rec:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting to queue record: %w", ctx.Err())
	case <-k.manager.Done():
		if err := k.manager.Err(); err != nil {
			return fmt.Errorf("%w: kafka delivery failed: %w", ErrFatal, err)
		}
		return fmt.Errorf("kafka sink is shutting down")
	}
}

// FlushAndClose drains the queued records, closes the writer, and
// returns the final instance snapshots.
func (k *Kafka) FlushAndClose(ctx context.Context) ([]generator.Snapshot, error) {
	k.logger.Info("Stopping Kafka sink")

	for _, ch := range k.chans {
		close(ch)
	}

	err := k.manager.Wait(ctx)
	k.manager.Stop()

	if closeErr := k.writer.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close kafka writer: %w", closeErr)
	}

	k.logger.Info("Kafka sink stopped",
		zap.Uint64("records_sent", k.sent.Load()),
		zap.Uint64("records_failed", k.failed.Load()))

	return k.snapshot(), err
}

// kafkaWorker delivers records from its channel until the channel
// closes. A record that cannot be delivered within the retry budget is
// a permanent failure.
func (k *Kafka) kafkaWorker(ctx context.Context, id int) error {
	for {
		select {
		case rec, ok := <-k.chans[id]:
			if !ok {
				k.logger.Debug("Kafka worker exiting - channel closed", zap.Int("worker_id", id))
				return nil
			}

			if err := k.send(ctx, rec); err != nil {
				k.failed.Add(1)
				return backoff.Permanent(fmt.Errorf("deliver record for variant %d: %w", rec.Variant, err))
			}
			k.sent.Add(1)

		case <-ctx.Done():
			k.logger.Debug("Kafka worker exiting - context cancelled", zap.Int("worker_id", id))
			return nil
		}
	}
}

// send delivers one record, retrying transient failures with bounded
// exponential backoff.
func (k *Kafka) send(ctx context.Context, rec generator.Record) error {
	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(rec.Variant)),
		Value: rec.Payload,
	}

	attempt := func() error {
		writeCtx, cancel := context.WithTimeout(ctx, k.writeTimeout)
		defer cancel()
		return k.writer.WriteMessages(writeCtx, msg)
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(k.retryBudget),
	), ctx)

	return backoff.Retry(attempt, policy)
}
