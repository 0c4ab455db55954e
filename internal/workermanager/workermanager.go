// Package workermanager manages worker goroutines with automatic
// restart and exponential backoff.
//
// Workers run a function that returns an error when they exit. A nil
// return means the worker finished cleanly (its input channel closed or
// its context was cancelled) and it is not restarted. A non-nil return
// is treated as a transient failure and the worker is restarted with
// exponential backoff. An error wrapped with backoff.Permanent, or a
// retry budget exhausted, marks the worker as permanently failed: the
// manager records the error, cancels the remaining workers, and the
// owner can observe the failure through Err.
package workermanager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	// DefaultInitialInterval is the initial restart backoff delay.
	DefaultInitialInterval = 100 * time.Millisecond

	// DefaultMaxInterval is the maximum restart backoff delay.
	DefaultMaxInterval = 30 * time.Second

	// DefaultMaxElapsedTime is the total retry budget per worker before
	// its failure becomes permanent.
	DefaultMaxElapsedTime = 5 * time.Minute
)

// WorkerFunc is the function run by each worker. The context is
// cancelled when the manager stops or a sibling worker fails
// permanently.
type WorkerFunc func(ctx context.Context, id int) error

// WorkerManager runs a fixed set of workers with restart-on-failure.
type WorkerManager struct {
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	workerFunc  WorkerFunc
	workerCount int

	mu            sync.RWMutex
	activeWorkers int
	firstErr      error
}

// New creates a new worker manager.
func New(logger *zap.Logger, workerCount int, workerFunc WorkerFunc) *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerManager{
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		workerFunc:  workerFunc,
		workerCount: workerCount,
	}
}

// Start spawns the workers.
func (wm *WorkerManager) Start() {
	wm.logger.Info("Starting worker manager", zap.Int("target_workers", wm.workerCount))

	for i := 0; i < wm.workerCount; i++ {
		wm.startWorker(i)
	}
}

// Wait blocks until every worker has exited on its own, typically after
// the owner closes the worker input channels. If the provided context
// is done first, the remaining workers are cancelled.
func (wm *WorkerManager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		wm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		wm.cancel()
		<-done
	}

	return wm.Err()
}

// Stop cancels all workers and waits for them to finish.
func (wm *WorkerManager) Stop() {
	wm.logger.Info("Stopping worker manager")
	wm.cancel()
	wm.wg.Wait()
	wm.logger.Info("Worker manager stopped")
}

// Done returns a channel closed when the manager stops or a worker
// fails permanently.
func (wm *WorkerManager) Done() <-chan struct{} {
	return wm.ctx.Done()
}

// Err returns the first permanent worker failure, or nil.
func (wm *WorkerManager) Err() error {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.firstErr
}

// ActiveWorkers returns the current number of running workers.
func (wm *WorkerManager) ActiveWorkers() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.activeWorkers
}

func (wm *WorkerManager) startWorker(id int) {
	wm.mu.Lock()
	wm.activeWorkers++
	wm.mu.Unlock()

	wm.wg.Add(1)
	go wm.runWorker(id)
}

// runWorker runs one worker, restarting it with exponential backoff
// after transient failures.
func (wm *WorkerManager) runWorker(id int) {
	defer wm.wg.Done()
	defer func() {
		wm.mu.Lock()
		wm.activeWorkers--
		wm.mu.Unlock()
	}()

	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(DefaultInitialInterval),
		backoff.WithMaxInterval(DefaultMaxInterval),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0.1),
		backoff.WithMaxElapsedTime(DefaultMaxElapsedTime),
	)

	for {
		err := wm.workerFunc(wm.ctx, id)
		if err == nil {
			wm.logger.Debug("Worker exited cleanly", zap.Int("worker_id", id))
			return
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			wm.fail(id, permanent.Unwrap())
			return
		}

		select {
		case <-wm.ctx.Done():
			wm.logger.Info("Worker exiting - context cancelled", zap.Int("worker_id", id))
			return
		default:
		}

		delay := policy.NextBackOff()
		if delay == backoff.Stop {
			wm.fail(id, err)
			return
		}

		wm.logger.Warn("Worker failed, retrying with backoff",
			zap.Int("worker_id", id),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-wm.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// fail records a permanent worker failure and cancels the siblings.
func (wm *WorkerManager) fail(id int, err error) {
	wm.logger.Error("Worker failed permanently", zap.Int("worker_id", id), zap.Error(err))

	wm.mu.Lock()
	if wm.firstErr == nil {
		wm.firstErr = err
	}
	wm.mu.Unlock()

	wm.cancel()
}
