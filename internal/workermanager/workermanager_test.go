package workermanager

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWorkerManager_CleanExit(t *testing.T) {
	logger := zaptest.NewLogger(t)

	var runs atomic.Int32
	wm := New(logger, 3, func(ctx context.Context, id int) error {
		runs.Add(1)
		return nil
	})
	wm.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, wm.Wait(ctx))

	assert.Equal(t, int32(3), runs.Load())
	assert.Equal(t, 0, wm.ActiveWorkers())
	assert.NoError(t, wm.Err())
}

func TestWorkerManager_RestartsOnTransientFailure(t *testing.T) {
	logger := zaptest.NewLogger(t)

	var runs atomic.Int32
	wm := New(logger, 1, func(ctx context.Context, id int) error {
		if runs.Add(1) < 3 {
			return fmt.Errorf("transient failure")
		}
		return nil
	})
	wm.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wm.Wait(ctx))

	assert.Equal(t, int32(3), runs.Load())
	assert.NoError(t, wm.Err())
}

func TestWorkerManager_PermanentFailure(t *testing.T) {
	logger := zaptest.NewLogger(t)

	failure := fmt.Errorf("broker rejected record")
	blocked := make(chan struct{})

	wm := New(logger, 2, func(ctx context.Context, id int) error {
		if id == 0 {
			return backoff.Permanent(failure)
		}
		close(blocked)
		<-ctx.Done()
		return nil
	})
	wm.Start()

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("second worker never started")
	}

	// The failing worker must cancel its sibling.
	select {
	case <-wm.Done():
	case <-time.After(time.Second):
		t.Fatal("manager did not observe the permanent failure")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := wm.Wait(ctx)
	assert.ErrorIs(t, err, failure)
	assert.ErrorIs(t, wm.Err(), failure)
}

func TestWorkerManager_Stop(t *testing.T) {
	logger := zaptest.NewLogger(t)

	wm := New(logger, 2, func(ctx context.Context, id int) error {
		<-ctx.Done()
		return nil
	})
	wm.Start()

	done := make(chan struct{})
	go func() {
		wm.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, 0, wm.ActiveWorkers())
	assert.NoError(t, wm.Err())
}

func TestWorkerManager_WaitCancelsOnContext(t *testing.T) {
	logger := zaptest.NewLogger(t)

	wm := New(logger, 1, func(ctx context.Context, id int) error {
		<-ctx.Done()
		return nil
	})
	wm.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// The worker only exits once Wait cancels it on context expiry.
	assert.NoError(t, wm.Wait(ctx))
	assert.Equal(t, 0, wm.ActiveWorkers())
}
