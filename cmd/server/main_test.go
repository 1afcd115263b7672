package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithRestart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("restarts after transient errors", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var calls atomic.Int32
		done := make(chan struct{})
		go func() {
			defer close(done)
			runWithRestart(ctx, logger, "loop", time.Millisecond, func(ctx context.Context) error {
				if calls.Add(1) >= 3 {
					return nil
				}
				return errors.New("store unavailable")
			})
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("loop was not restarted after transient errors")
		}
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			defer close(done)
			runWithRestart(ctx, logger, "loop", time.Minute, func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			})
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("loop did not stop on cancellation")
		}
	})

	t.Run("does not restart after cancellation mid-backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		var calls atomic.Int32
		done := make(chan struct{})
		go func() {
			defer close(done)
			runWithRestart(ctx, logger, "loop", time.Minute, func(ctx context.Context) error {
				calls.Add(1)
				return errors.New("store unavailable")
			})
		}()

		require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("loop did not stop during backoff")
		}
		assert.Equal(t, int32(1), calls.Load())
	})
}
