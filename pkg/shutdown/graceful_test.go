package shutdown_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/pkg/shutdown"
)

func TestWait_RunsHooksOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	hook := func(context.Context) error {
		calls.Add(1)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- shutdown.Wait(ctx, time.Second, hook, hook)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestRun_JoinsHookErrors(t *testing.T) {
	errHook := errors.New("close failed")

	err := shutdown.Run(context.Background(), time.Second,
		func(context.Context) error { return nil },
		func(context.Context) error { return errHook },
	)

	require.ErrorIs(t, err, errHook)
}

func TestRun_RespectsTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		select {
		case <-time.After(2 * time.Second):
			return nil
		case <-ctx.Done():
			<-time.After(200 * time.Millisecond)
			return ctx.Err()
		}
	}

	start := time.Now()
	err := shutdown.Run(context.Background(), 100*time.Millisecond, slow)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
