package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"challan-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestPoolExecutorRunsAndDrains(t *testing.T) {
	tel := &telemetry.MemoryAPI{}
	exec := NewPoolExecutor(tel, 2)

	var ran atomic.Int64
	for i := 0; i < 5; i++ {
		exec.Submit(Task{Name: "count", Run: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, exec.Drain(ctx))
	require.Equal(t, int64(5), ran.Load())

	// submitting after drain is reported and dropped
	exec.Submit(Task{Name: "late", Run: func(ctx context.Context) error {
		ran.Add(1)
		return nil
	}})
	require.Equal(t, int64(5), ran.Load())
	require.Len(t, tel.Reports("warning"), 1)
}

func TestErrorBoundary(t *testing.T) {
	tel := &telemetry.MemoryAPI{}
	exec := InlineExecutor{Tel: tel}

	exec.Submit(Task{Name: "fails", Run: func(ctx context.Context) error {
		return errors.New("boom")
	}})
	exec.Submit(Task{Name: "panics", Run: func(ctx context.Context) error {
		panic("kaboom")
	}})

	broken := tel.Reports("broken")
	require.Len(t, broken, 2)
	require.Equal(t, "fails", broken[0].Params[1])
	require.Equal(t, "panics", broken[1].Params[1])
}

func TestSubmitDoesNotWaitForBusyWorkers(t *testing.T) {
	tel := &telemetry.MemoryAPI{}
	exec := NewPoolExecutor(tel, 1)

	release := make(chan struct{})
	var ran atomic.Int64
	blocking := Task{Name: "blocking", Run: func(ctx context.Context) error {
		<-release
		ran.Add(1)
		return nil
	}}
	exec.Submit(blocking)

	const extra = queuePerWorker * 3
	submitted := make(chan struct{})
	go func() {
		for i := 0; i < extra; i++ {
			exec.Submit(Task{Name: "queued", Run: func(ctx context.Context) error {
				ran.Add(1)
				return nil
			}})
		}
		close(submitted)
	}()

	select {
	case <-submitted:
	case <-time.After(time.Second * 2):
		t.Fatal("Submit blocked while the only worker was busy")
	}

	dropped := len(tel.Reports("warning"))
	require.Greater(t, dropped, 0)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	require.NoError(t, exec.Drain(ctx))
	require.Equal(t, int64(extra+1-dropped), ran.Load())
}

func TestDrainReturnsWhenContextExpires(t *testing.T) {
	exec := NewPoolExecutor(&telemetry.MemoryAPI{}, 1)
	release := make(chan struct{})
	defer close(release)
	exec.Submit(Task{Name: "blocking", Run: func(ctx context.Context) error {
		<-release
		return nil
	}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()
	require.ErrorIs(t, exec.Drain(ctx), context.DeadlineExceeded)
}
