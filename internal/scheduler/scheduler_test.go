package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsAtInterval(t *testing.T) {
	var count atomic.Int32
	s := New(20*time.Millisecond, func(context.Context) {
		count.Add(1)
	})

	ctx := context.Background()
	s.Start(ctx)
	time.Sleep(110 * time.Millisecond)
	s.Stop(ctx)

	got := count.Load()
	if got < 3 || got > 7 {
		t.Errorf("Expected roughly 5 invocations in 110ms at 20ms cadence, got %d", got)
	}
}

func TestSchedulerNeverOverlapsInvocations(t *testing.T) {
	var running atomic.Int32
	var overlapped atomic.Bool

	s := New(10*time.Millisecond, func(context.Context) {
		if running.Add(1) > 1 {
			overlapped.Store(true)
		}
		// Run longer than the interval to force back-to-back scheduling.
		time.Sleep(25 * time.Millisecond)
		running.Add(-1)
	})

	ctx := context.Background()
	s.Start(ctx)
	time.Sleep(120 * time.Millisecond)
	s.Stop(ctx)

	if overlapped.Load() {
		t.Error("Expected invocations to never overlap")
	}
}

func TestStopWaitsForInFlightTask(t *testing.T) {
	var mu sync.Mutex
	finished := false

	started := make(chan struct{})
	s := New(10*time.Millisecond, func(context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	ctx := context.Background()
	s.Start(ctx)
	<-started
	s.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	if !finished {
		t.Error("Expected Stop to wait for the in-flight task to finish")
	}
}

func TestTaskPanicDoesNotKillLoop(t *testing.T) {
	var count atomic.Int32
	s := New(15*time.Millisecond, func(context.Context) {
		if count.Add(1) == 1 {
			panic("boom")
		}
	})

	ctx := context.Background()
	s.Start(ctx)
	time.Sleep(80 * time.Millisecond)
	s.Stop(ctx)

	if count.Load() < 2 {
		t.Error("Expected scheduling to continue after a panicking task")
	}
}
