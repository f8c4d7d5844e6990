package scheduler

import (
	"context"
	"runtime/debug"
	"time"

	"news-trading-bot/internal/logger"
)

// Scheduler invokes a task at a fixed wall-clock cadence on its own goroutine.
// The next deadline is computed from the previous deadline, not from the end of
// the task, so long tasks do not accumulate drift; a task that overruns the
// interval makes the next invocation fire immediately. Exactly one invocation
// runs at a time, and Stop blocks until the in-flight invocation returns.
type Scheduler struct {
	interval time.Duration
	task     func(context.Context)

	stop chan struct{}
	done chan struct{}
}

func New(interval time.Duration, task func(context.Context)) *Scheduler {
	return &Scheduler{
		interval: interval,
		task:     task,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	logger.Info(ctx, "Scheduler starting", "interval", s.interval.String())
	go s.run(ctx)
}

// Stop signals the loop and waits for the current invocation to finish.
// Cancellation is cooperative between invocations, never mid-task.
func (s *Scheduler) Stop(ctx context.Context) {
	logger.Info(ctx, "Scheduler stopping")
	close(s.stop)
	<-s.done
	logger.Info(ctx, "Scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	next := time.Now().Add(s.interval)
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			s.invoke(ctx)
			next = next.Add(s.interval)
			wait := time.Until(next)
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
		}
	}
}

// invoke runs one task invocation, containing any panic at the tick boundary
// so a failing tick never kills the scheduling loop.
func (s *Scheduler) invoke(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Recovered panic in scheduled task", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	s.task(ctx)
}
