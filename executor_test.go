package vgpu

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutorRunsAllSubmittedTasks(t *testing.T) {
	e := NewExecutor(4)
	defer e.Shutdown()

	const n = 200
	var counter atomic.Int64
	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		tasks[i] = e.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			counter.Add(1)
			return nil, nil
		}, 0)
	}
	for _, task := range tasks {
		if _, err := task.Wait(); err != nil {
			t.Fatalf("task failed: %v", err)
		}
	}
	if got := counter.Load(); got != n {
		t.Fatalf("counter = %d, want %d", got, n)
	}
}

func TestExecutorTaskReturnsValue(t *testing.T) {
	e := NewExecutor(2)
	defer e.Shutdown()

	task := e.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
		return 42, nil
	}, 0)
	val, err := task.Wait()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.(int) != 42 {
		t.Fatalf("val = %v, want 42", val)
	}
}

func TestExecutorRecoversPanic(t *testing.T) {
	e := NewExecutor(1)
	defer e.Shutdown()

	task := e.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
		panic("boom")
	}, 0)
	if _, err := task.Wait(); err == nil {
		t.Fatalf("expected error from panicking task")
	}
}

func TestExecutorStealingDrainsOverloadedQueue(t *testing.T) {
	e := NewExecutor(4)
	defer e.Shutdown()

	const n = 500
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		e.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			done <- struct{}{}
			return nil, nil
		}, 0)
	}

	timeout := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-timeout:
			t.Fatalf("timed out waiting for task %d/%d", i, n)
		}
	}
}

func TestExecutorNestedSubmitLandsOnOwnQueue(t *testing.T) {
	e := NewExecutor(1)
	defer e.Shutdown()

	var outerWorker, innerWorker int
	var innerOK bool

	// The outer task hands the inner Task back instead of waiting on it:
	// with a single worker, waiting inside the outer task would block the
	// only goroutine able to run the inner one.
	outer := e.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
		outerWorker, _ = WorkerID(ctx)
		inner := e.Submit(ctx, func(innerCtx context.Context) (interface{}, error) {
			innerWorker, innerOK = WorkerID(innerCtx)
			return nil, nil
		}, 0)
		return inner, nil
	}, 0)

	innerVal, err := outer.Wait()
	if err != nil {
		t.Fatalf("outer task failed: %v", err)
	}
	if _, err := innerVal.(*Task).Wait(); err != nil {
		t.Fatalf("inner task failed: %v", err)
	}
	if !innerOK {
		t.Fatalf("inner task's ctx carried no worker id")
	}
	if innerWorker != outerWorker {
		t.Fatalf("innerWorker = %d, want same worker as outer (%d)", innerWorker, outerWorker)
	}
}

func TestExecutorExternalSubmitRoundRobins(t *testing.T) {
	e := NewExecutor(4)
	defer e.Shutdown()

	if _, ok := WorkerID(context.Background()); ok {
		t.Fatalf("context.Background() must not report a worker id")
	}

	// Each external submission advances the round-robin counter once.
	const n = 8
	for i := 0; i < n; i++ {
		e.Submit(context.Background(), func(ctx context.Context) (interface{}, error) {
			return nil, nil
		}, 0)
	}
	e.WaitAll()
	e.rrMu.Lock()
	next := e.rrNext
	e.rrMu.Unlock()
	if next != n {
		t.Fatalf("rrNext = %d after %d external submits, want %d", next, n, n)
	}
}
