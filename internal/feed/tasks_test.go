package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_SubmitAndDrain(t *testing.T) {
	runner := NewRunner(time.Second)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		runner.Submit("work", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if ran.Load() != 5 {
		t.Errorf("Expected 5 tasks to run, got %d", ran.Load())
	}
}

func TestRunner_TaskErrorDoesNotPropagate(t *testing.T) {
	runner := NewRunner(time.Second)

	runner.Submit("failing", func(ctx context.Context) error {
		return errors.New("boom")
	})
	runner.Submit("panicking", func(ctx context.Context) error {
		panic("boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runner.Drain(ctx); err != nil {
		t.Fatalf("Drain should succeed despite task failures: %v", err)
	}
}

func TestRunner_DrainHonorsContext(t *testing.T) {
	runner := NewRunner(10 * time.Second)

	release := make(chan struct{})
	runner.Submit("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runner.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	close(release)
}
