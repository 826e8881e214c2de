package postcommit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestGoSwallowsErrors(t *testing.T) {
	runner := NewRunner(testLogger(), WithSync())

	var called atomic.Bool
	runner.Go(context.Background(), "send-email", func(ctx context.Context) error {
		called.Store(true)
		return errors.New("smtp down")
	})

	if !called.Load() {
		t.Fatal("expected action to run")
	}
}

func TestGoRecoversPanics(t *testing.T) {
	runner := NewRunner(testLogger(), WithSync())

	runner.Go(context.Background(), "boom", func(ctx context.Context) error {
		panic("unexpected")
	})
	// Reaching this line means the panic did not escape.
}

func TestGoSurvivesCallerCancellation(t *testing.T) {
	runner := NewRunner(testLogger(), WithSync())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawCancelled atomic.Bool
	runner.Go(ctx, "detached", func(actionCtx context.Context) error {
		if actionCtx.Err() != nil {
			sawCancelled.Store(true)
		}
		return nil
	})

	if sawCancelled.Load() {
		t.Fatal("action context should be detached from the cancelled request context")
	}
}

func TestAsyncActionsCompleteBeforeWait(t *testing.T) {
	runner := NewRunner(testLogger(), WithTimeout(time.Second))

	var counter atomic.Int32
	for i := 0; i < 5; i++ {
		runner.Go(context.Background(), "bump", func(ctx context.Context) error {
			counter.Add(1)
			return nil
		})
	}
	runner.Wait()

	if got := counter.Load(); got != 5 {
		t.Fatalf("expected 5 completed actions, got %d", got)
	}
}
