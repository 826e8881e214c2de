package postcommit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

// Runner executes best-effort side effects after the primary operation has
// committed. Failures are logged, never propagated: a dead mailer or courier
// must not fail an already-persisted order.
type Runner struct {
	logg    *logger.Logger
	timeout time.Duration
	sync    bool
	wg      sync.WaitGroup
}

// Option customizes a Runner.
type Option func(*Runner)

// WithTimeout bounds each action; zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

// WithSync runs actions inline instead of on a goroutine; used by tests.
func WithSync() Option {
	return func(r *Runner) {
		r.sync = true
	}
}

// NewRunner builds a post-commit action runner.
func NewRunner(logg *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		logg:    logg,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Go schedules fn. The action receives a context detached from the request so
// it survives the caller's cancellation.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}

	run := func() {
		actionCtx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			actionCtx, cancel = context.WithTimeout(actionCtx, r.timeout)
			defer cancel()
		}

		defer func() {
			if rec := recover(); rec != nil && r.logg != nil {
				r.logg.Error(actionCtx, "post-commit action panicked", fmt.Errorf("%s: %v", name, rec))
			}
		}()

		if err := fn(actionCtx); err != nil && r.logg != nil {
			fields := map[string]any{"action": name}
			r.logg.Error(r.logg.WithFields(actionCtx, fields), "post-commit action failed", err)
		}
	}

	if r.sync {
		run()
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		run()
	}()
}

// Wait blocks until all scheduled actions have finished; called on shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}
