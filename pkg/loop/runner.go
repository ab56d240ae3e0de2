package loop

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Runner runs multiple Runnables and collects their errors.
type Runner struct {
	Context context.Context
	Runners []Runnable

	errCh chan error
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with the specified context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{Context: ctx, errCh: make(chan error, 1)}
}

// HandleSignals cancels the runner's context on CtrlC or SIGTERM.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
	}()
	return r
}

// Go spawns Runnables with the runner's context.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		r.Runners = append(r.Runners, runner)
		go func(runner Runnable) {
			r.errCh <- runner.Run(r.Context)
		}(runner)
	}
	return r
}

// Wait waits until all Runnables stop and aggregates errors.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.Runners {
		if err := <-r.errCh; err != context.Canceled {
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}
