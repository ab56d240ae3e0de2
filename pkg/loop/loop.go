// Package loop drives components from a single cooperative polling
// goroutine, the in-process equivalent of the firmware main loop.
package loop

import (
	"context"
	"log"
	"time"

	"github.com/robotalks/brake.go/pkg/ticker"
)

// Ticker is a component driven by the polling loop. Tick is always called
// from the loop's goroutine; components need no internal locking against
// each other.
type Ticker interface {
	Tick(now ticker.Ticks)
}

// TickFunc is the func form of Ticker.
type TickFunc func(ticker.Ticks)

// Tick implements Ticker.
func (f TickFunc) Tick(now ticker.Ticks) {
	f(now)
}

// Loop runs registered Tickers at a fixed interval, in registration order,
// passing each iteration's tick count.
type Loop struct {
	Interval time.Duration
	Clock    ticker.Clock

	tickers []Ticker
}

// DefaultInterval is used when Interval is unset.
const DefaultInterval = 10 * time.Millisecond

// New creates a Loop using the given clock.
func New(clock ticker.Clock) *Loop {
	return &Loop{Interval: DefaultInterval, Clock: clock}
}

// Add registers Tickers. Order matters: each iteration runs them in the
// order they were added.
func (l *Loop) Add(tickers ...Ticker) *Loop {
	l.tickers = append(l.tickers, tickers...)
	return l
}

// Run implements Runnable. It blocks until the context is canceled.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	tm := time.NewTicker(interval)
	defer tm.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tm.C:
			l.runIteration()
		}
	}
}

func (l *Loop) runIteration() {
	now := l.Clock.Now()
	for _, t := range l.tickers {
		t.Tick(now)
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.Background()); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}
