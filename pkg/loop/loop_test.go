package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brake.go/pkg/ticker"
)

func TestLoopRunsTickersInOrder(t *testing.T) {
	clk := &ticker.Manual{}
	clk.Set(42)

	var order []int
	l := New(clk)
	l.Interval = time.Millisecond
	l.Add(
		TickFunc(func(now ticker.Ticks) {
			require.Equal(t, ticker.Ticks(42), now)
			order = append(order, 1)
		}),
		TickFunc(func(ticker.Ticks) {
			order = append(order, 2)
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	require.Equal(t, context.Canceled, <-done)

	require.True(t, len(order) >= 2)
	require.Equal(t, 1, order[0])
	require.Equal(t, 2, order[1])
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	errs.Add(nil, context.DeadlineExceeded)
	err := errs.Aggregate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "deadline")
}
