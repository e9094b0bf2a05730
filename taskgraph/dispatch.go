package taskgraph

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Dispatcher runs one ready batch. Dispatch must return only after run has
// returned for every task in the batch.
type Dispatcher interface {
	Dispatch(ctx context.Context, tasks []*Task, run func(ctx context.Context, task *Task))
}

// Sequential runs a batch one task at a time in insertion order.
type Sequential struct{}

func (Sequential) Dispatch(ctx context.Context, tasks []*Task, run func(context.Context, *Task)) {
	for _, t := range tasks {
		run(ctx, t)
	}
}

// Concurrent runs a batch on goroutines, at most Limit at once. A Limit of
// zero or less means no limit.
type Concurrent struct {
	Limit int
}

func (c Concurrent) Dispatch(ctx context.Context, tasks []*Task, run func(context.Context, *Task)) {
	var g errgroup.Group
	if c.Limit > 0 {
		g.SetLimit(c.Limit)
	}
	for _, t := range tasks {
		g.Go(func() error {
			run(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
}
