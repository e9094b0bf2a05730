package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/rickchristie/rungpt"
	"github.com/sourcegraph/conc/pool"
)

// DefaultMaxWorkers bounds Parallel when no limit is given.
const DefaultMaxWorkers = 5

// Parallel runs its steps concurrently against the same context.
type Parallel struct {
	name       string
	maxWorkers int
	steps      []Step
}

// NewParallel creates a fan-out. maxWorkers <= 0 means DefaultMaxWorkers. An
// empty name becomes "parallel". Step names should be unique; results are
// keyed by them.
func NewParallel(name string, maxWorkers int, steps ...Step) *Parallel {
	if name == "" {
		name = "parallel"
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Parallel{name: name, maxWorkers: maxWorkers, steps: steps}
}

// Name implements Step.
func (p *Parallel) Name() string { return p.name }

// MaxWorkers returns the pool size.
func (p *Parallel) MaxWorkers() int { return p.maxWorkers }

// Run returns a map[string]any from step name to result. A failing or
// panicking step contributes "Error: <message>" and never affects its
// siblings, so Run itself does not fail.
func (p *Parallel) Run(ctx context.Context, wc *Context) (any, error) {
	if wc == nil {
		wc = NewContext(nil)
	}

	var mu sync.Mutex
	results := make(map[string]any, len(p.steps))

	workers := pool.New().WithMaxGoroutines(p.maxWorkers)
	for _, step := range p.steps {
		workers.Go(func() {
			result := runIsolated(ctx, step, wc)
			mu.Lock()
			results[step.Name()] = result
			mu.Unlock()
		})
	}
	workers.Wait()

	return results, nil
}

func runIsolated(ctx context.Context, step Step, wc *Context) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("%s %v", rungpt.ErrorPrefix, r)
		}
	}()
	res, err := Execute(ctx, step, wc)
	if err != nil {
		return fmt.Sprintf("%s %s", rungpt.ErrorPrefix, err.Error())
	}
	return res
}
