// Package taskgraph holds dependency-linked tasks and the readiness-driven
// loop that executes them.
//
// A task is ready when it is pending and every dependency id names a
// completed task. A dependency id that names no task in the graph never
// becomes completed, so it blocks the task for good; [Graph.Validate]
// reports such ids up front.
//
//	g := taskgraph.New("plan a trip",
//	    taskgraph.NewTask("task_1", "pick a city"),
//	    taskgraph.NewTask("task_2", "book a hotel", "task_1"),
//	)
//	report := g.Run(ctx, taskgraph.Sequential{}, func(ctx context.Context, t *taskgraph.Task) (string, error) {
//	    return agent.Run(ctx, t.Description, nil)
//	})
//
// A graph that cannot finish (cycles, failed or missing dependencies) stops
// with tasks still pending. That is reported through [Report], never as an error.
package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/hooks"
)

// ErrDuplicateTask is returned by [Graph.Add] when the id is already taken.
var ErrDuplicateTask = errors.New("duplicate task id")

// TaskFunc executes one task and returns its result text.
type TaskFunc func(ctx context.Context, task *Task) (string, error)

// Graph is an ordered, dependency-aware collection of tasks. It is mutated in
// place while it runs. All methods are safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	goal  string
	tasks []*Task
	index map[string]*Task

	// ids rejected by New because they were already taken
	duplicates []string

	hooks         *hooks.Registry
	maxIterations int
}

// New creates a graph for goal. Tasks whose id is already taken are dropped
// and reported by [Graph.Validate].
func New(goal string, tasks ...*Task) *Graph {
	g := &Graph{
		goal:  goal,
		index: make(map[string]*Task, len(tasks)),
	}
	for _, t := range tasks {
		if err := g.Add(t); err != nil {
			g.duplicates = append(g.duplicates, t.ID)
		}
	}
	return g
}

// WithHooks attaches a hook registry receiving task start and done events.
func (g *Graph) WithHooks(r *hooks.Registry) *Graph {
	g.hooks = r
	return g
}

// WithMaxIterations overrides the default bound of twice the task count.
func (g *Graph) WithMaxIterations(n int) *Graph {
	g.maxIterations = n
	return g
}

// Goal returns the goal the tasks were derived from.
func (g *Graph) Goal() string {
	return g.goal
}

// Add appends a task. An empty status is treated as pending.
func (g *Graph) Add(t *Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.index[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	g.tasks = append(g.tasks, t)
	g.index[t.ID] = t
	return nil
}

// Get returns the task with id.
func (g *Graph) Get(id string) (*Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.index[id]
	return t, ok
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tasks)
}

// Tasks returns snapshots of all tasks in insertion order.
func (g *Graph) Tasks() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Task, len(g.tasks))
	for i, t := range g.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Ready returns the pending tasks whose dependencies are all completed, in
// insertion order.
func (g *Graph) Ready() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.readyLocked()
}

func (g *Graph) readyLocked() []*Task {
	var ready []*Task
	for _, t := range g.tasks {
		if t.Status != StatusPending {
			continue
		}
		if g.satisfiedLocked(t) {
			ready = append(ready, t)
		}
	}
	return ready
}

func (g *Graph) satisfiedLocked(t *Task) bool {
	for _, dep := range t.Dependencies {
		d, ok := g.index[dep]
		if !ok || d.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// IsComplete reports whether every task is completed or failed.
func (g *Graph) IsComplete() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, t := range g.tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

// Pending returns the ids of tasks that have not reached a terminal status.
func (g *Graph) Pending() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var ids []string
	for _, t := range g.tasks {
		if !t.Status.Terminal() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Results maps every task id to its result text (empty when it never ran).
func (g *Graph) Results() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]string, len(g.tasks))
	for _, t := range g.tasks {
		out[t.ID] = t.Result
	}
	return out
}

// Counts returns how many tasks are in each status.
func (g *Graph) Counts() map[Status]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := map[Status]int{}
	for _, t := range g.tasks {
		out[t.Status]++
	}
	return out
}

// SetStatus moves a task to status with result. It is used by callers that
// drive the graph by hand instead of through [Graph.Run].
func (g *Graph) SetStatus(id string, status Status, result string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.index[id]
	if !ok {
		return false
	}
	t.Status = status
	t.Result = result
	return true
}

// -----------------------------------------------------------------------------
// Scheduling Loop
// -----------------------------------------------------------------------------

// Report summarizes a [Graph.Run].
type Report struct {
	// Iterations is the number of ready batches executed.
	Iterations int

	// Complete is true when every task reached a terminal status.
	Complete bool

	// Stuck lists tasks left pending, for example behind a cycle, a failed
	// dependency or a dependency id that names no task.
	Stuck []string

	Completed int
	Failed    int

	// Err is set when the context was cancelled before the graph settled.
	Err error
}

// Run executes the graph. Each iteration computes the ready set; an empty set
// ends the loop. Otherwise every ready task is marked running and handed to
// dispatch. The loop is bounded by twice the task count unless overridden.
//
// fn's error marks a task failed with the result "execution failed: <err>".
func (g *Graph) Run(ctx context.Context, dispatch Dispatcher, fn TaskFunc) Report {
	if dispatch == nil {
		dispatch = Sequential{}
	}
	maxIterations := g.maxIterations
	if maxIterations <= 0 {
		maxIterations = 2 * g.Len()
	}

	var report Report
	for report.Iterations < maxIterations {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}

		g.mu.Lock()
		ready := g.readyLocked()
		for _, t := range ready {
			t.Status = StatusRunning
		}
		g.mu.Unlock()

		if len(ready) == 0 {
			break
		}
		report.Iterations++

		dispatch.Dispatch(ctx, ready, func(ctx context.Context, t *Task) {
			g.execute(ctx, t, fn)
		})
	}

	counts := g.Counts()
	report.Completed = counts[StatusCompleted]
	report.Failed = counts[StatusFailed]
	report.Stuck = g.Pending()
	report.Complete = len(report.Stuck) == 0
	return report
}

func (g *Graph) execute(ctx context.Context, t *Task, fn TaskFunc) {
	g.hooks.FireTaskStart(ctx, rungpt.TaskStartEvent{TaskID: t.ID, Description: t.Description})
	start := time.Now()

	result, err := fn(ctx, t)

	g.mu.Lock()
	if err != nil {
		t.Status = StatusFailed
		t.Result = fmt.Sprintf("execution failed: %v", err)
	} else {
		t.Status = StatusCompleted
		t.Result = result
	}
	status, final := t.Status, t.Result
	g.mu.Unlock()

	g.hooks.FireTaskDone(ctx, rungpt.TaskDoneEvent{
		TaskID:   t.ID,
		Status:   string(status),
		Result:   final,
		Duration: time.Since(start),
	})
}
