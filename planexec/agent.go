package planexec

import (
	"context"
	"sync"
	"time"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/hooks"
)

// Trace event types recorded by Agent in addition to the rungpt ones.
const (
	EventPlanCreated = "plan_created"
	EventSubtaskDone = "subtask_done"
)

// Agent exposes an Orchestrator as a rungpt.Agent.
type Agent struct {
	name         string
	orchestrator *Orchestrator
	hooks        *hooks.Registry

	mu      sync.Mutex
	outcome *Outcome
	trace   *rungpt.AgentTrace
}

// NewAgent wraps o.
func NewAgent(o *Orchestrator) *Agent {
	return &Agent{name: "plan_execute", orchestrator: o}
}

// WithName sets the agent name.
func (a *Agent) WithName(name string) *Agent {
	a.name = name
	return a
}

// WithHooks attaches a hook registry for run events. Task events are
// configured on the Orchestrator.
func (a *Agent) WithHooks(r *hooks.Registry) *Agent {
	a.hooks = r
	return a
}

// Name implements rungpt.Agent.
func (a *Agent) Name() string {
	return a.name
}

// Outcome returns the most recent outcome, or nil.
func (a *Agent) Outcome() *Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outcome
}

// Trace implements rungpt.Traced.
func (a *Agent) Trace() *rungpt.AgentTrace {
	a.mu.Lock()
	trace := a.trace
	a.mu.Unlock()
	return trace.Snapshot()
}

// Run orchestrates task and records the goal and answer on thread.
func (a *Agent) Run(ctx context.Context, task string, thread *rungpt.Thread) (answer string, err error) {
	if thread == nil {
		thread = rungpt.NewThread()
	}

	trace := rungpt.NewAgentTrace(a.name, task)
	a.mu.Lock()
	a.trace = trace
	a.outcome = nil
	a.mu.Unlock()

	start := time.Now()
	tasks := 0
	trace.Add(rungpt.EventPreRun, map[string]any{"task": task, "thread": thread.ID()})
	a.hooks.FireBeforeRun(ctx, rungpt.BeforeRunEvent{Agent: a.name, Task: task})
	defer func() {
		trace.Add(rungpt.EventPostRun, map[string]any{"result": rungpt.Preview(answer, 200)})
		trace.Finish(err)
		a.hooks.FireAfterRun(ctx, rungpt.AfterRunEvent{
			Agent:    a.name,
			Task:     task,
			Result:   answer,
			Steps:    tasks,
			Duration: time.Since(start),
			Error:    err,
		})
	}()

	thread.AddUser(task)

	outcome, err := a.orchestrator.Run(ctx, task)
	if err != nil {
		return "", err
	}

	snapshot := outcome.Graph.Tasks()
	tasks = len(snapshot)
	trace.Add(EventPlanCreated, map[string]any{"task_count": tasks})
	for _, t := range snapshot {
		trace.Add(EventSubtaskDone, map[string]any{
			"task_id": t.ID,
			"status":  string(t.Status),
			"result":  rungpt.Preview(t.Result, 200),
		})
	}

	a.mu.Lock()
	a.outcome = outcome
	a.mu.Unlock()

	thread.AddAssistant(outcome.Answer)
	return outcome.Answer, nil
}

var (
	_ rungpt.Agent  = (*Agent)(nil)
	_ rungpt.Traced = (*Agent)(nil)
)
