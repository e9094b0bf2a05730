// Package planexec decomposes a goal into a task graph, executes the graph and
// summarizes the results.
//
// The three phases each call one capability:
//
//	planner    -> PlanPrompt(goal)        -> ParsePlan -> *taskgraph.Graph
//	executor   -> ExecutePrompt(task)     -> task result, per ready task
//	summarizer -> SummaryPrompt(graph)    -> final answer
//
// Any [rungpt.Agent] or [rungpt.Model] can serve as a capability through
// [AgentCapability] and [ModelCapability].
package planexec

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/hooks"
	"github.com/rickchristie/rungpt/taskgraph"
)

// ErrEmptyGoal is returned when the goal is blank.
var ErrEmptyGoal = errors.New("planexec: goal is empty")

// Outcome is the result of one orchestration.
type Outcome struct {
	// PlanResponse is the raw planner reply.
	PlanResponse string

	// Graph is the executed plan, with final statuses and results.
	Graph *taskgraph.Graph

	// Results maps task id to result text.
	Results map[string]string

	// Answer is the summarizer's reply.
	Answer string

	Report taskgraph.Report
}

// Orchestrator runs the plan, execute and summarize phases.
type Orchestrator struct {
	planner       Planner
	executor      Executor
	summarizer    Summarizer
	dispatcher    taskgraph.Dispatcher
	hooks         *hooks.Registry
	maxIterations int
}

// New creates an Orchestrator. Ready tasks run one at a time unless
// WithDispatcher says otherwise.
func New(planner Planner, executor Executor, summarizer Summarizer) *Orchestrator {
	return &Orchestrator{
		planner:    planner,
		executor:   executor,
		summarizer: summarizer,
		dispatcher: taskgraph.Sequential{},
	}
}

// NewFromAgent uses agent for all three phases.
func NewFromAgent(agent rungpt.Agent) *Orchestrator {
	c := AgentCapability{Agent: agent}
	return New(c, c, c)
}

// NewFromModel uses model for all three phases.
func NewFromModel(model rungpt.Model) *Orchestrator {
	c := ModelCapability{Model: model}
	return New(c, c, c)
}

// WithDispatcher sets how each ready batch is executed.
func (o *Orchestrator) WithDispatcher(d taskgraph.Dispatcher) *Orchestrator {
	o.dispatcher = d
	return o
}

// WithConcurrency runs up to n ready tasks at once. n <= 1 means sequential.
func (o *Orchestrator) WithConcurrency(n int) *Orchestrator {
	if n <= 1 {
		o.dispatcher = taskgraph.Sequential{}
	} else {
		o.dispatcher = taskgraph.Concurrent{Limit: n}
	}
	return o
}

// WithHooks attaches a hook registry that receives task events.
func (o *Orchestrator) WithHooks(r *hooks.Registry) *Orchestrator {
	o.hooks = r
	return o
}

// WithMaxIterations overrides the graph's iteration bound.
func (o *Orchestrator) WithMaxIterations(n int) *Orchestrator {
	o.maxIterations = n
	return o
}

// Run orchestrates goal. Capability errors from the planner and summarizer are
// returned; executor errors only fail the task concerned. A graph that cannot
// finish is still summarized.
func (o *Orchestrator) Run(ctx context.Context, goal string) (*Outcome, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, ErrEmptyGoal
	}

	response, err := o.planner.Plan(ctx, PlanPrompt(goal))
	if err != nil {
		return nil, fmt.Errorf("planexec: plan: %w", err)
	}

	graph := ParsePlan(goal, response).
		WithHooks(o.hooks).
		WithMaxIterations(o.maxIterations)

	report := graph.Run(ctx, o.dispatcher, func(ctx context.Context, task *taskgraph.Task) (string, error) {
		return o.executor.Execute(ctx, ExecutePrompt(graph, task))
	})
	if report.Err != nil {
		return nil, fmt.Errorf("planexec: execute: %w", report.Err)
	}

	answer, err := o.summarizer.Summarize(ctx, SummaryPrompt(graph))
	if err != nil {
		return nil, fmt.Errorf("planexec: summarize: %w", err)
	}

	return &Outcome{
		PlanResponse: response,
		Graph:        graph,
		Results:      graph.Results(),
		Answer:       answer,
		Report:       report,
	}, nil
}
