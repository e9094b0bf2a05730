// Package workflow composes agents and functions into pipelines, routers and
// parallel fan-outs.
//
// Every building block is a [Step]. Steps share one [Context] per invocation:
//
//	research := workflow.NewAgentStep("research", researcher).WithOutputKey("notes")
//	write := workflow.NewAgentStep("write", writer).WithTemplate("Write a post from these notes: {notes}")
//
//	wc := workflow.NewContext(map[string]any{"task": "Go generics"})
//	result, err := workflow.Execute(ctx, workflow.NewPipeline("blog", research, write), wc)
//
// Hooks attached with [WithHooks] receive a start and a done event for every
// step run through [Execute], which all composite steps use for their children.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/hooks"
)

// ErrMissingKey is returned when a step needs a context key that is absent.
var ErrMissingKey = errors.New("workflow: missing context key")

// Step is the unit of composition.
type Step interface {
	Name() string
	Run(ctx context.Context, wc *Context) (any, error)
}

type hooksKey struct{}

// WithHooks returns a context whose workflow steps report to r.
func WithHooks(ctx context.Context, r *hooks.Registry) context.Context {
	return context.WithValue(ctx, hooksKey{}, r)
}

func hooksFrom(ctx context.Context) *hooks.Registry {
	r, _ := ctx.Value(hooksKey{}).(*hooks.Registry)
	return r
}

// Execute runs step against wc and fires step events. A nil wc is replaced by
// an empty context.
func Execute(ctx context.Context, step Step, wc *Context) (any, error) {
	if wc == nil {
		wc = NewContext(nil)
	}
	r := hooksFrom(ctx)
	kind := Kind(step)

	r.FireStepStart(ctx, rungpt.StepStartEvent{Step: step.Name(), Kind: kind})
	start := time.Now()
	result, err := step.Run(ctx, wc)
	r.FireStepDone(ctx, rungpt.StepDoneEvent{
		Step:     step.Name(),
		Kind:     kind,
		Duration: time.Since(start),
		Error:    err,
	})
	return result, err
}

// Kind names the step variant, for events and logs.
func Kind(step Step) string {
	switch step.(type) {
	case *Pipeline:
		return "pipeline"
	case *Router:
		return "router"
	case *Parallel:
		return "parallel"
	case *AgentStep:
		return "agent"
	case *FunctionStep:
		return "function"
	case *PlanExecuteStep:
		return "plan_execute"
	default:
		return "step"
	}
}

// -----------------------------------------------------------------------------
// FunctionStep
// -----------------------------------------------------------------------------

// Func is the function wrapped by a FunctionStep.
type Func func(ctx context.Context, wc *Context) (any, error)

// FunctionStep wraps an ordinary function.
type FunctionStep struct {
	name string
	fn   Func
}

// NewFunctionStep wraps fn. An empty name becomes "function".
func NewFunctionStep(name string, fn Func) *FunctionStep {
	if name == "" {
		name = "function"
	}
	return &FunctionStep{name: name, fn: fn}
}

// Name implements Step.
func (s *FunctionStep) Name() string { return s.name }

// Run implements Step.
func (s *FunctionStep) Run(ctx context.Context, wc *Context) (any, error) {
	return s.fn(ctx, wc)
}
