package hooks

import (
	"context"

	"github.com/rickchristie/rungpt"
)

// Registry manages a collection of hooks and dispatches events to them.
//
// # Overview
//
// Hooks can implement any combination of the hook interfaces declared in the
// rungpt package; they only receive events for the interfaces they implement.
//
//	registry := hooks.NewRegistry().
//	    Register(loggers.NewSlogHook(slog.Default())).
//	    Register(metrics.New(prometheus.DefaultRegisterer))
//
//	agent := react.NewAgent(model, box).WithHooks(registry)
//
// # Nil Registry
//
// All Fire methods are safe to call on a nil *Registry, so components can hold
// an optional registry without guarding every call site.
//
// # Thread Safety
//
// Registry is NOT safe for concurrent registration. Register all hooks before
// starting execution. Firing is read-only and may happen from several goroutines.
type Registry struct {
	hooks []any
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make([]any, 0),
	}
}

// Register adds a hook to the registry. Hooks are called in registration order.
func (r *Registry) Register(hook any) *Registry {
	r.hooks = append(r.hooks, hook)
	return r
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.hooks)
}

// Clear removes all registered hooks.
func (r *Registry) Clear() {
	r.hooks = make([]any, 0)
}

func (r *Registry) each(fn func(h any)) {
	if r == nil {
		return
	}
	for _, h := range r.hooks {
		fn(h)
	}
}

// -----------------------------------------------------------------------------
// Agent Run
// -----------------------------------------------------------------------------

// FireBeforeRun dispatches a BeforeRunEvent.
func (r *Registry) FireBeforeRun(ctx context.Context, event rungpt.BeforeRunEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.BeforeRunHook); ok {
			hook.OnBeforeRun(ctx, event)
		}
	})
}

// FireAfterRun dispatches an AfterRunEvent.
func (r *Registry) FireAfterRun(ctx context.Context, event rungpt.AfterRunEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.AfterRunHook); ok {
			hook.OnAfterRun(ctx, event)
		}
	})
}

// FireParseFailure dispatches a ParseFailureEvent.
func (r *Registry) FireParseFailure(ctx context.Context, event rungpt.ParseFailureEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.ParseFailureHook); ok {
			hook.OnParseFailure(ctx, event)
		}
	})
}

// -----------------------------------------------------------------------------
// Model and Tool Calls
// -----------------------------------------------------------------------------

// FireBeforeModelCall dispatches a BeforeModelCallEvent.
func (r *Registry) FireBeforeModelCall(ctx context.Context, event rungpt.BeforeModelCallEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.BeforeModelCallHook); ok {
			hook.OnBeforeModelCall(ctx, event)
		}
	})
}

// FireAfterModelCall dispatches an AfterModelCallEvent.
func (r *Registry) FireAfterModelCall(ctx context.Context, event rungpt.AfterModelCallEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.AfterModelCallHook); ok {
			hook.OnAfterModelCall(ctx, event)
		}
	})
}

// FireBeforeToolCall dispatches a BeforeToolCallEvent.
// Hooks can modify event.Params to change the tool input.
func (r *Registry) FireBeforeToolCall(ctx context.Context, event *rungpt.BeforeToolCallEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.BeforeToolCallHook); ok {
			hook.OnBeforeToolCall(ctx, event)
		}
	})
}

// FireAfterToolCall dispatches an AfterToolCallEvent.
func (r *Registry) FireAfterToolCall(ctx context.Context, event rungpt.AfterToolCallEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.AfterToolCallHook); ok {
			hook.OnAfterToolCall(ctx, event)
		}
	})
}

// -----------------------------------------------------------------------------
// Tasks and Workflow Steps
// -----------------------------------------------------------------------------

// FireTaskStart dispatches a TaskStartEvent.
func (r *Registry) FireTaskStart(ctx context.Context, event rungpt.TaskStartEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.TaskStartHook); ok {
			hook.OnTaskStart(ctx, event)
		}
	})
}

// FireTaskDone dispatches a TaskDoneEvent.
func (r *Registry) FireTaskDone(ctx context.Context, event rungpt.TaskDoneEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.TaskDoneHook); ok {
			hook.OnTaskDone(ctx, event)
		}
	})
}

// FireStepStart dispatches a StepStartEvent.
func (r *Registry) FireStepStart(ctx context.Context, event rungpt.StepStartEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.StepStartHook); ok {
			hook.OnStepStart(ctx, event)
		}
	})
}

// FireStepDone dispatches a StepDoneEvent.
func (r *Registry) FireStepDone(ctx context.Context, event rungpt.StepDoneEvent) {
	r.each(func(h any) {
		if hook, ok := h.(rungpt.StepDoneHook); ok {
			hook.OnStepDone(ctx, event)
		}
	})
}
