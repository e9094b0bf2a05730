package rungpt

import (
	"context"
)

// -----------------------------------------------------------------------------
// Hook Interfaces
// -----------------------------------------------------------------------------
//
// Hooks observe agents, task graphs and workflows. To use hooks:
//
//  1. Implement the desired hook interface(s)
//  2. Register with hooks.Registry
//  3. Pass the registry to the component (react.Agent.WithHooks,
//     planexec.Orchestrator.WithHooks, workflow.WithHooks)
//
// Example:
//
//	type ToolLog struct{ logger *slog.Logger }
//
//	func (h *ToolLog) OnAfterToolCall(ctx context.Context, e rungpt.AfterToolCallEvent) {
//	    h.logger.Info("tool", "name", e.Tool, "error", e.IsError)
//	}
//
//	registry := hooks.NewRegistry().Register(&ToolLog{logger: slog.Default()})
//	agent := react.NewAgent(model, box).WithHooks(registry)
//
// Hooks are called in registration order and must not block for long: they run
// inline on the calling goroutine. Hooks attached to Parallel steps or the
// concurrent task dispatcher may be called from several goroutines at once.
// -----------------------------------------------------------------------------

// BeforeRunHook is notified when an agent starts a task.
type BeforeRunHook interface {
	OnBeforeRun(ctx context.Context, event BeforeRunEvent)
}

// AfterRunHook is notified when an agent returns. Always paired with BeforeRunHook.
type AfterRunHook interface {
	OnAfterRun(ctx context.Context, event AfterRunEvent)
}

// ParseFailureHook is notified when the reasoning loop issues a corrective message.
type ParseFailureHook interface {
	OnParseFailure(ctx context.Context, event ParseFailureEvent)
}

// BeforeModelCallHook is notified before each model call.
type BeforeModelCallHook interface {
	OnBeforeModelCall(ctx context.Context, event BeforeModelCallEvent)
}

// AfterModelCallHook is notified after each model call.
type AfterModelCallHook interface {
	OnAfterModelCall(ctx context.Context, event AfterModelCallEvent)
}

// BeforeToolCallHook is notified before each tool call.
// The hook can modify event.Params to change the input.
type BeforeToolCallHook interface {
	OnBeforeToolCall(ctx context.Context, event *BeforeToolCallEvent)
}

// AfterToolCallHook is notified after each tool call.
type AfterToolCallHook interface {
	OnAfterToolCall(ctx context.Context, event AfterToolCallEvent)
}

// TaskStartHook is notified when a task graph dispatches a task.
type TaskStartHook interface {
	OnTaskStart(ctx context.Context, event TaskStartEvent)
}

// TaskDoneHook is notified when a task completes or fails.
type TaskDoneHook interface {
	OnTaskDone(ctx context.Context, event TaskDoneEvent)
}

// StepStartHook is notified before a workflow step runs.
type StepStartHook interface {
	OnStepStart(ctx context.Context, event StepStartEvent)
}

// StepDoneHook is notified after a workflow step returns.
type StepDoneHook interface {
	OnStepDone(ctx context.Context, event StepDoneEvent)
}
