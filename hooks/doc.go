// Package hooks dispatches lifecycle events to observers.
//
// Observers implement any of the hook interfaces declared in the rungpt
// package and only receive the events they implement:
//
// Agent runs:
//   - [rungpt.BeforeRunHook], [rungpt.AfterRunHook] - once per Agent.Run
//   - [rungpt.ParseFailureHook] - a reply had no usable action
//
// Model and tool calls:
//   - [rungpt.BeforeModelCallHook], [rungpt.AfterModelCallHook]
//   - [rungpt.BeforeToolCallHook] - may rewrite event.Params
//   - [rungpt.AfterToolCallHook]
//
// Task graphs and workflows:
//   - [rungpt.TaskStartHook], [rungpt.TaskDoneHook] - one pair per task
//   - [rungpt.StepStartHook], [rungpt.StepDoneHook] - one pair per workflow step
//
// # Creating a Hook
//
//	type ToolTimer struct{ logger *slog.Logger }
//
//	func (h *ToolTimer) OnAfterToolCall(ctx context.Context, e rungpt.AfterToolCallEvent) {
//	    h.logger.Info("tool", "name", e.Tool, "duration", e.Duration)
//	}
//
//	// Compile-time check
//	var _ rungpt.AfterToolCallHook = (*ToolTimer)(nil)
//
// # Sharing a Registry
//
// One registry can serve every component of a run:
//
//	registry := hooks.NewRegistry().Register(&ToolTimer{logger: slog.Default()})
//
//	agent := react.NewAgent(model, box).WithHooks(registry)
//	orchestrator := planexec.NewFromAgent(agent).WithHooks(registry)
//	ctx = workflow.WithHooks(ctx, registry)
//
// The loggers and metrics packages provide hooks implementing every
// interface.
package hooks
