package rungpt

import (
	"context"
)

// Agent runs a task against a conversation thread and returns the final answer.
//
// Implementations append their turns to thread; a nil thread means "use a fresh one".
// Run returns an error only for unrecoverable faults such as a failing model
// transport or a cancelled context. Malformed model output is recovered
// internally and never surfaces as an error.
type Agent interface {
	Name() string
	Run(ctx context.Context, task string, thread *Thread) (string, error)
}

// Traced is implemented by agents that record an [AgentTrace] of their last run.
type Traced interface {
	Trace() *AgentTrace
}
