package rungpt

import (
	"context"
	"strings"
)

// ErrorPrefix marks a tool result that reports a failure.
const ErrorPrefix = "Error:"

// Executor is the tool-calling capability used by the reasoning loop.
//
// Failures never cross this boundary as Go errors: an implementation reports
// them as text starting with [ErrorPrefix] so that they can be fed back to the
// model as an observation.
type Executor interface {
	Call(ctx context.Context, name string, params map[string]any) string
}

// Describer is implemented by executors that can describe their tools for a prompt.
type Describer interface {
	Describe() string
}

// ExecutorFunc adapts an ordinary function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string, params map[string]any) string

// Call calls f.
func (f ExecutorFunc) Call(ctx context.Context, name string, params map[string]any) string {
	return f(ctx, name, params)
}

// IsErrorResult reports whether a tool result signals failure.
// Both the plain "Error:" prefix and the "Validation Error:" form used by the
// toolbox count.
func IsErrorResult(result string) bool {
	trimmed := strings.TrimSpace(result)
	return strings.HasPrefix(trimmed, ErrorPrefix) ||
		strings.HasPrefix(trimmed, "Validation "+ErrorPrefix)
}
