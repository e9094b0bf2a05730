// Package agentcall runs the model and tool calls made by the agents, firing
// hooks and recording trace events around each one.
package agentcall

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/hooks"
)

// Caller is a value copied out of an agent's configuration. A nil Hooks
// registry fires nothing.
type Caller struct {
	Model     rungpt.Model
	Executor  rungpt.Executor
	Hooks     *hooks.Registry
	Streaming bool
	OnChunk   func(string)
}

// Generate sends messages to the model. fields are added to both trace events,
// e.g. the step number. The error is returned unwrapped.
func (c Caller) Generate(
	ctx context.Context,
	trace *rungpt.AgentTrace,
	messages []rungpt.Message,
	fields map[string]any,
) (string, error) {
	modelName := rungpt.ModelName(c.Model)
	trace.Add(rungpt.EventModelCall, with(fields, map[string]any{"messages": len(messages)}))
	c.Hooks.FireBeforeModelCall(ctx, rungpt.BeforeModelCallEvent{Model: modelName, Messages: messages})

	start := time.Now()
	response, err := c.generate(ctx, messages)
	duration := time.Since(start)

	c.Hooks.FireAfterModelCall(ctx, rungpt.AfterModelCallEvent{
		Model:    modelName,
		Messages: messages,
		Response: response,
		Duration: duration,
		Error:    err,
	})
	if err != nil {
		return "", err
	}

	trace.Add(rungpt.EventModelResponse, with(fields, map[string]any{
		"preview":     rungpt.Preview(response, 200),
		"duration_ms": duration.Milliseconds(),
	}))
	return response, nil
}

func (c Caller) generate(ctx context.Context, messages []rungpt.Message) (string, error) {
	if c.Streaming {
		if sm, ok := c.Model.(rungpt.StreamingModel); ok {
			stream, err := sm.Stream(ctx, messages)
			if err != nil {
				return "", err
			}
			return rungpt.Collect(ctx, stream, c.OnChunk)
		}
	}
	return c.Model.Run(ctx, messages)
}

// CallTool runs action through the executor and returns the observation.
// Before-tool hooks may rewrite the tool name and parameters. Without an
// executor every tool is reported as not found.
func (c Caller) CallTool(ctx context.Context, trace *rungpt.AgentTrace, action *rungpt.Action) string {
	event := &rungpt.BeforeToolCallEvent{Tool: action.Name, Params: action.Params}
	c.Hooks.FireBeforeToolCall(ctx, event)

	start := time.Now()
	var result string
	if c.Executor == nil {
		result = fmt.Sprintf("%s Tool '%s' not found", rungpt.ErrorPrefix, event.Tool)
	} else {
		result = c.Executor.Call(ctx, event.Tool, event.Params)
	}
	isError := rungpt.IsErrorResult(result)

	trace.Add(rungpt.EventToolCall, map[string]any{
		"tool":     event.Tool,
		"params":   event.Params,
		"result":   rungpt.Preview(result, 200),
		"is_error": isError,
	})
	c.Hooks.FireAfterToolCall(ctx, rungpt.AfterToolCallEvent{
		Tool:     event.Tool,
		Params:   event.Params,
		Result:   result,
		IsError:  isError,
		Duration: time.Since(start),
	})
	return result
}

func with(fields, extra map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+len(extra))
	maps.Copy(out, fields)
	maps.Copy(out, extra)
	return out
}
