package planexec

import (
	"context"

	"github.com/rickchristie/rungpt"
)

// Planner turns a planning prompt into a plan text.
type Planner interface {
	Plan(ctx context.Context, prompt string) (string, error)
}

// Executor carries out one subtask prompt and returns its raw output.
type Executor interface {
	Execute(ctx context.Context, prompt string) (string, error)
}

// Summarizer turns the closing prompt into the final answer.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// AgentCapability adapts a rungpt.Agent to all three capabilities. Each call
// runs the agent on a fresh thread.
type AgentCapability struct {
	Agent rungpt.Agent
}

func (c AgentCapability) run(ctx context.Context, prompt string) (string, error) {
	return c.Agent.Run(ctx, prompt, rungpt.NewThread())
}

// Plan implements Planner.
func (c AgentCapability) Plan(ctx context.Context, prompt string) (string, error) {
	return c.run(ctx, prompt)
}

// Execute implements Executor.
func (c AgentCapability) Execute(ctx context.Context, prompt string) (string, error) {
	return c.run(ctx, prompt)
}

// Summarize implements Summarizer.
func (c AgentCapability) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.run(ctx, prompt)
}

// ModelCapability adapts a bare rungpt.Model to all three capabilities. The
// prompt is sent as a single user turn, after System when it is set.
type ModelCapability struct {
	Model  rungpt.Model
	System string
}

func (c ModelCapability) run(ctx context.Context, prompt string) (string, error) {
	messages := make([]rungpt.Message, 0, 2)
	if c.System != "" {
		messages = append(messages, rungpt.Message{Role: rungpt.RoleSystem, Content: c.System})
	}
	messages = append(messages, rungpt.Message{Role: rungpt.RoleUser, Content: prompt})
	return c.Model.Run(ctx, messages)
}

// Plan implements Planner.
func (c ModelCapability) Plan(ctx context.Context, prompt string) (string, error) {
	return c.run(ctx, prompt)
}

// Execute implements Executor.
func (c ModelCapability) Execute(ctx context.Context, prompt string) (string, error) {
	return c.run(ctx, prompt)
}

// Summarize implements Summarizer.
func (c ModelCapability) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.run(ctx, prompt)
}

var (
	_ Planner    = AgentCapability{}
	_ Executor   = AgentCapability{}
	_ Summarizer = AgentCapability{}
	_ Planner    = ModelCapability{}
	_ Executor   = ModelCapability{}
	_ Summarizer = ModelCapability{}
)
