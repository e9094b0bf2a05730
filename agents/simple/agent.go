// Package simple provides a single-shot agent: one model call, plus at most
// one tool call and a follow-up call when the reply asks for a tool.
package simple

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/agents/internal/agentcall"
	"github.com/rickchristie/rungpt/hooks"
	"github.com/rickchristie/rungpt/parser"
)

// FollowUpTemplate is the user turn sent after a tool call. It is formatted
// with the tool name and the tool result.
const FollowUpTemplate = "Tool %s returned: %s\n\nGive your final answer based on this result."

// Agent answers with the model's reply. When tools are configured and the
// reply contains an action, the tool is run once and the model is asked again.
type Agent struct {
	name         string
	model        rungpt.Model
	executor     rungpt.Executor
	parser       *parser.Parser
	hooks        *hooks.Registry
	systemPrompt string
	useStreaming bool
	onChunk      func(string)

	mu    sync.Mutex
	trace *rungpt.AgentTrace
}

// NewAgent creates an Agent. executor may be nil, which disables tool detection.
func NewAgent(model rungpt.Model, executor rungpt.Executor) *Agent {
	return &Agent{
		name:     "simple",
		model:    model,
		executor: executor,
		parser:   parser.Default(),
	}
}

// WithName sets the agent name.
func (a *Agent) WithName(name string) *Agent {
	a.name = name
	return a
}

// WithSystemPrompt sets the system prompt. Empty means no system turn.
func (a *Agent) WithSystemPrompt(prompt string) *Agent {
	a.systemPrompt = prompt
	return a
}

// WithParser replaces the parser used to detect tool calls.
func (a *Agent) WithParser(p *parser.Parser) *Agent {
	a.parser = p
	return a
}

// WithHooks attaches a hook registry.
func (a *Agent) WithHooks(r *hooks.Registry) *Agent {
	a.hooks = r
	return a
}

// WithStreaming enables consumption through rungpt.StreamingModel.
func (a *Agent) WithStreaming(enabled bool) *Agent {
	a.useStreaming = enabled
	return a
}

// WithOnChunk sets a callback for streamed fragments. It implies streaming.
func (a *Agent) WithOnChunk(fn func(chunk string)) *Agent {
	a.onChunk = fn
	a.useStreaming = fn != nil || a.useStreaming
	return a
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return a.name
}

// Trace returns a snapshot of the most recent run's trace.
func (a *Agent) Trace() *rungpt.AgentTrace {
	a.mu.Lock()
	trace := a.trace
	a.mu.Unlock()
	if trace == nil {
		return nil
	}
	return trace.Snapshot()
}

// Run answers task. A FINISH action in the reply is not a tool call; the
// reply text is returned as is.
func (a *Agent) Run(ctx context.Context, task string, thread *rungpt.Thread) (answer string, err error) {
	if thread == nil {
		thread = rungpt.NewThread()
	}

	trace := rungpt.NewAgentTrace(a.name, task)
	a.mu.Lock()
	a.trace = trace
	a.mu.Unlock()

	start := time.Now()
	calls := 0
	trace.Add(rungpt.EventPreRun, map[string]any{"task": task, "thread": thread.ID()})
	a.hooks.FireBeforeRun(ctx, rungpt.BeforeRunEvent{Agent: a.name, Task: task})
	defer func() {
		trace.Add(rungpt.EventPostRun, map[string]any{"result": rungpt.Preview(answer, 200)})
		trace.Finish(err)
		a.hooks.FireAfterRun(ctx, rungpt.AfterRunEvent{
			Agent:    a.name,
			Task:     task,
			Result:   answer,
			Steps:    calls,
			Duration: time.Since(start),
			Error:    err,
		})
	}()

	thread.AddUser(task)

	calls++
	response, err := a.callModel(ctx, trace, thread)
	if err != nil {
		return "", err
	}

	if a.executor == nil {
		thread.AddAssistant(response)
		return response, nil
	}

	action, found := a.parser.Parse(response)
	if !found || action.IsFinish() {
		thread.AddAssistant(response)
		return response, nil
	}

	result := a.caller().CallTool(ctx, trace, action)
	thread.AddAssistant(response)
	thread.AddUser(fmt.Sprintf(FollowUpTemplate, action.Name, result))

	calls++
	final, err := a.callModel(ctx, trace, thread)
	if err != nil {
		return "", err
	}
	thread.AddAssistant(final)
	return final, nil
}

func (a *Agent) callModel(ctx context.Context, trace *rungpt.AgentTrace, thread *rungpt.Thread) (string, error) {
	messages := thread.Messages()
	if a.systemPrompt != "" {
		messages = append([]rungpt.Message{{Role: rungpt.RoleSystem, Content: a.systemPrompt}}, messages...)
	}

	response, err := a.caller().Generate(ctx, trace, messages, nil)
	if err != nil {
		return "", fmt.Errorf("simple: model call: %w", err)
	}
	return response, nil
}

func (a *Agent) caller() agentcall.Caller {
	return agentcall.Caller{
		Model:     a.model,
		Executor:  a.executor,
		Hooks:     a.hooks,
		Streaming: a.useStreaming,
		OnChunk:   a.onChunk,
	}
}

var (
	_ rungpt.Agent  = (*Agent)(nil)
	_ rungpt.Traced = (*Agent)(nil)
)
