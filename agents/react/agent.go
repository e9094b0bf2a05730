package react

import (
	"context"
	"fmt"
	"sync"
	"text/template"
	"time"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/agents/internal/agentcall"
	"github.com/rickchristie/rungpt/hooks"
	"github.com/rickchristie/rungpt/parser"
)

// DefaultMaxSteps is the step limit used when none is configured.
const DefaultMaxSteps = 10

// Step records one iteration of the loop.
type Step struct {
	Num         int            `json:"num" yaml:"num"`
	Thought     string         `json:"thought,omitempty" yaml:"thought,omitempty"`
	Action      *rungpt.Action `json:"action,omitempty" yaml:"action,omitempty"`
	Observation string         `json:"observation,omitempty" yaml:"observation,omitempty"`
	RawResponse string         `json:"raw_response" yaml:"raw_response"`
	IsFinal     bool           `json:"is_final" yaml:"is_final"`
	FinalAnswer string         `json:"final_answer,omitempty" yaml:"final_answer,omitempty"`
}

// ----------------------------------------------------------------------------
// Agent - ReAct reasoning loop
// ----------------------------------------------------------------------------

// Agent implements the ReAct (Reasoning and Acting) loop.
// Flow: Think -> Act -> Observe -> Repeat until a final answer or the step limit.
//
// The prompt sent on every call is the system prompt followed by the whole
// thread. The loop appends to the thread as it goes:
//   - the task as a user turn
//   - each model reply as an assistant turn
//   - "Observation: <result>" as a user turn after each tool call
//   - [CorrectivePrompt] after a reply with no action and no final answer
//   - [ForceFinishPrompt] once the step limit is spent
//
// An Agent runs one task at a time. Use separate instances for concurrent runs.
type Agent struct {
	name           string
	model          rungpt.Model
	executor       rungpt.Executor
	parser         *parser.Parser
	hooks          *hooks.Registry
	systemPrompt   string
	systemTemplate *template.Template
	maxSteps       int
	useStreaming   bool
	onChunk        func(string)

	mu    sync.Mutex
	steps []Step
	trace *rungpt.AgentTrace
}

// NewAgent creates a new Agent with the given model and tools.
// Defaults:
//   - Name: "react"
//   - Parser: parser.Default()
//   - MaxSteps: DefaultMaxSteps
//   - SystemTemplate: DefaultSystemTemplate
//
// executor may be nil for an agent without tools; every tool call then
// observes a not-found error.
func NewAgent(model rungpt.Model, executor rungpt.Executor) *Agent {
	return &Agent{
		name:           "react",
		model:          model,
		executor:       executor,
		parser:         parser.Default(),
		systemTemplate: DefaultSystemTemplate,
		maxSteps:       DefaultMaxSteps,
	}
}

// WithName sets the agent name used in prompts, traces and events.
func (a *Agent) WithName(name string) *Agent {
	a.name = name
	return a
}

// WithSystemPrompt sets additional instructions for the system prompt.
// They are added to the default ReAct instructions, not a replacement.
func (a *Agent) WithSystemPrompt(prompt string) *Agent {
	a.systemPrompt = prompt
	return a
}

// WithSystemTemplate replaces the system prompt template.
func (a *Agent) WithSystemTemplate(tmpl *template.Template) *Agent {
	a.systemTemplate = tmpl
	return a
}

// WithMaxSteps sets the number of reasoning iterations before the forced
// final call. Values below 1 are ignored.
func (a *Agent) WithMaxSteps(n int) *Agent {
	if n >= 1 {
		a.maxSteps = n
	}
	return a
}

// WithParser replaces the action parser.
func (a *Agent) WithParser(p *parser.Parser) *Agent {
	a.parser = p
	return a
}

// WithHooks attaches a hook registry.
func (a *Agent) WithHooks(r *hooks.Registry) *Agent {
	a.hooks = r
	return a
}

// WithStreaming makes the agent consume replies through rungpt.StreamingModel
// when the model supports it. The reply is drained fully before parsing.
func (a *Agent) WithStreaming(enabled bool) *Agent {
	a.useStreaming = enabled
	return a
}

// WithOnChunk sets a callback receiving streamed fragments. It implies streaming.
func (a *Agent) WithOnChunk(fn func(chunk string)) *Agent {
	a.onChunk = fn
	a.useStreaming = fn != nil || a.useStreaming
	return a
}

// Name returns the agent name.
func (a *Agent) Name() string {
	return a.name
}

// MaxSteps returns the configured step limit.
func (a *Agent) MaxSteps() int {
	return a.maxSteps
}

// Steps returns a copy of the steps recorded by the most recent Run.
func (a *Agent) Steps() []Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Step(nil), a.steps...)
}

// Trace returns a snapshot of the most recent run's trace, or nil before the first run.
func (a *Agent) Trace() *rungpt.AgentTrace {
	a.mu.Lock()
	trace := a.trace
	a.mu.Unlock()
	if trace == nil {
		return nil
	}
	return trace.Snapshot()
}

// SystemPrompt renders the system prompt for the current configuration.
func (a *Agent) SystemPrompt() (string, error) {
	data := SystemPromptData{
		Name:         a.name,
		Instructions: a.systemPrompt,
	}
	if d, ok := a.executor.(rungpt.Describer); ok {
		data.Tools = d.Describe()
	}
	prompt, err := ExecuteTemplate(a.systemTemplate, data)
	if err != nil {
		return "", fmt.Errorf("react: render system prompt: %w", err)
	}
	return prompt, nil
}

// Run solves task and returns the final answer.
//
// A nil thread is replaced by a fresh one. The only errors are model errors
// (wrapped), context cancellation and template failures; running out of steps
// returns the last reply as a degraded answer.
func (a *Agent) Run(ctx context.Context, task string, thread *rungpt.Thread) (answer string, err error) {
	if thread == nil {
		thread = rungpt.NewThread()
	}

	trace := rungpt.NewAgentTrace(a.name, task)
	a.mu.Lock()
	a.steps = nil
	a.trace = trace
	a.mu.Unlock()

	start := time.Now()
	var degraded bool

	trace.Add(rungpt.EventPreRun, map[string]any{"task": task, "thread": thread.ID()})
	a.hooks.FireBeforeRun(ctx, rungpt.BeforeRunEvent{Agent: a.name, Task: task})
	defer func() {
		trace.Add(rungpt.EventPostRun, map[string]any{
			"result":   rungpt.Preview(answer, 200),
			"degraded": degraded,
		})
		trace.Finish(err)
		a.hooks.FireAfterRun(ctx, rungpt.AfterRunEvent{
			Agent:    a.name,
			Task:     task,
			Result:   answer,
			Steps:    len(a.Steps()),
			Degraded: degraded,
			Duration: time.Since(start),
			Error:    err,
		})
	}()

	system, err := a.SystemPrompt()
	if err != nil {
		return "", err
	}

	thread.AddUser(task)

	for num := 1; num <= a.maxSteps; num++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		response, err := a.callModel(ctx, trace, system, thread, num)
		if err != nil {
			return "", err
		}

		step := Step{Num: num, RawResponse: response}
		step.Thought, _ = parser.ExtractThought(response)
		action, found := a.parser.Parse(response)

		switch {
		case found && action.IsFinish():
			step.Action = action
			step.IsFinal = true
			step.FinalAnswer = action.Answer()
			a.record(step)
			thread.AddAssistant(response)
			return step.FinalAnswer, nil

		case found:
			step.Action = action
			step.Observation = a.caller().CallTool(ctx, trace, action)
			a.record(step)
			thread.AddAssistant(response)
			thread.AddUser("Observation: " + step.Observation)

		case parser.HasFinish(response):
			step.IsFinal = true
			step.FinalAnswer = parser.ExtractFinalAnswer(response)
			a.record(step)
			thread.AddAssistant(response)
			return step.FinalAnswer, nil

		default:
			trace.Add(rungpt.EventParseFailure, map[string]any{
				"step":     num,
				"response": rungpt.Preview(response, 200),
			})
			a.hooks.FireParseFailure(ctx, rungpt.ParseFailureEvent{
				Agent:    a.name,
				Step:     num,
				Response: response,
			})
			a.record(step)
			thread.AddAssistant(response)
			thread.AddUser(CorrectivePrompt)
		}
	}

	return a.forceFinish(ctx, trace, system, thread, &degraded)
}

// forceFinish makes the single extra call allowed after the step limit. A tool
// action in the reply is recorded but never executed.
func (a *Agent) forceFinish(
	ctx context.Context,
	trace *rungpt.AgentTrace,
	system string,
	thread *rungpt.Thread,
	degraded *bool,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	num := a.maxSteps + 1
	trace.Add(rungpt.EventForceFinish, map[string]any{"max_steps": a.maxSteps})
	thread.AddUser(ForceFinishPrompt)

	response, err := a.callModel(ctx, trace, system, thread, num)
	if err != nil {
		return "", err
	}
	thread.AddAssistant(response)

	step := Step{Num: num, RawResponse: response, IsFinal: true}
	step.Thought, _ = parser.ExtractThought(response)
	action, found := a.parser.Parse(response)
	if found {
		step.Action = action
	}

	switch {
	case found && action.IsFinish():
		step.FinalAnswer = action.Answer()
	case parser.HasFinish(response):
		step.FinalAnswer = parser.ExtractFinalAnswer(response)
	default:
		*degraded = true
		step.FinalAnswer = response
	}
	a.record(step)
	return step.FinalAnswer, nil
}

func (a *Agent) callModel(
	ctx context.Context,
	trace *rungpt.AgentTrace,
	system string,
	thread *rungpt.Thread,
	num int,
) (string, error) {
	history := thread.Messages()
	messages := make([]rungpt.Message, 0, len(history)+1)
	messages = append(messages, rungpt.Message{Role: rungpt.RoleSystem, Content: system})
	messages = append(messages, history...)

	response, err := a.caller().Generate(ctx, trace, messages, map[string]any{"step": num})
	if err != nil {
		return "", fmt.Errorf("react: model call at step %d: %w", num, err)
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

func (a *Agent) record(step Step) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.steps = append(a.steps, step)
}

// Compile-time checks.
var (
	_ rungpt.Agent  = (*Agent)(nil)
	_ rungpt.Traced = (*Agent)(nil)
)
