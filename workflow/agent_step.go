package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/planexec"
)

// AgentStep runs an agent on text taken from the context and stores the
// answer back under an output key.
type AgentStep struct {
	name      string
	agent     rungpt.Agent
	inputKey  string
	outputKey string
	template  string
}

// NewAgentStep wraps agent. By default it reads "task" and writes "result".
// An empty name falls back to the agent's name.
func NewAgentStep(name string, agent rungpt.Agent) *AgentStep {
	if name == "" {
		name = agent.Name()
	}
	return &AgentStep{
		name:      name,
		agent:     agent,
		inputKey:  KeyTask,
		outputKey: KeyResult,
	}
}

// WithInputKey sets the key the task text is read from.
func (s *AgentStep) WithInputKey(key string) *AgentStep {
	s.inputKey = key
	return s
}

// WithOutputKey sets the key the answer is written to.
func (s *AgentStep) WithOutputKey(key string) *AgentStep {
	s.outputKey = key
	return s
}

// WithTemplate builds the task text from a template instead of the input key.
// Placeholders are written {key}; "{{" and "}}" produce literal braces.
func (s *AgentStep) WithTemplate(tmpl string) *AgentStep {
	s.template = tmpl
	return s
}

// Name implements Step.
func (s *AgentStep) Name() string { return s.name }

// Run implements Step. When the context holds a *rungpt.Thread under "thread"
// the agent continues that conversation, otherwise it starts a fresh one.
func (s *AgentStep) Run(ctx context.Context, wc *Context) (any, error) {
	task, err := s.taskText(wc)
	if err != nil {
		return nil, fmt.Errorf("agent step %q: %w", s.name, err)
	}

	thread := threadFrom(wc)
	answer, err := s.agent.Run(ctx, task, thread)
	if err != nil {
		return nil, fmt.Errorf("agent step %q: %w", s.name, err)
	}
	wc.Set(s.outputKey, answer)
	return answer, nil
}

func (s *AgentStep) taskText(wc *Context) (string, error) {
	if s.template != "" {
		return Render(s.template, wc)
	}
	text, ok := wc.GetString(s.inputKey)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingKey, s.inputKey)
	}
	return text, nil
}

func threadFrom(wc *Context) *rungpt.Thread {
	if t, ok := wc.Get(KeyThread); ok {
		if thread, ok := t.(*rungpt.Thread); ok && thread != nil {
			return thread
		}
	}
	return rungpt.NewThread()
}

// Render substitutes {key} placeholders with context values. "{{" and "}}"
// are literal braces. A placeholder naming an absent key is an error wrapping
// ErrMissingKey; an unclosed brace is copied as is.
func Render(tmpl string, wc *Context) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && strings.HasPrefix(tmpl[i:], "{{"):
			b.WriteByte('{')
			i++
		case c == '}' && strings.HasPrefix(tmpl[i:], "}}"):
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				return b.String(), nil
			}
			key := tmpl[i+1 : i+1+end]
			v, ok := wc.GetString(key)
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
			}
			b.WriteString(v)
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// -----------------------------------------------------------------------------
// PlanExecuteStep
// -----------------------------------------------------------------------------

// PlanExecuteStep runs a plan-and-execute orchestrator on the "task" key. It
// writes the task snapshots to "plan", the per-task results to
// "task_results" and the final answer to "result".
type PlanExecuteStep struct {
	name         string
	orchestrator *planexec.Orchestrator
}

// NewPlanExecute wraps o. An empty name becomes "plan_execute".
func NewPlanExecute(name string, o *planexec.Orchestrator) *PlanExecuteStep {
	if name == "" {
		name = "plan_execute"
	}
	return &PlanExecuteStep{name: name, orchestrator: o}
}

// Name implements Step.
func (s *PlanExecuteStep) Name() string { return s.name }

// Run implements Step.
func (s *PlanExecuteStep) Run(ctx context.Context, wc *Context) (any, error) {
	goal, ok := wc.GetString(KeyTask)
	if !ok || strings.TrimSpace(goal) == "" {
		return nil, fmt.Errorf("plan execute %q: %w: %q", s.name, ErrMissingKey, KeyTask)
	}

	outcome, err := s.orchestrator.Run(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("plan execute %q: %w", s.name, err)
	}

	wc.Set(KeyPlan, outcome.Graph.Tasks())
	wc.Set(KeyTaskResults, outcome.Results)
	wc.Set(KeyResult, outcome.Answer)
	return outcome.Answer, nil
}
