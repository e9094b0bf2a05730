package planexec

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/hooks"
	"github.com/rickchristie/rungpt/internal/tt"
	"github.com/rickchristie/rungpt/taskgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capability is a scripted Planner, Executor and Summarizer.
type capability struct {
	mu      sync.Mutex
	fn      func(prompt string) (string, error)
	prompts []string
}

func newCapability(fn func(prompt string) (string, error)) *capability {
	return &capability{fn: fn}
}

func (c *capability) call(prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	return c.fn(prompt)
}

func (c *capability) Plan(_ context.Context, p string) (string, error)      { return c.call(p) }
func (c *capability) Execute(_ context.Context, p string) (string, error)   { return c.call(p) }
func (c *capability) Summarize(_ context.Context, p string) (string, error) { return c.call(p) }

func (c *capability) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

const threeTaskPlan = "```json\n" +
	`{"tasks": [` +
	`{"id": "task_1", "description": "first", "dependencies": []},` +
	`{"id": "task_2", "description": "second", "dependencies": ["task_1"]},` +
	`{"id": "task_3", "description": "third", "dependencies": ["task_1", "task_2"]}]}` +
	"\n```"

func fixed(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

func resultOf(prompt string) (string, error) {
	line, _, _ := strings.Cut(prompt, "\n")
	return "result of " + strings.TrimPrefix(line, "Subtask: "), nil
}

func TestOrchestrator_Run(t *testing.T) {
	planner := newCapability(fixed(threeTaskPlan))
	executor := newCapability(resultOf)
	summarizer := newCapability(fixed("all done"))

	outcome, err := New(planner, executor, summarizer).Run(context.Background(), "do three things")

	require.NoError(t, err)
	assert.Equal(t, "all done", outcome.Answer)
	assert.Equal(t, threeTaskPlan, outcome.PlanResponse)
	assert.Equal(t, map[string]string{
		"task_1": "result of first",
		"task_2": "result of second",
		"task_3": "result of third",
	}, outcome.Results)
	assert.True(t, outcome.Report.Complete)
	assert.Equal(t, 3, outcome.Report.Iterations)

	require.Len(t, planner.Prompts(), 1)
	assert.Equal(t, PlanPrompt("do three things"), planner.Prompts()[0])

	prompts := executor.Prompts()
	require.Len(t, prompts, 3)
	tt.AssertTextEqual(t, "Subtask: first", prompts[0])
	tt.AssertTextEqual(t, "Subtask: second\n\nResults of prerequisite tasks:\n- [task_1]: result of first", prompts[1])
	tt.AssertTextEqual(t, "Subtask: third\n\nResults of prerequisite tasks:\n"+
		"- [task_1]: result of first\n- [task_2]: result of second", prompts[2])

	require.Len(t, summarizer.Prompts(), 1)
	assert.Contains(t, summarizer.Prompts()[0], "Completed 3/3 subtasks:")
	assert.Contains(t, summarizer.Prompts()[0], "Goal: do three things")
}

func TestOrchestrator_Errors(t *testing.T) {
	boom := errors.New("boom")

	type input struct {
		goal       string
		planner    func(string) (string, error)
		summarizer func(string) (string, error)
	}

	type expected struct {
		err          error
		message      string
		plannerCalls int
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "empty goal",
			input:    input{goal: "   ", planner: fixed(threeTaskPlan), summarizer: fixed("x")},
			expected: expected{err: ErrEmptyGoal, message: "goal is empty"},
		},
		{
			name: "planner failure",
			input: input{
				goal:       "g",
				planner:    func(string) (string, error) { return "", boom },
				summarizer: fixed("x"),
			},
			expected: expected{err: boom, message: "planexec: plan: boom", plannerCalls: 1},
		},
		{
			name: "summarizer failure",
			input: input{
				goal:       "g",
				planner:    fixed(threeTaskPlan),
				summarizer: func(string) (string, error) { return "", boom },
			},
			expected: expected{err: boom, message: "planexec: summarize: boom", plannerCalls: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			planner := newCapability(tc.input.planner)

			outcome, err := New(planner, newCapability(resultOf), newCapability(tc.input.summarizer)).
				Run(context.Background(), tc.input.goal)

			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, tc.expected.err)
			assert.Contains(t, err.Error(), tc.expected.message)
			assert.Len(t, planner.Prompts(), tc.expected.plannerCalls)
		})
	}
}

func TestOrchestrator_ExecutorFailureStillSummarizes(t *testing.T) {
	executor := newCapability(func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, "Subtask: second") {
			return "", errors.New("tool down")
		}
		return resultOf(prompt)
	})
	summarizer := newCapability(fixed("partial answer"))

	outcome, err := New(newCapability(fixed(threeTaskPlan)), executor, summarizer).
		Run(context.Background(), "g")

	require.NoError(t, err)
	assert.Equal(t, "partial answer", outcome.Answer)
	assert.False(t, outcome.Report.Complete)
	assert.Equal(t, []string{"task_3"}, outcome.Report.Stuck)
	assert.Equal(t, "execution failed: tool down", outcome.Results["task_2"])
	assert.Len(t, executor.Prompts(), 2)

	summary := summarizer.Prompts()[0]
	assert.Contains(t, summary, "Completed 1/3 subtasks:")
	assert.Contains(t, summary, "[task_2] second\n  Status: failed\n  Result: execution failed: tool down")
	assert.Contains(t, summary, "[task_3] third\n  Status: pending")
}

func TestOrchestrator_ConcurrencyAndHooks(t *testing.T) {
	plan := "1. Research flights\n2. Research hotels\n3. Research trains"
	recorder := tt.NewRecordingHook()

	outcome, err := New(newCapability(fixed(plan)), newCapability(resultOf), newCapability(fixed("ok"))).
		WithConcurrency(3).
		WithHooks(hooks.NewRegistry().Register(recorder)).
		Run(context.Background(), "trip")

	require.NoError(t, err)
	assert.True(t, outcome.Report.Complete)
	assert.Equal(t, 1, outcome.Report.Iterations)
	assert.Equal(t, "result of Research hotels", outcome.Results["task_2"])
	for _, id := range []string{"task_1", "task_2", "task_3"} {
		assert.Equal(t, 1, recorder.Count("task_start:"+id))
		assert.Equal(t, 1, recorder.Count("task_done:"+id+":completed"))
	}
}

func TestNewFromAgent(t *testing.T) {
	agent := tt.NewMockAgent("worker", func(task string) (string, error) {
		switch {
		case strings.HasPrefix(task, "Break the following goal"):
			return "- Outline the essay\n- Write the essay", nil
		case strings.HasPrefix(task, "Subtask: "):
			return "done", nil
		default:
			return "essay ready", nil
		}
	})

	outcome, err := NewFromAgent(agent).Run(context.Background(), "write an essay")

	require.NoError(t, err)
	assert.Equal(t, "essay ready", outcome.Answer)
	tasks := agent.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, "Subtask: Outline the essay", tasks[1])
	assert.Equal(t, "Subtask: Write the essay", tasks[2])
}

func TestNewFromModel(t *testing.T) {
	model := tt.NewMockModel().AddResponses(
		"1. Research the topic\n2. Write the draft",
		"notes",
		"draft",
		"final answer",
	)

	outcome, err := NewFromModel(model).Run(context.Background(), "blog post")

	require.NoError(t, err)
	assert.Equal(t, "final answer", outcome.Answer)
	assert.Equal(t, 4, model.CallCount())
	assert.Equal(t, []rungpt.Message{tt.User("Subtask: Research the topic")}, model.CapturedMessages[1])
}

func TestModelCapability_System(t *testing.T) {
	model := tt.NewMockModel().AddResponse("plan")
	c := ModelCapability{Model: model, System: "You plan."}

	got, err := c.Plan(context.Background(), "goal")

	require.NoError(t, err)
	assert.Equal(t, "plan", got)
	assert.Equal(t, []rungpt.Message{
		{Role: rungpt.RoleSystem, Content: "You plan."},
		tt.User("goal"),
	}, model.LastMessages())
}

func TestAgent_Run(t *testing.T) {
	o := New(newCapability(fixed(threeTaskPlan)), newCapability(resultOf), newCapability(fixed("summary")))
	agent := NewAgent(o).WithName("planner")
	thread := rungpt.NewThread()

	answer, err := agent.Run(context.Background(), "three things", thread)

	require.NoError(t, err)
	assert.Equal(t, "summary", answer)
	tt.AssertTranscript(t, []rungpt.Message{
		tt.User("three things"),
		tt.Assistant("summary"),
	}, thread.Messages())

	require.NotNil(t, agent.Outcome())
	assert.Equal(t, 3, agent.Outcome().Graph.Counts()[taskgraph.StatusCompleted])

	trace := agent.Trace()
	assert.Equal(t, rungpt.TraceSuccess, trace.Status)
	assert.Equal(t, "planner", trace.AgentName)
	assert.Equal(t, 1, trace.Count(EventPlanCreated))
	assert.Equal(t, 3, trace.Count(EventSubtaskDone))
}

func TestAgent_RunEmptyGoal(t *testing.T) {
	agent := NewAgent(New(newCapability(fixed("")), newCapability(resultOf), newCapability(fixed(""))))

	_, err := agent.Run(context.Background(), "", nil)

	assert.ErrorIs(t, err, ErrEmptyGoal)
	assert.Nil(t, agent.Outcome())
	assert.Equal(t, rungpt.TraceError, agent.Trace().Status)
}
