package agentcall

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/hooks"
	"github.com/rickchristie/rungpt/internal/tt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolRenamer struct{ to string }

func (h *toolRenamer) OnBeforeToolCall(_ context.Context, e *rungpt.BeforeToolCallEvent) {
	e.Tool = h.to
}

func TestCaller_Generate(t *testing.T) {
	type input struct {
		streaming bool
		fields    map[string]any
	}

	type expected struct {
		response string
		chunks   string
		step     any
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "plain run",
			input:    input{fields: map[string]any{"step": 3}},
			expected: expected{response: "Action: Finish[ok]", step: 3},
		},
		{
			name:     "streaming collects chunks",
			input:    input{streaming: true},
			expected: expected{response: "Action: Finish[ok]", chunks: "Action: Finish[ok]"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := tt.NewMockModel().AddResponse("Action: Finish[ok]")
			recorder := tt.NewRecordingHook()
			trace := rungpt.NewAgentTrace("agent", "task")
			var chunks strings.Builder
			c := Caller{
				Model:     model,
				Hooks:     hooks.NewRegistry().Register(recorder),
				Streaming: tc.input.streaming,
				OnChunk:   func(s string) { chunks.WriteString(s) },
			}

			response, err := c.Generate(context.Background(), trace, []rungpt.Message{tt.User("hi")}, tc.input.fields)

			require.NoError(t, err)
			assert.Equal(t, tc.expected.response, response)
			assert.Equal(t, tc.expected.chunks, chunks.String())
			assert.Equal(t, 1, recorder.Count("before_model"))
			assert.Equal(t, 1, recorder.Count("after_model"))

			require.Len(t, trace.Steps, 2)
			assert.Equal(t, rungpt.EventModelCall, trace.Steps[0].Type)
			assert.Equal(t, 1, trace.Steps[0].Data["messages"])
			assert.Equal(t, rungpt.EventModelResponse, trace.Steps[1].Type)
			assert.Equal(t, tc.expected.step, trace.Steps[1].Data["step"])
			assert.Contains(t, trace.Steps[1].Data, "duration_ms")
		})
	}
}

func TestCaller_GenerateError(t *testing.T) {
	boom := errors.New("rate limited")
	trace := rungpt.NewAgentTrace("agent", "task")
	c := Caller{Model: tt.NewMockModel().AddError(boom)}

	_, err := c.Generate(context.Background(), trace, nil, nil)

	assert.ErrorIs(t, err, boom)
	require.Len(t, trace.Steps, 1)
	assert.Equal(t, rungpt.EventModelCall, trace.Steps[0].Type)
}

func TestCaller_CallTool(t *testing.T) {
	type input struct {
		executor rungpt.Executor
		rename   string
	}

	type expected struct {
		result  string
		isError bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "executor result",
			input:    input{executor: tt.NewMockExecutor().Returns("search", "found it")},
			expected: expected{result: "found it"},
		},
		{
			name:     "hook rewrites the tool name",
			input:    input{executor: tt.NewMockExecutor().Returns("lookup", "by id"), rename: "lookup"},
			expected: expected{result: "by id"},
		},
		{
			name:     "no executor",
			input:    input{},
			expected: expected{result: "Error: Tool 'search' not found", isError: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			registry := hooks.NewRegistry()
			if tc.input.rename != "" {
				registry.Register(&toolRenamer{to: tc.input.rename})
			}
			trace := rungpt.NewAgentTrace("agent", "task")
			c := Caller{Executor: tc.input.executor, Hooks: registry}

			result := c.CallTool(context.Background(), trace, rungpt.NewAction("search", map[string]any{"query": "go"}, ""))

			assert.Equal(t, tc.expected.result, result)
			require.Len(t, trace.Steps, 1)
			assert.Equal(t, tc.expected.isError, trace.Steps[0].Data["is_error"])
		})
	}
}
