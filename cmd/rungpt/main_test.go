package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/config"
	"github.com/rickchristie/rungpt/internal/tt"
	"github.com/rickchristie/rungpt/models"
	"github.com/rickchristie/rungpt/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// execute runs the root command in an empty directory so no rungpt.yaml is
// picked up.
func execute(t *testing.T, model rungpt.Model, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd(func(*config.Config, func(models.Usage)) (rungpt.Model, error) {
		return model, nil
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func lastUser(messages []rungpt.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == rungpt.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func TestRunCmd(t *testing.T) {
	type input struct {
		args      []string
		responses []string
	}

	type expected struct {
		output      string
		observation string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "direct answer",
			input: input{
				args:      []string{"run", "what is 6*7?"},
				responses: []string{"Thought: easy\nAction: Finish[42]"},
			},
			expected: expected{output: "Answer: 42\n"},
		},
		{
			name: "tool call then answer",
			input: input{
				args: []string{"run", "what", "is", "6*7?"},
				responses: []string{
					`Thought: multiply
Action: arithmetic(op="multiply", a=6, b=7)`,
					"Action: Finish[42]",
				},
			},
			expected: expected{
				output:      "Answer: 42\n",
				observation: "Observation: 42",
			},
		},
		{
			name: "tool error is observed",
			input: input{
				args: []string{"run", "divide by zero"},
				responses: []string{
					`Action: arithmetic(op="divide", a=1, b=0)`,
					"Action: Finish[undefined]",
				},
			},
			expected: expected{
				output:      "Answer: undefined\n",
				observation: "Observation: Error: division by zero",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := tt.NewMockModel().AddResponses(tc.input.responses...)

			out, err := execute(t, model, "", tc.input.args...)

			require.NoError(t, err)
			assert.Equal(t, tc.expected.output, out)
			if tc.expected.observation != "" {
				assert.Equal(t, tc.expected.observation, lastUser(model.LastMessages()))
			}
		})
	}
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	_, err := execute(t, tt.NewMockModel(), "", "run", "--max-steps", "0", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.max_steps")
}

func TestRunCmd_FlagsReachConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var got *config.Config
	cmd := newRootCmd(func(cfg *config.Config, _ func(models.Usage)) (rungpt.Model, error) {
		got = cfg
		return tt.NewMockModel().AddResponse("Action: Finish[ok]"), nil
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--provider", "ollama", "--model", "qwen2.5", "--max-steps", "3", "run", "hi"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, config.ProviderOllama, got.Model.Provider)
	assert.Equal(t, "qwen2.5", got.ModelName())
	assert.Equal(t, 3, got.Agent.MaxSteps)
}

func TestPlanCmd(t *testing.T) {
	model := rungpt.ModelFunc(func(_ context.Context, messages []rungpt.Message) (string, error) {
		task := lastUser(messages)
		switch {
		case strings.Contains(task, "Summarize the work above"):
			return "Action: Finish[all done]", nil
		case strings.HasPrefix(task, "Subtask: "):
			desc, _, _ := strings.Cut(strings.TrimPrefix(task, "Subtask: "), "\n")
			return "Action: Finish[did " + desc + "]", nil
		}
		return "```json\n" +
			`{"action": "Finish", "params": {"answer": "1. research the topic\n2. write the report"}}` +
			"\n```", nil
	})

	out, err := execute(t, model, "", "plan", "--results", "write a report")

	require.NoError(t, err)
	assert.Contains(t, out, "[done] task_1: research the topic\n      did research the topic\n")
	assert.Contains(t, out, "[done] task_2: write the report\n      did write the report\n")
	assert.True(t, strings.HasSuffix(out, "Answer: all done\n"), out)
}

func TestChatCmd(t *testing.T) {
	type expected struct {
		contains   []string
		modelCalls int
	}

	tests := []struct {
		name     string
		stdin    string
		expected expected
	}{
		{
			name:  "exit ends the chat",
			stdin: "hello\n\nexit\nnever sent\n",
			expected: expected{
				contains:   []string{"Agent: reply 1", "Goodbye!"},
				modelCalls: 1,
			},
		},
		{
			name:  "end of input ends the chat",
			stdin: "hello\nagain\n",
			expected: expected{
				contains:   []string{"Agent: reply 1", "Agent: reply 2", "Chat ended."},
				modelCalls: 2,
			},
		},
		{
			name:  "tools command does not call the model",
			stdin: "/tools\nquit\n",
			expected: expected{
				contains:   []string{"- arithmetic:", "Goodbye!"},
				modelCalls: 0,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := tt.NewMockModel().AddResponses("Action: Finish[reply 1]", "Action: Finish[reply 2]")

			out, err := execute(t, model, tc.stdin, "chat")

			require.NoError(t, err)
			for _, s := range tc.expected.contains {
				assert.Contains(t, out, s)
			}
			assert.Equal(t, tc.expected.modelCalls, model.CallCount())
		})
	}
}

func TestChatCmd_ThreadAndReset(t *testing.T) {
	model := tt.NewMockModel().AddResponses(
		"Action: Finish[one]",
		"Action: Finish[two]",
		"Action: Finish[three]",
	)

	out, err := execute(t, model, "alpha\nbravo\n/reset\ncharlie\nexit\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Started a new conversation.")
	require.Len(t, model.CapturedMessages, 3)

	transcript := func(i int) string { return tt.Transcript(model.CapturedMessages[i]) }
	assert.Contains(t, transcript(1), "alpha")
	assert.Contains(t, transcript(1), "bravo")
	assert.NotContains(t, transcript(2), "alpha")
	assert.Contains(t, transcript(2), "charlie")
}

func TestWriteCmd(t *testing.T) {
	model := rungpt.ModelFunc(func(_ context.Context, messages []rungpt.Message) (string, error) {
		task := lastUser(messages)
		switch {
		case strings.HasPrefix(task, "List the key facts"):
			return "Action: Finish[the metro opened in 1966]", nil
		case strings.HasPrefix(task, "Write a short outline"):
			return "Action: Finish[history then today]", nil
		case strings.HasPrefix(task, "Point out gaps"):
			return "Action: Finish[check the date]", nil
		case strings.HasPrefix(task, "Summarize"):
			return "Action: Finish[- opened 1966]", nil
		case strings.HasPrefix(task, "Write a few paragraphs"):
			return "Action: Finish[The Oslo metro opened in 1966.]", nil
		}
		return "Action: Finish[unexpected]", nil
	})

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "prose by default",
			args:     []string{"write", "the Oslo metro"},
			expected: "The Oslo metro opened in 1966.\n(6 words)\n",
		},
		{
			name:     "bullets",
			args:     []string{"write", "--style", "bullets", "the Oslo metro"},
			expected: "- opened 1966\n(3 words)\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, model, "", tc.args...)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestWriteCmd_BadStyle(t *testing.T) {
	_, err := execute(t, tt.NewMockModel(), "", "write", "--style", "haiku", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--style")
}

func TestWritingWorkflow_PassesFactsAlong(t *testing.T) {
	var critique string
	step, err := writingWorkflow(func(name string) (rungpt.Agent, error) {
		return tt.NewMockAgent(name, func(task string) (string, error) {
			if name == "critic" {
				critique = task
			}
			return name + " output", nil
		}), nil
	}, 2)
	require.NoError(t, err)

	wc := workflow.NewContext(map[string]any{workflow.KeyTask: "rain"})
	_, err = workflow.Execute(context.Background(), step, wc)

	require.NoError(t, err)
	assert.Equal(t, "Point out gaps or doubtful claims in these facts about rain:\nresearcher output", critique)
	result, _ := wc.GetString(workflow.KeyResult)
	assert.Equal(t, "writer output", result)
	words, _ := wc.GetString(keyWords)
	assert.Equal(t, "2", words)
}

func TestToolsCmd(t *testing.T) {
	out, err := execute(t, nil, "", "tools")
	require.NoError(t, err)
	for _, name := range []string{"arithmetic", "clock", "read_file", "word_count"} {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, nil, "", "tools", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "- read_file: Read a text file below the working directory\n  Parameters:\n")
}

func TestBuiltinTools(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	type input struct {
		tool   string
		params map[string]any
	}

	tests := []struct {
		name     string
		input    input
		expected string
	}{
		{
			name:     "clock in UTC",
			input:    input{tool: "clock", params: map[string]any{}},
			expected: "*weekday: Friday\nzone: UTC",
		},
		{
			name:     "clock unknown zone",
			input:    input{tool: "clock", params: map[string]any{"timezone": "Mars/Olympus"}},
			expected: `Error: unknown time zone "Mars/Olympus"`,
		},
		{
			name:     "arithmetic from strings",
			input:    input{tool: "arithmetic", params: map[string]any{"op": "add", "a": "1.5", "b": "2"}},
			expected: "3.5",
		},
		{
			name:     "division by zero",
			input:    input{tool: "arithmetic", params: map[string]any{"op": "divide", "a": 1, "b": 0}},
			expected: "Error: division by zero",
		},
		{
			name:     "word count",
			input:    input{tool: "word_count", params: map[string]any{"input": "one two  three"}},
			expected: "3",
		},
		{
			name:     "read file",
			input:    input{tool: "read_file", params: map[string]any{"path": "notes.txt", "max_bytes": 5}},
			expected: "hello",
		},
		{
			name:     "read file outside the directory",
			input:    input{tool: "read_file", params: map[string]any{"path": "../notes.txt"}},
			expected: "Error: ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello world"), 0o600))
			t.Chdir(dir)

			got := builtinTools(now).Call(context.Background(), tc.input.tool, tc.input.params)

			switch {
			case strings.HasPrefix(tc.expected, "*"):
				assert.True(t, strings.HasSuffix(got, tc.expected[1:]), got)
				assert.Contains(t, got, "2026-01-02T03:04:05Z")
			case strings.HasSuffix(tc.expected, ": "):
				assert.True(t, strings.HasPrefix(got, tc.expected), got)
			default:
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestBuiltinTools_InvalidOperation(t *testing.T) {
	got := builtinTools(time.Now).Call(context.Background(), "arithmetic",
		map[string]any{"op": "power", "a": 2, "b": 3})

	assert.True(t, strings.HasPrefix(got, "Validation Error:"), got)
}

func TestDefaultModelFactory(t *testing.T) {
	type expected struct {
		name string
		err  string
	}

	tests := []struct {
		name     string
		cfg      func(c *config.Config)
		expected expected
	}{
		{
			name:     "openai without key",
			cfg:      func(c *config.Config) {},
			expected: expected{err: "no API key for openai"},
		},
		{
			name:     "openai",
			cfg:      func(c *config.Config) { c.Keys.OpenAI = "sk-test" },
			expected: expected{name: "gpt-4o-mini"},
		},
		{
			name:     "ollama needs no key",
			cfg:      func(c *config.Config) { c.Model.Provider = config.ProviderOllama },
			expected: expected{name: "llama3.1"},
		},
		{
			name: "anthropic",
			cfg: func(c *config.Config) {
				c.Model.Provider = config.ProviderAnthropic
				c.Keys.Anthropic = "sk-ant-test"
			},
			expected: expected{name: "claude-3-5-sonnet-20241022"},
		},
		{
			name:     "unknown provider",
			cfg:      func(c *config.Config) { c.Model.Provider = "bard" },
			expected: expected{err: `unknown provider "bard"`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.cfg(cfg)

			model, err := defaultModelFactory(cfg, func(models.Usage) {})

			if tc.expected.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expected.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.name, rungpt.ModelName(model))
		})
	}
}
