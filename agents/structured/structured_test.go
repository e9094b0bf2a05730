package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/agents/simple"
	"github.com/rickchristie/rungpt/internal/tt"
	"github.com/rickchristie/rungpt/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userInfo struct {
	Name       string   `json:"name"`
	Age        int      `json:"age"`
	Interests  []string `json:"interests"`
	Profession string   `json:"profession"`
}

func userOutput(t *testing.T) *Output[userInfo] {
	t.Helper()
	out, err := New[userInfo](schema.Object(map[string]*schema.Property{
		"name":       schema.String("full name"),
		"age":        schema.Integer("age in years").Min(0),
		"interests":  schema.Array("hobbies", map[string]any{"type": "string"}),
		"profession": schema.String("job title"),
	}, "name", "age", "interests"))
	require.NoError(t, err)
	return out
}

func TestOutput_Parse(t *testing.T) {
	type input struct {
		reply string
	}

	type expected struct {
		user userInfo
		err  error
	}

	lei := userInfo{Name: "Li Lei", Age: 25, Interests: []string{"basketball", "science fiction"}}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "fenced json block",
			input: input{reply: "Here you go:\n```json\n" +
				`{"name": "Li Lei", "age": 25, "interests": ["basketball", "science fiction"]}` +
				"\n```"},
			expected: expected{user: lei},
		},
		{
			name:     "whole reply is json",
			input:    input{reply: `  {"name": "Li Lei", "age": 25, "interests": ["basketball", "science fiction"]}  `},
			expected: expected{user: lei},
		},
		{
			name:     "object inside prose",
			input:    input{reply: `The result is {"name": "Li Lei", "age": 25, "interests": ["basketball", "science fiction"]} as asked.`},
			expected: expected{user: lei},
		},
		{
			name:     "single quotes are repaired",
			input:    input{reply: `{'name': 'Li Lei', 'age': 25, 'interests': ['basketball', 'science fiction']}`},
			expected: expected{user: lei},
		},
		{
			name:  "quoted integer is coerced and optional field kept",
			input: input{reply: `{"name": "Han Meimei", "age": "31", "interests": [], "profession": "engineer"}`},
			expected: expected{user: userInfo{
				Name: "Han Meimei", Age: 31, Interests: []string{}, Profession: "engineer",
			}},
		},
		{
			name:     "missing required field",
			input:    input{reply: `{"name": "Li Lei", "interests": []}`},
			expected: expected{err: ErrInvalidOutput},
		},
		{
			name:     "wrong type",
			input:    input{reply: `{"name": "Li Lei", "age": "old", "interests": []}`},
			expected: expected{err: ErrInvalidOutput},
		},
		{
			name:     "not json at all",
			input:    input{reply: "I could not find any user."},
			expected: expected{err: ErrInvalidOutput},
		},
	}

	out := userOutput(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, err := out.Parse(tc.input.reply)

			if tc.expected.err != nil {
				assert.ErrorIs(t, err, tc.expected.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.user, user)
		})
	}
}

func TestOutput_ValidationErrorIsKept(t *testing.T) {
	_, err := userOutput(t).Parse(`{"name": "Li Lei", "age": -1, "interests": []}`)

	var verr *schema.ValidationError
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.True(t, errors.As(err, &verr))
}

func TestOutput_FormatInstruction(t *testing.T) {
	instruction := userOutput(t).FormatInstruction()

	assert.Contains(t, instruction, "```json\n{")
	assert.Contains(t, instruction, `"required": [`)
	assert.Contains(t, instruction, `"interests"`)
	assert.Contains(t, instruction, "Output only the JSON code block")
}

func TestNew_RequiresSchema(t *testing.T) {
	_, err := New[userInfo](nil)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	model := tt.NewMockModel().AddResponse("```json\n" +
		`{"name": "Li Lei", "age": 25, "interests": ["basketball"], "profession": "software engineer"}` +
		"\n```")
	agent := simple.NewAgent(model, nil)
	thread := rungpt.NewThread()

	user, err := Run(context.Background(), agent, userOutput(t), "Extract the user from: I am Li Lei, 25.", thread)

	require.NoError(t, err)
	assert.Equal(t, userInfo{
		Name: "Li Lei", Age: 25, Interests: []string{"basketball"}, Profession: "software engineer",
	}, user)
	sent := model.LastMessages()
	require.NotEmpty(t, sent)
	assert.Contains(t, sent[0].Content, "Extract the user from: I am Li Lei, 25.")
	assert.Contains(t, sent[0].Content, "matches this JSON Schema")
}

func TestRun_AgentError(t *testing.T) {
	boom := errors.New("model unavailable")
	agent := tt.NewMockAgent("extractor", func(string) (string, error) { return "", boom })

	_, err := Run(context.Background(), agent, userOutput(t), "anything", nil)

	assert.ErrorIs(t, err, boom)
}
