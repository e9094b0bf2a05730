package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasFinish(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "action finish bracket", text: "Action: Finish[42]", expected: true},
		{name: "line start finish bracket", text: "Thought: ok\nfinish[42]", expected: true},
		{name: "action FINISH word", text: "Action: FINISH", expected: true},
		{name: "json finish", text: `{"action": "FINISH", "params": {}}`, expected: true},
		{name: "final answer label any case", text: "final answer: 42", expected: true},
		{name: "chinese final answer label", text: "最终答案：42", expected: true},
		{name: "tool call only", text: "Action: search[go]", expected: false},
		{name: "prose", text: "I will finish later", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasFinish(tt.text))
		})
	}
}

func TestExtractThought(t *testing.T) {
	type expected struct {
		thought string
		found   bool
	}

	tests := []struct {
		name     string
		text     string
		expected expected
	}{
		{
			name:     "ends at newline",
			text:     "Thought: I should search\nAction: search[x]",
			expected: expected{thought: "I should search", found: true},
		},
		{
			name:     "ends at action on same line",
			text:     "Thought: compute it Action: calculator[1+1]",
			expected: expected{thought: "compute it", found: true},
		},
		{
			name:     "chinese label",
			text:     "思考：需要查询天气\nAction: weather[深圳]",
			expected: expected{thought: "需要查询天气", found: true},
		},
		{
			name:     "case insensitive until end",
			text:     "THOUGHT: last words",
			expected: expected{thought: "last words", found: true},
		},
		{
			name:     "absent",
			text:     "Action: search[x]",
			expected: expected{found: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thought, found := ExtractThought(tt.text)

			assert.Equal(t, tt.expected.found, found)
			assert.Equal(t, tt.expected.thought, thought)
		})
	}
}

func TestExtractObservation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "ends at newline", text: "Observation: 30\nThought: done", expected: "30"},
		{name: "ends at thought", text: "Observation: sunny Thought: good", expected: "sunny"},
		{name: "chinese label", text: "观察：晴天", expected: "晴天"},
		{name: "absent", text: "nothing", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, _ := ExtractObservation(tt.text)
			assert.Equal(t, tt.expected, obs)
		})
	}
}

func TestExtractFinalAnswer(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{name: "final answer label", text: "Thought: done\nFinal Answer: 42\nextra", expected: "42"},
		{name: "lowercase label", text: "final answer: yes", expected: "yes"},
		{name: "chinese final answer", text: "最终答案：三十", expected: "三十"},
		{name: "answer label", text: "Answer: blue", expected: "blue"},
		{name: "chinese answer label", text: "答案：红色", expected: "红色"},
		{name: "final answer preferred over answer", text: "Answer: a\nFinal Answer: b", expected: "b"},
		{name: "no label returns trimmed text", text: "  just text \n", expected: "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractFinalAnswer(tt.text))
		})
	}
}
