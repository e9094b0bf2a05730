package toolbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rickchristie/rungpt/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forecastInput struct {
	City   string    `json:"city"`
	Days   int       `json:"days"`
	Metric bool      `json:"metric"`
	From   time.Time `json:"from"`
}

type forecast struct {
	City  string `yaml:"city"`
	Highs []int  `yaml:"highs"`
}

func weatherTool() *Func[forecastInput, forecast] {
	params := schema.Object(map[string]*schema.Property{
		"city":   schema.String("City name").MinLength(1),
		"days":   schema.Integer("Days").Min(1).Max(3),
		"metric": schema.Boolean("Metric units"),
		"from":   schema.String("Start date"),
	}, "city")

	return NewFunc("weather", "Look up the forecast", params,
		func(_ context.Context, in forecastInput) (forecast, error) {
			if in.City == "Atlantis" {
				return forecast{}, errors.New("city is under water")
			}
			highs := make([]int, in.Days)
			for i := range highs {
				highs[i] = 20 + i
			}
			return forecast{City: in.City, Highs: highs}, nil
		})
}

func echoTool() *Simple {
	return NewSimple("echo", "Repeat the input", func(_ context.Context, in string) (string, error) {
		return "echo: " + in, nil
	})
}

func TestBox_Call(t *testing.T) {
	type input struct {
		name   string
		params map[string]any
	}

	type expected struct {
		result string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "typed tool renders yaml",
			input:    input{name: "weather", params: map[string]any{"city": "Oslo", "days": 2}},
			expected: expected{result: "city: Oslo\nhighs:\n    - 20\n    - 21"},
		},
		{
			name:     "string parameters coerced",
			input:    input{name: "weather", params: map[string]any{"city": "Oslo", "days": "1"}},
			expected: expected{result: "city: Oslo\nhighs:\n    - 20"},
		},
		{
			name:     "simple tool reads input",
			input:    input{name: "echo", params: map[string]any{"input": "hi"}},
			expected: expected{result: "echo: hi"},
		},
		{
			name:     "simple tool reads only parameter",
			input:    input{name: "echo", params: map[string]any{"query": "hello"}},
			expected: expected{result: "echo: hello"},
		},
		{
			name:     "unknown tool",
			input:    input{name: "fly", params: nil},
			expected: expected{result: "Error: Tool 'fly' not found"},
		},
		{
			name:     "tool error",
			input:    input{name: "weather", params: map[string]any{"city": "Atlantis", "days": 1}},
			expected: expected{result: "Error: city is under water"},
		},
	}

	box := New(weatherTool(), echoTool())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := box.Call(context.Background(), tc.input.name, tc.input.params)
			assert.Equal(t, tc.expected.result, got)
		})
	}
}

func TestBox_Call_Validation(t *testing.T) {
	box := New(weatherTool())

	got := box.Call(context.Background(), "weather", map[string]any{"days": 9})
	assert.True(t, strings.HasPrefix(got, "Validation Error: "), got)
	assert.Contains(t, got, "city")
	assert.NotContains(t, got, "\n")
}

func TestBox_Call_Panic(t *testing.T) {
	box := New(NewSimple("crash", "", func(context.Context, string) (string, error) {
		panic("out of range")
	}))
	assert.Equal(t, "Error: out of range", box.Call(context.Background(), "crash", nil))
}

func TestBox_EnableDisable(t *testing.T) {
	box := New(weatherTool(), echoTool())

	require.NoError(t, box.Disable("echo"))
	assert.Equal(t, "Error: Tool 'echo' is disabled",
		box.Call(context.Background(), "echo", map[string]any{"input": "x"}))
	assert.NotContains(t, box.Describe(), "echo")
	assert.Equal(t, []Info{
		{Name: "weather", Description: "Look up the forecast", Enabled: true},
		{Name: "echo", Description: "Repeat the input", Enabled: false},
	}, box.List())

	require.NoError(t, box.Enable("echo"))
	assert.Equal(t, "echo: x", box.Call(context.Background(), "echo", map[string]any{"input": "x"}))

	assert.ErrorIs(t, box.Disable("nope"), ErrUnknownTool)
}

func TestBox_Register(t *testing.T) {
	box := New()
	require.NoError(t, box.Register(echoTool()))

	err := box.Register(echoTool())
	assert.ErrorIs(t, err, ErrDuplicateTool)

	bad := NewFunc("bad", "", map[string]any{"type": 7},
		func(context.Context, struct{}) (string, error) { return "", nil })
	assert.Error(t, box.Register(bad))

	_, ok := box.Get("echo")
	assert.True(t, ok)
	_, ok = box.Get("bad")
	assert.False(t, ok)

	assert.Panics(t, func() { New(echoTool(), echoTool()) })
}

func TestBox_Describe(t *testing.T) {
	box := New(echoTool(), weatherTool())
	desc := box.Describe()

	assert.True(t, strings.HasPrefix(desc, "- echo: Repeat the input\n  Parameters:\n"), desc)
	assert.Contains(t, desc, "- weather: Look up the forecast")
	assert.Contains(t, desc, "    required:\n        - city")
	assert.False(t, strings.HasSuffix(desc, "\n"))
}

func TestDecode(t *testing.T) {
	var in forecastInput
	err := Decode(map[string]any{
		"city":   "Oslo",
		"days":   "4",
		"metric": "true",
		"from":   "2024-05-01T00:00:00Z",
	}, &in)
	require.NoError(t, err)

	assert.Equal(t, forecastInput{
		City:   "Oslo",
		Days:   4,
		Metric: true,
		From:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}, in)
}

func TestRender(t *testing.T) {
	type input struct {
		value any
	}

	type expected struct {
		text string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{name: "nil", input: input{value: nil}, expected: expected{text: ""}},
		{name: "string", input: input{value: "plain"}, expected: expected{text: "plain"}},
		{name: "bytes", input: input{value: []byte("raw")}, expected: expected{text: "raw"}},
		{name: "stringer", input: input{value: 2 * time.Second}, expected: expected{text: "2s"}},
		{name: "map", input: input{value: map[string]any{"b": 2, "a": "x"}}, expected: expected{text: "a: x\nb: 2"}},
		{name: "number", input: input{value: 42}, expected: expected{text: "42"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected.text, Render(tc.input.value))
		})
	}
}
