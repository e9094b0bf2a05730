package models

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/internal/tt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeLLM is an llms.Model that replays one response, streaming it in chunks
// when a streaming func is set.
type fakeLLM struct {
	mu       sync.Mutex
	chunks   []string
	info     map[string]any
	err      error
	noChoice bool
	received []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	f.received = messages
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	f.options = opts
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.noChoice {
		return &llms.ContentResponse{}, nil
	}

	var content string
	for _, c := range f.chunks {
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
		content += c
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content, GenerationInfo: f.info}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func conversation() []rungpt.Message {
	return []rungpt.Message{
		{Role: rungpt.RoleSystem, Content: "be brief"},
		tt.User("hi"),
		tt.Assistant("hello"),
		tt.User("weather?"),
	}
}

func TestMessages(t *testing.T) {
	got := Messages(conversation())
	require.Len(t, got, 4)

	roles := []llms.ChatMessageType{
		llms.ChatMessageTypeSystem,
		llms.ChatMessageTypeHuman,
		llms.ChatMessageTypeAI,
		llms.ChatMessageTypeHuman,
	}
	for i, msg := range got {
		assert.Equal(t, roles[i], msg.Role)
		require.Len(t, msg.Parts, 1)
		assert.Equal(t, conversation()[i].Content, msg.Parts[0].(llms.TextContent).Text)
	}
}

func TestLCG_Run(t *testing.T) {
	type input struct {
		llm *fakeLLM
	}

	type expected struct {
		text  string
		err   error
		usage Usage
	}

	transport := errors.New("connection refused")

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "openai style usage",
			input: input{llm: &fakeLLM{
				chunks: []string{"Action: Finish[4]"},
				info:   map[string]any{"PromptTokens": 12, "CompletionTokens": 5, "TotalTokens": 17},
			}},
			expected: expected{
				text:  "Action: Finish[4]",
				usage: Usage{Model: "gpt", InputTokens: 12, OutputTokens: 5, TotalTokens: 17},
			},
		},
		{
			name: "anthropic style usage without total",
			input: input{llm: &fakeLLM{
				chunks: []string{"ok"},
				info:   map[string]any{"InputTokens": int64(3), "OutputTokens": float64(2)},
			}},
			expected: expected{
				text:  "ok",
				usage: Usage{Model: "gpt", InputTokens: 3, OutputTokens: 2, TotalTokens: 5},
			},
		},
		{
			name:     "transport error",
			input:    input{llm: &fakeLLM{err: transport}},
			expected: expected{err: transport},
		},
		{
			name:     "no choices",
			input:    input{llm: &fakeLLM{noChoice: true}},
			expected: expected{err: ErrNoChoices},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var usage Usage
			model := NewLCG(tc.input.llm).
				WithName("gpt").
				WithOptions(llms.WithTemperature(0.2)).
				WithUsageFunc(func(u Usage) { usage = u })

			text, err := model.Run(context.Background(), conversation())
			if tc.expected.err != nil {
				assert.ErrorIs(t, err, tc.expected.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.text, text)
			assert.Equal(t, tc.expected.usage, usage)
			assert.Equal(t, 0.2, tc.input.llm.options.Temperature)
			assert.Len(t, tc.input.llm.received, 4)
		})
	}
}

func TestLCG_Stream(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"Thought: add\n", "Action: ", "Finish[4]"}}
	model := NewLCG(llm)
	assert.Same(t, llm, model.Unwrap())

	stream, err := model.Stream(context.Background(), conversation())
	require.NoError(t, err)

	var seen []string
	text, err := rungpt.Collect(context.Background(), stream, func(c string) { seen = append(seen, c) })
	require.NoError(t, err)
	assert.Equal(t, "Thought: add\nAction: Finish[4]", text)
	assert.Equal(t, llm.chunks, seen)
}

func TestLCG_StreamError(t *testing.T) {
	transport := errors.New("reset by peer")
	stream, err := NewLCG(&fakeLLM{err: transport}).Stream(context.Background(), nil)
	require.NoError(t, err)

	_, err = rungpt.Collect(context.Background(), stream, nil)
	assert.ErrorIs(t, err, transport)
}

type anthropicRequest struct {
	Model     string  `json:"model"`
	MaxTokens int64   `json:"max_tokens"`
	Temp      float64 `json:"temperature"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func anthropicServer(t *testing.T, status int, body string, got *anthropicRequest) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropic_Run(t *testing.T) {
	var req anthropicRequest
	srv := anthropicServer(t, http.StatusOK, `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-sonnet-20241022",
		"content": [{"type": "text", "text": "Action: "}, {"type": "text", "text": "Finish[sunny]"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 20, "output_tokens": 4}
	}`, &req)

	var usage Usage
	model := NewAnthropic(func(o *AnthropicOptions) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL
		o.MaxTokens = 512
		o.Temperature = 0
		o.MaxRetries = 0
	}).WithUsageFunc(func(u Usage) { usage = u })

	text, err := model.Run(context.Background(), conversation())
	require.NoError(t, err)
	assert.Equal(t, "Action: Finish[sunny]", text)
	assert.Equal(t, Usage{Model: "claude-3-5-sonnet-20241022", InputTokens: 20, OutputTokens: 4, TotalTokens: 24}, usage)

	assert.Equal(t, "claude-3-5-sonnet-20241022", req.Model)
	assert.Equal(t, int64(512), req.MaxTokens)
	require.Len(t, req.System, 1)
	assert.Equal(t, "be brief", req.System[0].Text)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "assistant", req.Messages[1].Role)
	assert.Equal(t, "weather?", req.Messages[2].Content[0].Text)
}

func TestAnthropic_RunError(t *testing.T) {
	srv := anthropicServer(t, http.StatusBadRequest,
		`{"type": "error", "error": {"type": "invalid_request_error", "message": "max_tokens too large"}}`, nil)

	model := NewAnthropic(func(o *AnthropicOptions) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL
		o.MaxRetries = 0
	})

	_, err := model.Run(context.Background(), conversation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic:")
}

func TestAnthropicMessages(t *testing.T) {
	system, turns := AnthropicMessages([]rungpt.Message{
		{Role: rungpt.RoleSystem, Content: "one"},
		{Role: rungpt.RoleSystem, Content: "two"},
		tt.User("hi"),
	})
	assert.Equal(t, "one\n\ntwo", system)
	require.Len(t, turns, 1)
	assert.Equal(t, "claude-3-5-sonnet-20241022", NewAnthropic().Name())
}
