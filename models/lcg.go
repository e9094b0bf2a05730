package models

import (
	"context"
	"errors"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/internal/buffer"
	"github.com/tmc/langchaingo/llms"
)

// ErrNoChoices is returned when a provider answers without any choice.
var ErrNoChoices = errors.New("models: response has no choices")

// LCG adapts any langchaingo llms.Model (OpenAI, Ollama, Anthropic, Google
// and the OpenAI-compatible endpoints behind openai.WithBaseURL).
//
//	llm, _ := openai.New(openai.WithToken(key), openai.WithModel("gpt-4o-mini"))
//	model := models.NewLCG(llm).WithName("gpt-4o-mini")
type LCG struct {
	model   llms.Model
	name    string
	options []llms.CallOption
	onUsage func(Usage)
}

// NewLCG wraps model.
func NewLCG(model llms.Model) *LCG {
	return &LCG{model: model}
}

// WithName sets the name reported in events and usage.
func (m *LCG) WithName(name string) *LCG {
	m.name = name
	return m
}

// WithOptions sets call options sent with every request, such as
// llms.WithTemperature.
func (m *LCG) WithOptions(options ...llms.CallOption) *LCG {
	m.options = append(m.options, options...)
	return m
}

// WithUsageFunc registers fn to receive token usage after each call.
func (m *LCG) WithUsageFunc(fn func(Usage)) *LCG {
	m.onUsage = fn
	return m
}

// Name implements the optional name interface read by rungpt.ModelName.
func (m *LCG) Name() string { return m.name }

// Unwrap returns the wrapped llms.Model.
func (m *LCG) Unwrap() llms.Model { return m.model }

// Run implements rungpt.Model.
func (m *LCG) Run(ctx context.Context, messages []rungpt.Message) (string, error) {
	resp, err := m.model.GenerateContent(ctx, Messages(messages), m.options...)
	if err != nil {
		return "", err
	}
	return m.content(resp)
}

// Stream implements rungpt.StreamingModel. The request runs in its own
// goroutine; fragments are buffered without limit so a slow reader never
// stalls the provider.
func (m *LCG) Stream(ctx context.Context, messages []rungpt.Message) (rungpt.Stream, error) {
	stream := buffer.NewStream()

	opts := make([]llms.CallOption, 0, len(m.options)+1)
	opts = append(opts, m.options...)
	opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		stream.Send(string(chunk))
		return nil
	}))

	go func() {
		resp, err := m.model.GenerateContent(ctx, Messages(messages), opts...)
		if err == nil {
			_, err = m.content(resp)
		}
		stream.Finish(err)
	}()
	return stream, nil
}

func (m *LCG) content(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	choice := resp.Choices[0]
	if m.onUsage != nil {
		m.onUsage(usageFromInfo(m.name, choice.GenerationInfo))
	}
	return choice.Content, nil
}

// Messages converts a conversation into langchaingo message content.
func Messages(messages []rungpt.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		out = append(out, llms.TextParts(chatType(msg.Role), msg.Content))
	}
	return out
}

func chatType(role rungpt.Role) llms.ChatMessageType {
	switch role {
	case rungpt.RoleSystem:
		return llms.ChatMessageTypeSystem
	case rungpt.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

var _ rungpt.StreamingModel = (*LCG)(nil)
