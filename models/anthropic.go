package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/internal/buffer"
)

// AnthropicOptions configures an Anthropic model.
type AnthropicOptions struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// BaseURL overrides the API endpoint, mainly for tests and proxies.
	BaseURL string

	// MaxRetries is passed to the client; negative keeps the client default.
	MaxRetries int
}

// Anthropic talks to the Messages API directly through the official SDK.
type Anthropic struct {
	client  anthropic.Client
	opts    AnthropicOptions
	onUsage func(Usage)
}

// NewAnthropic creates a model. Without an explicit key the client falls back
// to the ANTHROPIC_API_KEY environment variable.
func NewAnthropic(optFns ...func(o *AnthropicOptions)) *Anthropic {
	opts := AnthropicOptions{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
		MaxRetries:  -1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.MaxRetries >= 0 {
		clientOpts = append(clientOpts, option.WithMaxRetries(opts.MaxRetries))
	}

	return &Anthropic{client: anthropic.NewClient(clientOpts...), opts: opts}
}

// WithUsageFunc registers fn to receive token usage after each call.
func (m *Anthropic) WithUsageFunc(fn func(Usage)) *Anthropic {
	m.onUsage = fn
	return m
}

// Name returns the model id.
func (m *Anthropic) Name() string { return string(m.opts.Model) }

// Run implements rungpt.Model.
func (m *Anthropic) Run(ctx context.Context, messages []rungpt.Message) (string, error) {
	resp, err := m.client.Messages.New(ctx, m.params(messages))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	if m.onUsage != nil {
		in, out := int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)
		m.onUsage(Usage{Model: m.Name(), InputTokens: in, OutputTokens: out, TotalTokens: in + out})
	}
	return sb.String(), nil
}

// Stream implements rungpt.StreamingModel.
func (m *Anthropic) Stream(ctx context.Context, messages []rungpt.Message) (rungpt.Stream, error) {
	stream := buffer.NewStream()
	events := m.client.Messages.NewStreaming(ctx, m.params(messages))

	go func() {
		defer events.Close()
		for events.Next() {
			ev, ok := events.Current().AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
				stream.Send(delta.Text)
			}
		}
		var err error
		if events.Err() != nil {
			err = fmt.Errorf("anthropic: %w", events.Err())
		}
		stream.Finish(err)
	}()
	return stream, nil
}

func (m *Anthropic) params(messages []rungpt.Message) anthropic.MessageNewParams {
	system, turns := AnthropicMessages(messages)
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    turns,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// AnthropicMessages splits a conversation into the system prompt and the
// user/assistant turns. Several system messages are joined by blank lines.
func AnthropicMessages(messages []rungpt.Message) (string, []anthropic.MessageParam) {
	var system []string
	var turns []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case rungpt.RoleSystem:
			system = append(system, msg.Content)
		case rungpt.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return strings.Join(system, "\n\n"), turns
}

var _ rungpt.StreamingModel = (*Anthropic)(nil)
