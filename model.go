package rungpt

import (
	"context"
	"strings"
)

// Model is the capability that turns a conversation into the next assistant reply.
//
// Implementations live in the models package (langchaingo, Anthropic) and in
// internal/tt for tests. Retry and backoff are the implementation's concern.
type Model interface {
	// Run sends the full conversation and returns the reply text.
	Run(ctx context.Context, messages []Message) (string, error)
}

// StreamingModel is implemented by models that can deliver a reply incrementally.
type StreamingModel interface {
	Model

	// Stream starts generation and returns immediately. The returned Stream is
	// single-pass: chunks are delivered once and cannot be replayed.
	Stream(ctx context.Context, messages []Message) (Stream, error)
}

// Stream is a finite, lazily produced sequence of text fragments.
type Stream interface {
	// Chunks returns the channel of fragments. It is closed when generation ends.
	Chunks() <-chan string

	// Err returns the generation error. Only meaningful after Chunks is closed.
	Err() error
}

// Canceler is implemented by streams that can be abandoned before Chunks is
// closed. Cancel releases the producer side.
type Canceler interface {
	Cancel()
}

// ModelFunc adapts an ordinary function to the Model interface.
type ModelFunc func(ctx context.Context, messages []Message) (string, error)

// Run calls f.
func (f ModelFunc) Run(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// Collect drains stream greedily and returns the concatenated text.
// onChunk, when non-nil, is called for every fragment in order. A stream
// abandoned because ctx ended is canceled when it implements [Canceler].
func Collect(ctx context.Context, stream Stream, onChunk func(string)) (string, error) {
	var sb strings.Builder
	chunks := stream.Chunks()
	for {
		select {
		case <-ctx.Done():
			if c, ok := stream.(Canceler); ok {
				c.Cancel()
			}
			return sb.String(), ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return sb.String(), stream.Err()
			}
			if onChunk != nil {
				onChunk(chunk)
			}
			sb.WriteString(chunk)
		}
	}
}

// ModelName returns m's Name() when it has one, otherwise "".
func ModelName(m Model) string {
	if n, ok := m.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
