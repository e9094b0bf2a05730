package tt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/internal/buffer"
)

// -----------------------------------------------------------------------------
// MockModel - implements rungpt.Model and rungpt.StreamingModel
// -----------------------------------------------------------------------------

// DefaultResponse is returned by MockModel once its script is exhausted.
const DefaultResponse = "Action: Finish[done]"

// MockModel is a scripted model. Responses are returned in the order they were
// added; errors queued with AddError take the slot of the next call.
type MockModel struct {
	mu        sync.Mutex
	name      string
	responses []string
	errors    []error
	callCount int
	chunkSize int

	// CapturedMessages stores the conversation passed to each call.
	CapturedMessages [][]rungpt.Message
}

// NewMockModel creates a new MockModel with the default name "test-model".
func NewMockModel() *MockModel {
	return &MockModel{name: "test-model", chunkSize: 4}
}

// WithName sets the model name.
func (m *MockModel) WithName(name string) *MockModel {
	m.name = name
	return m
}

// WithChunkSize sets how many runes each streamed fragment carries.
func (m *MockModel) WithChunkSize(n int) *MockModel {
	m.chunkSize = n
	return m
}

// Name returns the model name.
func (m *MockModel) Name() string {
	return m.name
}

// AddResponse queues a reply.
func (m *MockModel) AddResponse(content string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, content)
	return m
}

// AddResponses queues several replies.
func (m *MockModel) AddResponses(contents ...string) *MockModel {
	for _, c := range contents {
		m.AddResponse(c)
	}
	return m
}

// AddError queues an error for the next unscripted slot.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.errors) < len(m.responses) {
		m.errors = append(m.errors, nil)
	}
	m.errors = append(m.errors, err)
	m.responses = append(m.responses, "")
	return m
}

// CallCount returns the number of calls made so far.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastMessages returns the conversation passed to the most recent call.
func (m *MockModel) LastMessages() []rungpt.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.CapturedMessages) == 0 {
		return nil
	}
	return m.CapturedMessages[len(m.CapturedMessages)-1]
}

// Run implements rungpt.Model.
func (m *MockModel) Run(ctx context.Context, messages []rungpt.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.callCount
	m.callCount++

	captured := make([]rungpt.Message, len(messages))
	copy(captured, messages)
	m.CapturedMessages = append(m.CapturedMessages, captured)

	if idx < len(m.errors) && m.errors[idx] != nil {
		return "", m.errors[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return DefaultResponse, nil
}

// Stream implements rungpt.StreamingModel by splitting the scripted reply.
func (m *MockModel) Stream(ctx context.Context, messages []rungpt.Message) (rungpt.Stream, error) {
	text, err := m.Run(ctx, messages)
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	size := m.chunkSize
	if size <= 0 {
		size = len(runes) + 1
	}
	stream := buffer.NewStream()
	for i := 0; i < len(runes); i += size {
		end := min(i+size, len(runes))
		stream.Send(string(runes[i:end]))
	}
	stream.Finish(nil)
	return stream, nil
}

var _ rungpt.StreamingModel = (*MockModel)(nil)

// -----------------------------------------------------------------------------
// MockExecutor - implements rungpt.Executor
// -----------------------------------------------------------------------------

// ToolCall records one call received by MockExecutor.
type ToolCall struct {
	Name   string
	Params map[string]any
}

// MockExecutor dispatches tool calls to registered handler functions and
// records every call it receives.
type MockExecutor struct {
	mu       sync.Mutex
	handlers map[string]func(params map[string]any) string
	order    []string
	calls    []ToolCall
}

// NewMockExecutor creates an executor with no tools.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{handlers: map[string]func(map[string]any) string{}}
}

// On registers a handler for name.
func (e *MockExecutor) On(name string, fn func(params map[string]any) string) *MockExecutor {
	if _, ok := e.handlers[name]; !ok {
		e.order = append(e.order, name)
	}
	e.handlers[name] = fn
	return e
}

// Returns registers a handler that always returns result.
func (e *MockExecutor) Returns(name, result string) *MockExecutor {
	return e.On(name, func(map[string]any) string { return result })
}

// Call implements rungpt.Executor.
func (e *MockExecutor) Call(_ context.Context, name string, params map[string]any) string {
	e.mu.Lock()
	e.calls = append(e.calls, ToolCall{Name: name, Params: params})
	fn, ok := e.handlers[name]
	e.mu.Unlock()

	if !ok {
		return fmt.Sprintf("Error: Tool '%s' not found", name)
	}
	return fn(params)
}

// Describe implements rungpt.Describer.
func (e *MockExecutor) Describe() string {
	return "Available tools: " + strings.Join(e.order, ", ")
}

// Calls returns the calls received so far.
func (e *MockExecutor) Calls() []ToolCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ToolCall, len(e.calls))
	copy(out, e.calls)
	return out
}

var (
	_ rungpt.Executor  = (*MockExecutor)(nil)
	_ rungpt.Describer = (*MockExecutor)(nil)
)

// -----------------------------------------------------------------------------
// MockAgent - implements rungpt.Agent
// -----------------------------------------------------------------------------

// MockAgent answers every task through fn and records the tasks it saw.
type MockAgent struct {
	mu    sync.Mutex
	name  string
	fn    func(task string) (string, error)
	tasks []string
}

// NewMockAgent creates an agent backed by fn.
func NewMockAgent(name string, fn func(task string) (string, error)) *MockAgent {
	return &MockAgent{name: name, fn: fn}
}

// EchoAgent returns an agent that answers with prefix + task.
func EchoAgent(name, prefix string) *MockAgent {
	return NewMockAgent(name, func(task string) (string, error) {
		return prefix + task, nil
	})
}

// Name implements rungpt.Agent.
func (a *MockAgent) Name() string { return a.name }

// Run implements rungpt.Agent.
func (a *MockAgent) Run(_ context.Context, task string, thread *rungpt.Thread) (string, error) {
	a.mu.Lock()
	a.tasks = append(a.tasks, task)
	a.mu.Unlock()

	if thread != nil {
		thread.AddUser(task)
	}
	out, err := a.fn(task)
	if err == nil && thread != nil {
		thread.AddAssistant(out)
	}
	return out, err
}

// Tasks returns the tasks received so far.
func (a *MockAgent) Tasks() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.tasks))
	copy(out, a.tasks)
	return out
}

var _ rungpt.Agent = (*MockAgent)(nil)
