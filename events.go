package rungpt

import "time"

// -----------------------------------------------------------------------------
// Hook Event Interface
// -----------------------------------------------------------------------------

// HookEvent is a marker interface for all hook events.
type HookEvent interface {
	hookEvent()
}

// -----------------------------------------------------------------------------
// Agent Run Events
// -----------------------------------------------------------------------------

// BeforeRunEvent is emitted once when an agent starts a task.
type BeforeRunEvent struct {
	Agent string
	Task  string
}

func (BeforeRunEvent) hookEvent() {}

// AfterRunEvent is emitted once when an agent returns, successfully or not.
type AfterRunEvent struct {
	Agent  string
	Task   string
	Result string

	// Steps is the number of reasoning iterations consumed.
	Steps    int
	Degraded bool
	Duration time.Duration
	Error    error
}

func (AfterRunEvent) hookEvent() {}

// ParseFailureEvent is emitted when model output contains neither an action
// nor a finish marker.
type ParseFailureEvent struct {
	Agent    string
	Step     int
	Response string
}

func (ParseFailureEvent) hookEvent() {}

// -----------------------------------------------------------------------------
// Model Call Events
// -----------------------------------------------------------------------------

// BeforeModelCallEvent is emitted before each model call.
type BeforeModelCallEvent struct {
	// Model is the model identifier, when known.
	Model    string
	Messages []Message
}

func (BeforeModelCallEvent) hookEvent() {}

// AfterModelCallEvent is emitted after each model call completes.
type AfterModelCallEvent struct {
	Model    string
	Messages []Message
	Response string
	Duration time.Duration
	Error    error
}

func (AfterModelCallEvent) hookEvent() {}

// -----------------------------------------------------------------------------
// Tool Call Events
// -----------------------------------------------------------------------------

// BeforeToolCallEvent is emitted before each tool call.
// Hooks can modify Params to change the input.
type BeforeToolCallEvent struct {
	Tool   string
	Params map[string]any
}

func (BeforeToolCallEvent) hookEvent() {}

// AfterToolCallEvent is emitted after each tool call.
type AfterToolCallEvent struct {
	Tool     string
	Params   map[string]any
	Result   string
	IsError  bool
	Duration time.Duration
}

func (AfterToolCallEvent) hookEvent() {}

// -----------------------------------------------------------------------------
// Task Graph Events
// -----------------------------------------------------------------------------

// TaskStartEvent is emitted when a ready task is dispatched.
type TaskStartEvent struct {
	TaskID      string
	Description string
}

func (TaskStartEvent) hookEvent() {}

// TaskDoneEvent is emitted when a task reaches a terminal status.
type TaskDoneEvent struct {
	TaskID   string
	Status   string
	Result   string
	Duration time.Duration
}

func (TaskDoneEvent) hookEvent() {}

// -----------------------------------------------------------------------------
// Workflow Events
// -----------------------------------------------------------------------------

// StepStartEvent is emitted before a workflow step runs.
type StepStartEvent struct {
	Step string
	Kind string
}

func (StepStartEvent) hookEvent() {}

// StepDoneEvent is emitted after a workflow step returns.
type StepDoneEvent struct {
	Step     string
	Kind     string
	Duration time.Duration
	Error    error
}

func (StepDoneEvent) hookEvent() {}
