package rungpt

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Agent Trace
// -----------------------------------------------------------------------------

// TraceStatus is the lifecycle state of an [AgentTrace].
type TraceStatus string

const (
	TraceRunning TraceStatus = "running"
	TraceSuccess TraceStatus = "success"
	TraceError   TraceStatus = "error"
)

// Trace event types recorded by the built-in agents.
const (
	EventPreRun        = "pre_run"
	EventModelCall     = "model_call"
	EventModelResponse = "model_response"
	EventToolCall      = "tool_call"
	EventParseFailure  = "parse_failure"
	EventForceFinish   = "force_finish"
	EventPostRun       = "post_run"
)

// TraceEvent is one entry of an [AgentTrace].
type TraceEvent struct {
	Type      string         `json:"type" yaml:"type"`
	Data      map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}

// AgentTrace records what an agent did during a single Run.
type AgentTrace struct {
	mu sync.Mutex

	ID        string        `json:"id" yaml:"id"`
	AgentName string        `json:"agent_name" yaml:"agent_name"`
	Task      string        `json:"task" yaml:"task"`
	Steps     []TraceEvent  `json:"steps" yaml:"steps"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Status    TraceStatus   `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// NewAgentTrace starts a trace in the running state.
func NewAgentTrace(agentName, task string) *AgentTrace {
	return &AgentTrace{
		ID:        uuid.NewString(),
		AgentName: agentName,
		Task:      task,
		StartTime: time.Now(),
		Status:    TraceRunning,
	}
}

// Add appends an event. Safe to call on a nil trace.
func (t *AgentTrace) Add(eventType string, data map[string]any) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Steps = append(t.Steps, TraceEvent{Type: eventType, Data: data, Timestamp: time.Now()})
}

// Finish closes the trace. A non-nil err sets the error status.
func (t *AgentTrace) Finish(err error) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.EndTime = time.Now()
	t.Duration = t.EndTime.Sub(t.StartTime)
	if err != nil {
		t.Status = TraceError
		t.Error = err.Error()
		return
	}
	t.Status = TraceSuccess
}

// Snapshot returns a copy that is safe to read while the agent keeps running.
func (t *AgentTrace) Snapshot() *AgentTrace {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	steps := make([]TraceEvent, len(t.Steps))
	copy(steps, t.Steps)
	return &AgentTrace{
		ID:        t.ID,
		AgentName: t.AgentName,
		Task:      t.Task,
		Steps:     steps,
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
		Status:    t.Status,
		Error:     t.Error,
		Duration:  t.Duration,
	}
}

// Count returns how many events of eventType were recorded.
func (t *AgentTrace) Count(eventType string) int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.Steps {
		if s.Type == eventType {
			n++
		}
	}
	return n
}

// Preview truncates s to at most n runes, for trace payloads.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
