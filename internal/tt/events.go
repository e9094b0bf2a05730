// Package tt provides test helpers shared by the rungpt packages.
package tt

import (
	"context"
	"fmt"
	"sync"

	"github.com/rickchristie/rungpt"
)

// -----------------------------------------------------------------------------
// RecordingHook
// -----------------------------------------------------------------------------

// RecordingHook implements every hook interface and records a short label per
// event, such as "before_tool:search" or "task_done:task_1:completed".
type RecordingHook struct {
	mu     sync.Mutex
	events []string
}

// NewRecordingHook creates an empty recorder.
func NewRecordingHook() *RecordingHook {
	return &RecordingHook{}
}

// Events returns the labels recorded so far.
func (h *RecordingHook) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	copy(out, h.events)
	return out
}

// Count returns how many labels equal label.
func (h *RecordingHook) Count(label string) int {
	n := 0
	for _, e := range h.Events() {
		if e == label {
			n++
		}
	}
	return n
}

func (h *RecordingHook) record(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, fmt.Sprintf(format, args...))
}

func (h *RecordingHook) OnBeforeRun(_ context.Context, e rungpt.BeforeRunEvent) {
	h.record("before_run:%s", e.Agent)
}

func (h *RecordingHook) OnAfterRun(_ context.Context, e rungpt.AfterRunEvent) {
	h.record("after_run:%s", e.Agent)
}

func (h *RecordingHook) OnParseFailure(_ context.Context, e rungpt.ParseFailureEvent) {
	h.record("parse_failure:%d", e.Step)
}

func (h *RecordingHook) OnBeforeModelCall(_ context.Context, _ rungpt.BeforeModelCallEvent) {
	h.record("before_model")
}

func (h *RecordingHook) OnAfterModelCall(_ context.Context, _ rungpt.AfterModelCallEvent) {
	h.record("after_model")
}

func (h *RecordingHook) OnBeforeToolCall(_ context.Context, e *rungpt.BeforeToolCallEvent) {
	h.record("before_tool:%s", e.Tool)
}

func (h *RecordingHook) OnAfterToolCall(_ context.Context, e rungpt.AfterToolCallEvent) {
	h.record("after_tool:%s", e.Tool)
}

func (h *RecordingHook) OnTaskStart(_ context.Context, e rungpt.TaskStartEvent) {
	h.record("task_start:%s", e.TaskID)
}

func (h *RecordingHook) OnTaskDone(_ context.Context, e rungpt.TaskDoneEvent) {
	h.record("task_done:%s:%s", e.TaskID, e.Status)
}

func (h *RecordingHook) OnStepStart(_ context.Context, e rungpt.StepStartEvent) {
	h.record("step_start:%s", e.Step)
}

func (h *RecordingHook) OnStepDone(_ context.Context, e rungpt.StepDoneEvent) {
	h.record("step_done:%s", e.Step)
}
