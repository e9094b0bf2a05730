package loggers

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rickchristie/rungpt"
	"gopkg.in/yaml.v3"
)

// TranscriptHook writes every model exchange and tool call as a YAML block
// under a timestamped header. Nothing is truncated; it is meant for reading a
// run after the fact.
type TranscriptHook struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewTranscriptHook writes to w.
func NewTranscriptHook(w io.Writer) *TranscriptHook {
	return &TranscriptHook{out: w, now: time.Now}
}

func (h *TranscriptHook) write(name string, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, "\n>>> [%s]: %s\n", name, h.now().Format("2006-01-02 15:04:05.000"))
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintf(h.out, "(failed to marshal: %v)\n", err)
		return
	}
	_, _ = h.out.Write(data)
}

func (h *TranscriptHook) OnBeforeRun(_ context.Context, e rungpt.BeforeRunEvent) {
	h.write("BeforeRun", map[string]any{"agent": e.Agent, "task": e.Task})
}

func (h *TranscriptHook) OnAfterRun(_ context.Context, e rungpt.AfterRunEvent) {
	data := map[string]any{
		"agent":    e.Agent,
		"result":   e.Result,
		"steps":    e.Steps,
		"degraded": e.Degraded,
		"duration": e.Duration.String(),
	}
	if e.Error != nil {
		data["error"] = e.Error.Error()
	}
	h.write("AfterRun", data)
}

func (h *TranscriptHook) OnAfterModelCall(_ context.Context, e rungpt.AfterModelCallEvent) {
	data := map[string]any{
		"model":    e.Model,
		"messages": e.Messages,
		"response": e.Response,
		"duration": e.Duration.String(),
	}
	if e.Error != nil {
		data["error"] = e.Error.Error()
	}
	h.write("ModelCall", data)
}

func (h *TranscriptHook) OnAfterToolCall(_ context.Context, e rungpt.AfterToolCallEvent) {
	h.write("ToolCall", map[string]any{
		"tool":     e.Tool,
		"params":   e.Params,
		"result":   e.Result,
		"is_error": e.IsError,
	})
}

func (h *TranscriptHook) OnParseFailure(_ context.Context, e rungpt.ParseFailureEvent) {
	h.write("ParseFailure", map[string]any{"step": e.Step, "response": e.Response})
}

// WriteTrace dumps a snapshot of trace as YAML.
func WriteTrace(w io.Writer, trace *rungpt.AgentTrace) error {
	if trace == nil {
		return nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(trace.Snapshot()); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return enc.Close()
}
