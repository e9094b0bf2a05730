// Package loggers contains hooks that report agent, task and workflow
// activity to a structured logger or as readable YAML.
//
//	logger := loggers.NewLogger(slog.LevelInfo, "json", os.Stderr)
//	registry := hooks.NewRegistry().Register(loggers.NewSlogHook(logger))
//	agent := react.NewAgent(model, box).WithHooks(registry)
package loggers

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/rickchristie/rungpt"
)

// PreviewLength bounds the response and result text copied into log records.
const PreviewLength = 120

// NewLogger builds a slog.Logger writing text or JSON ("json") records to w.
func NewLogger(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps debug, info, warn and error to a slog level. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogHook implements every hook interface and logs each event as one record.
// Model traffic and workflow steps are logged at debug level, parse failures
// at warn, everything else at info unless it carries an error.
type SlogHook struct {
	logger *slog.Logger
}

// NewSlogHook creates a hook. A nil logger uses slog.Default().
func NewSlogHook(logger *slog.Logger) *SlogHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHook{logger: logger}
}

func (h *SlogHook) OnBeforeRun(ctx context.Context, e rungpt.BeforeRunEvent) {
	h.logger.InfoContext(ctx, "agent run started",
		slog.String("agent", e.Agent),
		slog.String("task", rungpt.Preview(e.Task, PreviewLength)))
}

func (h *SlogHook) OnAfterRun(ctx context.Context, e rungpt.AfterRunEvent) {
	attrs := []any{
		slog.String("agent", e.Agent),
		slog.Int("steps", e.Steps),
		slog.Bool("degraded", e.Degraded),
		slog.Duration("duration", e.Duration),
	}
	if e.Error != nil {
		h.logger.ErrorContext(ctx, "agent run failed", append(attrs, slog.Any("error", e.Error))...)
		return
	}
	h.logger.InfoContext(ctx, "agent run finished",
		append(attrs, slog.String("result", rungpt.Preview(e.Result, PreviewLength)))...)
}

func (h *SlogHook) OnParseFailure(ctx context.Context, e rungpt.ParseFailureEvent) {
	h.logger.WarnContext(ctx, "no action in model response",
		slog.String("agent", e.Agent),
		slog.Int("step", e.Step),
		slog.String("response", rungpt.Preview(e.Response, PreviewLength)))
}

func (h *SlogHook) OnBeforeModelCall(ctx context.Context, e rungpt.BeforeModelCallEvent) {
	h.logger.DebugContext(ctx, "model call",
		slog.String("model", e.Model),
		slog.Int("messages", len(e.Messages)))
}

func (h *SlogHook) OnAfterModelCall(ctx context.Context, e rungpt.AfterModelCallEvent) {
	if e.Error != nil {
		h.logger.ErrorContext(ctx, "model call failed",
			slog.String("model", e.Model),
			slog.Duration("duration", e.Duration),
			slog.Any("error", e.Error))
		return
	}
	h.logger.DebugContext(ctx, "model response",
		slog.String("model", e.Model),
		slog.Duration("duration", e.Duration),
		slog.String("response", rungpt.Preview(e.Response, PreviewLength)))
}

func (h *SlogHook) OnBeforeToolCall(ctx context.Context, e *rungpt.BeforeToolCallEvent) {
	h.logger.DebugContext(ctx, "tool call",
		slog.String("tool", e.Tool),
		slog.Any("params", e.Params))
}

func (h *SlogHook) OnAfterToolCall(ctx context.Context, e rungpt.AfterToolCallEvent) {
	level := slog.LevelInfo
	if e.IsError {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "tool result",
		slog.String("tool", e.Tool),
		slog.Bool("error", e.IsError),
		slog.Duration("duration", e.Duration),
		slog.String("result", rungpt.Preview(e.Result, PreviewLength)))
}

func (h *SlogHook) OnTaskStart(ctx context.Context, e rungpt.TaskStartEvent) {
	h.logger.InfoContext(ctx, "task started",
		slog.String("task_id", e.TaskID),
		slog.String("description", rungpt.Preview(e.Description, PreviewLength)))
}

func (h *SlogHook) OnTaskDone(ctx context.Context, e rungpt.TaskDoneEvent) {
	h.logger.InfoContext(ctx, "task done",
		slog.String("task_id", e.TaskID),
		slog.String("status", e.Status),
		slog.Duration("duration", e.Duration))
}

func (h *SlogHook) OnStepStart(ctx context.Context, e rungpt.StepStartEvent) {
	h.logger.DebugContext(ctx, "step started", slog.String("step", e.Step), slog.String("kind", e.Kind))
}

func (h *SlogHook) OnStepDone(ctx context.Context, e rungpt.StepDoneEvent) {
	if e.Error != nil {
		h.logger.ErrorContext(ctx, "step failed",
			slog.String("step", e.Step),
			slog.String("kind", e.Kind),
			slog.Any("error", e.Error))
		return
	}
	h.logger.DebugContext(ctx, "step done",
		slog.String("step", e.Step),
		slog.String("kind", e.Kind),
		slog.Duration("duration", e.Duration))
}

var (
	_ rungpt.BeforeRunHook       = (*SlogHook)(nil)
	_ rungpt.AfterRunHook        = (*SlogHook)(nil)
	_ rungpt.ParseFailureHook    = (*SlogHook)(nil)
	_ rungpt.BeforeModelCallHook = (*SlogHook)(nil)
	_ rungpt.AfterModelCallHook  = (*SlogHook)(nil)
	_ rungpt.BeforeToolCallHook  = (*SlogHook)(nil)
	_ rungpt.AfterToolCallHook   = (*SlogHook)(nil)
	_ rungpt.TaskStartHook       = (*SlogHook)(nil)
	_ rungpt.TaskDoneHook        = (*SlogHook)(nil)
	_ rungpt.StepStartHook       = (*SlogHook)(nil)
	_ rungpt.StepDoneHook        = (*SlogHook)(nil)
)
