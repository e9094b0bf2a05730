// Package metrics exports agent, model, tool, task and workflow activity as
// Prometheus metrics through a hook.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	registry := hooks.NewRegistry().Register(m)
//	model := models.NewLCG(llm).WithUsageFunc(m.ObserveUsage)
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/models"
)

const namespace = "rungpt"

// Hook records metrics for every event it receives.
type Hook struct {
	runsTotal     *prometheus.CounterVec
	runSteps      *prometheus.HistogramVec
	modelCalls    *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
	tokensTotal   *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	tasksTotal    *prometheus.CounterVec
	stepsTotal    *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
}

// New registers the metrics with reg. A nil reg uses the default registerer.
// Registering twice on the same registerer panics, as with promauto.
func New(reg prometheus.Registerer) *Hook {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Hook{
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_runs_total",
			Help:      "Agent runs by agent and outcome (success, degraded, error).",
		}, []string{"agent", "status"}),
		runSteps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_run_steps",
			Help:      "Reasoning steps consumed per agent run.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}, []string{"agent"}),
		modelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Model calls by model and status.",
		}, []string{"model", "status"}),
		modelDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Duration of model calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"model"}),
		tokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Tokens used by model and direction (input, output).",
		}, []string{"model", "type"}),
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool and status.",
		}, []string{"tool", "status"}),
		parseFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Model responses that carried no action.",
		}, []string{"agent"}),
		tasksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Task graph tasks by terminal status.",
		}, []string{"status"}),
		stepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_steps_total",
			Help:      "Workflow steps by kind and status.",
		}, []string{"kind", "status"}),
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_step_duration_seconds",
			Help:      "Duration of workflow steps in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (h *Hook) OnAfterRun(_ context.Context, e rungpt.AfterRunEvent) {
	s := status(e.Error)
	if e.Error == nil && e.Degraded {
		s = "degraded"
	}
	h.runsTotal.WithLabelValues(e.Agent, s).Inc()
	h.runSteps.WithLabelValues(e.Agent).Observe(float64(e.Steps))
}

func (h *Hook) OnAfterModelCall(_ context.Context, e rungpt.AfterModelCallEvent) {
	h.modelCalls.WithLabelValues(e.Model, status(e.Error)).Inc()
	h.modelDuration.WithLabelValues(e.Model).Observe(e.Duration.Seconds())
}

func (h *Hook) OnAfterToolCall(_ context.Context, e rungpt.AfterToolCallEvent) {
	s := "success"
	if e.IsError {
		s = "error"
	}
	h.toolCalls.WithLabelValues(e.Tool, s).Inc()
}

func (h *Hook) OnParseFailure(_ context.Context, e rungpt.ParseFailureEvent) {
	h.parseFailures.WithLabelValues(e.Agent).Inc()
}

func (h *Hook) OnTaskDone(_ context.Context, e rungpt.TaskDoneEvent) {
	h.tasksTotal.WithLabelValues(e.Status).Inc()
}

func (h *Hook) OnStepDone(_ context.Context, e rungpt.StepDoneEvent) {
	h.stepsTotal.WithLabelValues(e.Kind, status(e.Error)).Inc()
	h.stepDuration.WithLabelValues(e.Kind).Observe(e.Duration.Seconds())
}

// ObserveUsage counts tokens. It matches the usage callbacks of the models package.
func (h *Hook) ObserveUsage(u models.Usage) {
	h.tokensTotal.WithLabelValues(u.Model, "input").Add(float64(u.InputTokens))
	h.tokensTotal.WithLabelValues(u.Model, "output").Add(float64(u.OutputTokens))
}

var (
	_ rungpt.AfterRunHook       = (*Hook)(nil)
	_ rungpt.AfterModelCallHook = (*Hook)(nil)
	_ rungpt.AfterToolCallHook  = (*Hook)(nil)
	_ rungpt.ParseFailureHook   = (*Hook)(nil)
	_ rungpt.TaskDoneHook       = (*Hook)(nil)
	_ rungpt.StepDoneHook       = (*Hook)(nil)
)
