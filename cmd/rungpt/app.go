package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/agents/react"
	"github.com/rickchristie/rungpt/config"
	"github.com/rickchristie/rungpt/hooks"
	"github.com/rickchristie/rungpt/loggers"
	"github.com/rickchristie/rungpt/metrics"
	"github.com/rickchristie/rungpt/models"
	"github.com/rickchristie/rungpt/toolbox"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DefaultOllamaURL is the OpenAI-compatible endpoint of a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434/v1"

// ModelFactory builds the model for cfg. onUsage receives token usage after
// every call.
type ModelFactory func(cfg *config.Config, onUsage func(models.Usage)) (rungpt.Model, error)

func defaultModelFactory(cfg *config.Config, onUsage func(models.Usage)) (rungpt.Model, error) {
	name := cfg.ModelName()
	key := cfg.APIKey()

	switch cfg.Model.Provider {
	case config.ProviderAnthropic:
		m := models.NewAnthropic(func(o *models.AnthropicOptions) {
			o.Model = anthropic.Model(name)
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = int64(cfg.Model.MaxTokens)
			o.APIKey = key
			o.BaseURL = cfg.Model.BaseURL
		})
		return m.WithUsageFunc(onUsage), nil

	case config.ProviderOpenAI, config.ProviderOllama:
		baseURL := cfg.Model.BaseURL
		if cfg.Model.Provider == config.ProviderOllama {
			if baseURL == "" {
				baseURL = DefaultOllamaURL
			}
			if key == "" {
				// Ollama ignores the key, but the client refuses to start without one.
				key = "ollama"
			}
		}
		if key == "" {
			return nil, fmt.Errorf("no API key for %s: set OPENAI_API_KEY or model.api_key", cfg.Model.Provider)
		}

		opts := []openai.Option{
			openai.WithToken(key),
			openai.WithModel(name),
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating %s client: %w", cfg.Model.Provider, err)
		}

		callOpts := []llms.CallOption{llms.WithTemperature(cfg.Model.Temperature)}
		if cfg.Model.MaxTokens > 0 {
			callOpts = append(callOpts, llms.WithMaxTokens(cfg.Model.MaxTokens))
		}
		return models.NewLCG(llm).
			WithName(name).
			WithOptions(callOpts...).
			WithUsageFunc(onUsage), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Model.Provider)
}

// app is everything a subcommand needs, built once from the loaded config.
type app struct {
	factory ModelFactory

	cfg      *config.Config
	logger   *slog.Logger
	registry *hooks.Registry
	metrics  *metrics.Hook
	box      *toolbox.Box
	model    rungpt.Model
	server   *http.Server
}

func (rt *app) setup(cfg *config.Config, stderr io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config:\n%w", err)
	}
	rt.cfg = cfg
	rt.logger = loggers.NewLogger(loggers.ParseLevel(cfg.Log.Level), cfg.Log.Format, stderr)

	reg := prometheus.NewRegistry()
	rt.metrics = metrics.New(reg)
	rt.registry = hooks.NewRegistry().
		Register(loggers.NewSlogHook(rt.logger)).
		Register(rt.metrics)
	if cfg.Log.Transcript {
		rt.registry.Register(loggers.NewTranscriptHook(stderr))
	}

	rt.box = builtinTools(time.Now)

	if cfg.Metrics.Addr != "" {
		rt.serveMetrics(reg)
	}
	return nil
}

// Model builds the configured model on first use, so commands that never
// talk to a provider work without credentials.
func (rt *app) Model() (rungpt.Model, error) {
	if rt.model != nil {
		return rt.model, nil
	}
	m, err := rt.factory(rt.cfg, rt.metrics.ObserveUsage)
	if err != nil {
		return nil, err
	}
	rt.model = m
	rt.logger.Debug("model ready", "provider", rt.cfg.Model.Provider, "model", rt.cfg.ModelName())
	return m, nil
}

func (rt *app) newAgent(name string, out io.Writer) (*react.Agent, error) {
	model, err := rt.Model()
	if err != nil {
		return nil, err
	}
	agent := react.NewAgent(model, rt.box).
		WithName(name).
		WithMaxSteps(rt.cfg.Agent.MaxSteps).
		WithSystemPrompt(rt.cfg.Agent.SystemPrompt).
		WithHooks(rt.registry)
	if rt.cfg.Agent.Streaming {
		dim := color.New(color.Faint)
		agent.WithStreaming(true).WithOnChunk(func(chunk string) {
			dim.Fprint(out, chunk)
		})
	}
	return agent, nil
}

// withTimeout bounds one command (or one chat turn) by model.timeout.
func (rt *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if rt.cfg.Model.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, rt.cfg.Model.Timeout)
}

func (rt *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	rt.server = &http.Server{
		Addr:              rt.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		rt.logger.Info("serving metrics", "addr", rt.cfg.Metrics.Addr)
		if err := rt.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("metrics server stopped", "error", err)
		}
	}()
}

func (rt *app) close() error {
	if rt.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rt.server.Shutdown(ctx)
}
