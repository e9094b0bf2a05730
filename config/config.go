// Package config loads rungpt settings from defaults, an optional YAML file,
// environment variables and explicit overrides, in increasing precedence.
//
// Every key can be set from the environment with the RUNGPT_ prefix and
// underscores for dots, for example RUNGPT_MODEL_PROVIDER or
// RUNGPT_AGENT_MAX_STEPS. Provider keys are also read from OPENAI_API_KEY and
// ANTHROPIC_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Providers understood by the CLI.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RUNGPT"

// Config holds all settings.
type Config struct {
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Keys     KeysConfig     `mapstructure:"keys" yaml:"keys"`
	Agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
	Plan     PlanConfig     `mapstructure:"plan" yaml:"plan"`
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// ModelConfig selects and tunes the model.
type ModelConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Name        string        `mapstructure:"name" yaml:"name"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// KeysConfig holds provider keys picked up from their usual variables.
type KeysConfig struct {
	OpenAI    string `mapstructure:"openai" yaml:"openai"`
	Anthropic string `mapstructure:"anthropic" yaml:"anthropic"`
}

// AgentConfig tunes the reasoning loop.
type AgentConfig struct {
	MaxSteps     int    `mapstructure:"max_steps" yaml:"max_steps"`
	Streaming    bool   `mapstructure:"streaming" yaml:"streaming"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
}

// PlanConfig tunes plan-and-execute runs.
type PlanConfig struct {
	// Concurrency is the number of ready subtasks run at once; 1 is sequential.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// WorkflowConfig tunes workflow steps.
type WorkflowConfig struct {
	ParallelWorkers int `mapstructure:"parallel_workers" yaml:"parallel_workers"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`

	// Transcript writes every model reply and tool result as YAML to stderr.
	Transcript bool `mapstructure:"transcript" yaml:"transcript"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// APIKey returns the explicit model key, or the provider key when none is set.
func (c *Config) APIKey() string {
	if c.Model.APIKey != "" {
		return c.Model.APIKey
	}
	switch c.Model.Provider {
	case ProviderOpenAI:
		return c.Keys.OpenAI
	case ProviderAnthropic:
		return c.Keys.Anthropic
	}
	return ""
}

// DefaultModels maps each provider to the model used when none is named.
var DefaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-sonnet-20241022",
	ProviderOllama:    "llama3.1",
}

// ModelName returns the configured model, or the provider's default.
func (c *Config) ModelName() string {
	if c.Model.Name != "" {
		return c.Model.Name
	}
	return DefaultModels[c.Model.Provider]
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("model.provider: unknown provider %q", c.Model.Provider))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Errorf("model.temperature: %v is outside [0, 2]", c.Model.Temperature))
	}
	if c.Agent.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("agent.max_steps: must be at least 1, got %d", c.Agent.MaxSteps))
	}
	if c.Plan.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("plan.concurrency: must be at least 1, got %d", c.Plan.Concurrency))
	}
	if c.Workflow.ParallelWorkers < 1 {
		errs = append(errs, fmt.Errorf("workflow.parallel_workers: must be at least 1, got %d", c.Workflow.ParallelWorkers))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", ProviderOpenAI)
	v.SetDefault("model.name", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("model.timeout", "2m")

	v.SetDefault("keys.openai", "")
	v.SetDefault("keys.anthropic", "")

	v.SetDefault("agent.max_steps", 10)
	v.SetDefault("agent.streaming", false)
	v.SetDefault("agent.system_prompt", "")

	v.SetDefault("plan.concurrency", 1)
	v.SetDefault("workflow.parallel_workers", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.transcript", false)
	v.SetDefault("metrics.addr", "")
}

// Default returns the built-in settings without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads settings. With an empty path it looks for rungpt.yaml in the
// working directory and then in the user config directory, and a missing
// file is not an error. overrides are applied last, keyed like the file
// ("agent.max_steps").
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName("rungpt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(UserConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("keys.openai", EnvPrefix+"_KEYS_OPENAI", "OPENAI_API_KEY")
	_ = v.BindEnv("keys.anthropic", EnvPrefix+"_KEYS_ANTHROPIC", "ANTHROPIC_API_KEY")

	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Model.APIKey = os.ExpandEnv(cfg.Model.APIKey)
	return cfg, nil
}

// UserConfigDir is $XDG_CONFIG_HOME/rungpt, falling back to ~/.config/rungpt.
func UserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rungpt")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "rungpt")
	}
	return filepath.Join(home, ".config", "rungpt")
}
