package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rickchristie/rungpt/config"
	"github.com/spf13/cobra"
)

// flags collects the persistent flags. Only flags the user actually set are
// passed on as config overrides.
type flags struct {
	configFile  string
	provider    string
	model       string
	baseURL     string
	maxSteps    int
	stream      bool
	concurrency int
	logLevel    string
	metricsAddr string
	transcript  bool
}

func newRootCmd(factory ModelFactory) *cobra.Command {
	f := &flags{}
	rt := &app{factory: factory}

	root := &cobra.Command{
		Use:   "rungpt",
		Short: "Run language model agents from the command line",
		Long: `rungpt drives a language model through tool-using agents.

  run    answers a task with a ReAct agent (Thought / Action / Observation)
  plan   splits a goal into dependent subtasks, runs them and summarizes
  chat   keeps one conversation thread across prompts
  write  runs the research, critique and draft workflow on a topic
  tools  lists the built-in tools

Settings come from rungpt.yaml, RUNGPT_* environment variables and flags,
in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configFile, f.overrides(cmd))
			if err != nil {
				return err
			}
			return rt.setup(cfg, cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "config file (default ./rungpt.yaml, then the user config dir)")
	pf.StringVar(&f.provider, "provider", "", "model provider: openai, anthropic or ollama")
	pf.StringVar(&f.model, "model", "", "model name")
	pf.StringVar(&f.baseURL, "base-url", "", "override the provider endpoint")
	pf.IntVar(&f.maxSteps, "max-steps", 0, "reasoning steps before the agent is asked to finish")
	pf.BoolVar(&f.stream, "stream", false, "print model output as it arrives")
	pf.IntVar(&f.concurrency, "concurrency", 0, "subtasks run at once by plan")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.BoolVarP(&f.transcript, "transcript", "t", false, "write a YAML transcript of model and tool traffic to stderr")

	root.AddCommand(newRunCmd(rt))
	root.AddCommand(newPlanCmd(rt))
	root.AddCommand(newChatCmd(rt))
	root.AddCommand(newWriteCmd(rt))
	root.AddCommand(newToolsCmd(rt))
	return root
}

func (f *flags) overrides(cmd *cobra.Command) map[string]any {
	changed := cmd.Flags().Changed
	out := map[string]any{}
	if changed("provider") {
		out["model.provider"] = f.provider
	}
	if changed("model") {
		out["model.name"] = f.model
	}
	if changed("base-url") {
		out["model.base_url"] = f.baseURL
	}
	if changed("max-steps") {
		out["agent.max_steps"] = f.maxSteps
	}
	if changed("stream") {
		out["agent.streaming"] = f.stream
	}
	if changed("concurrency") {
		out["plan.concurrency"] = f.concurrency
	}
	if changed("log-level") {
		out["log.level"] = f.logLevel
	}
	if changed("metrics-addr") {
		out["metrics.addr"] = f.metricsAddr
	}
	if changed("transcript") {
		out["log.transcript"] = f.transcript
	}
	return out
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultModelFactory).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		stop()
		os.Exit(1)
	}
}
