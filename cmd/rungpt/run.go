package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rickchristie/rungpt/loggers"
	"github.com/spf13/cobra"
)

func newRunCmd(rt *app) *cobra.Command {
	var showTrace bool
	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Answer a task with a ReAct agent",
		Example: `  rungpt run "What weekday is it in Tokyo?"
  rungpt run --trace --max-steps 4 "How many words are in README.md?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			agent, err := rt.newAgent("react", out)
			if err != nil {
				return err
			}

			ctx, cancel := rt.withTimeout(cmd.Context())
			defer cancel()

			answer, err := agent.Run(ctx, strings.Join(args, " "), nil)
			if rt.cfg.Agent.Streaming {
				fmt.Fprintln(out)
			}
			if err != nil {
				return err
			}
			printAnswer(out, answer)

			if showTrace {
				return loggers.WriteTrace(cmd.ErrOrStderr(), agent.Trace())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the run trace as YAML to stderr")
	return cmd
}

func printAnswer(w io.Writer, answer string) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("Answer:"), answer)
}
