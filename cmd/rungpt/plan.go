package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rickchristie/rungpt/planexec"
	"github.com/rickchristie/rungpt/taskgraph"
	"github.com/spf13/cobra"
)

// subtaskAgents executes every subtask on a new agent so concurrent subtasks
// never share a trace.
type subtaskAgents struct {
	rt  *app
	out io.Writer
}

func (s subtaskAgents) Execute(ctx context.Context, prompt string) (string, error) {
	agent, err := s.rt.newAgent("executor", s.out)
	if err != nil {
		return "", err
	}
	return agent.Run(ctx, prompt, nil)
}

func newPlanCmd(rt *app) *cobra.Command {
	var showResults bool
	cmd := &cobra.Command{
		Use:   "plan <goal>",
		Short: "Plan a goal as dependent subtasks, run them and summarize",
		Example: `  rungpt plan "Compare the word counts of README.md and DESIGN.md"
  rungpt plan --concurrency 3 --results "Draft a three-day Oslo itinerary"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			planner, err := rt.newAgent("planner", out)
			if err != nil {
				return err
			}
			lead := planexec.AgentCapability{Agent: planner}
			orchestrator := planexec.New(lead, subtaskAgents{rt: rt, out: out}, lead).
				WithConcurrency(rt.cfg.Plan.Concurrency).
				WithHooks(rt.registry)

			ctx, cancel := rt.withTimeout(cmd.Context())
			defer cancel()

			outcome, err := orchestrator.Run(ctx, strings.Join(args, " "))
			if rt.cfg.Agent.Streaming {
				fmt.Fprintln(out)
			}
			if err != nil {
				return err
			}
			printPlan(out, outcome.Graph, showResults)
			printAnswer(out, outcome.Answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showResults, "results", false, "print each subtask result")
	return cmd
}

func printPlan(w io.Writer, g *taskgraph.Graph, withResults bool) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint("Plan:"))
	for _, t := range g.Tasks() {
		var mark string
		switch t.Status {
		case taskgraph.StatusCompleted:
			mark = color.GreenString("done")
		case taskgraph.StatusFailed:
			mark = color.RedString("failed")
		default:
			mark = color.YellowString("blocked")
		}
		deps := ""
		if len(t.Dependencies) > 0 {
			deps = color.HiBlackString(" (after %s)", strings.Join(t.Dependencies, ", "))
		}
		fmt.Fprintf(w, "  [%s] %s: %s%s\n", mark, t.ID, t.Description, deps)
		if withResults && t.Result != "" {
			fmt.Fprintf(w, "      %s\n", strings.ReplaceAll(t.Result, "\n", "\n      "))
		}
	}
}
