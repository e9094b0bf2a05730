package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/workflow"
	"github.com/spf13/cobra"
)

const (
	keyStyle    = "style"
	keyFacts    = "facts"
	keyOutline  = "outline"
	keyCritique = "critique"
	keyWords    = "words"
)

// writingWorkflow researches the topic under "task", outlines and critiques
// the findings in parallel, then drafts prose or bullets depending on
// "style". Every agent step gets its own agent.
func writingWorkflow(newAgent func(name string) (rungpt.Agent, error), workers int) (workflow.Step, error) {
	agents := map[string]rungpt.Agent{}
	for _, name := range []string{"researcher", "outliner", "critic", "writer"} {
		a, err := newAgent(name)
		if err != nil {
			return nil, err
		}
		agents[name] = a
	}

	research := workflow.NewAgentStep("research", agents["researcher"]).
		WithTemplate("List the key facts someone needs to write about: {task}").
		WithOutputKey(keyFacts)

	outline := workflow.NewAgentStep("outline", agents["outliner"]).
		WithTemplate("Write a short outline for a piece about {task} based on these facts:\n{facts}").
		WithOutputKey(keyOutline)
	critique := workflow.NewAgentStep("critique", agents["critic"]).
		WithTemplate("Point out gaps or doubtful claims in these facts about {task}:\n{facts}").
		WithOutputKey(keyCritique)
	review := workflow.NewParallel("review", workers, outline, critique)

	prose := workflow.NewAgentStep("draft_prose", agents["writer"]).
		WithTemplate("Write a few paragraphs about {task}.\nOutline:\n{outline}\nAddress these concerns:\n{critique}")
	bullets := workflow.NewAgentStep("draft_bullets", agents["writer"]).
		WithTemplate("Summarize {task} as a bullet list.\nOutline:\n{outline}\nAddress these concerns:\n{critique}")
	draft := workflow.NewRouter("draft", []workflow.Route{
		workflow.When(func(wc *workflow.Context) bool {
			style, _ := wc.GetString(keyStyle)
			return style == "bullets"
		}, bullets),
	}, prose)

	count := workflow.NewFunctionStep("count_words", func(ctx context.Context, wc *workflow.Context) (any, error) {
		text, _ := wc.GetString(workflow.KeyResult)
		n := len(strings.Fields(text))
		wc.Set(keyWords, n)
		return n, nil
	})

	return workflow.NewPipeline("write", research, review, draft, count), nil
}

func newWriteCmd(rt *app) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "write <topic>",
		Short: "Research, critique and draft a short piece on a topic",
		Example: `  rungpt write "the history of the Oslo metro"
  rungpt write --style bullets "why Go uses explicit errors"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if style != "prose" && style != "bullets" {
				return fmt.Errorf("--style must be prose or bullets, got %q", style)
			}

			step, err := writingWorkflow(func(name string) (rungpt.Agent, error) {
				return rt.newAgent(name, out)
			}, rt.cfg.Workflow.ParallelWorkers)
			if err != nil {
				return err
			}

			ctx, cancel := rt.withTimeout(cmd.Context())
			defer cancel()
			ctx = workflow.WithHooks(ctx, rt.registry)

			wc := workflow.NewContext(map[string]any{
				workflow.KeyTask: strings.Join(args, " "),
				keyStyle:         style,
			})
			if _, err := workflow.Execute(ctx, step, wc); err != nil {
				return err
			}

			result, _ := wc.GetString(workflow.KeyResult)
			words, _ := wc.GetString(keyWords)
			fmt.Fprintln(out, result)
			color.New(color.Faint).Fprintf(out, "(%s words)\n", words)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "prose", "prose or bullets")
	return cmd
}
