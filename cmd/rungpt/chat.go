package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/rickchristie/rungpt"
	"github.com/spf13/cobra"
)

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// scanReader reads plain lines when stdin is not a terminal.
type scanReader struct {
	s *bufio.Scanner
}

func (r scanReader) Readline() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r scanReader) Close() error { return nil }

func newLineReader(in io.Reader, out io.Writer) (lineReader, error) {
	if f, ok := in.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		return readline.NewEx(&readline.Config{
			Prompt:          color.New(color.FgCyan, color.Bold).Sprint("You: "),
			HistoryFile:     historyFile(),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdin:           f,
			Stdout:          out,
		})
	}
	return scanReader{s: bufio.NewScanner(in)}, nil
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "rungpt")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

func newChatCmd(rt *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with a ReAct agent that remembers the conversation",
		Long: `Starts an interactive session on one conversation thread.

Type 'exit' or 'quit' to leave, '/reset' to start a new thread and
'/tools' to list the tools the agent can use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			agent, err := rt.newAgent("assistant", out)
			if err != nil {
				return err
			}
			rl, err := newLineReader(cmd.InOrStdin(), out)
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			dim := color.New(color.Faint)
			dim.Fprintf(out, "Chatting with %s. Type 'exit' to end the chat.\n", rt.cfg.ModelName())

			thread := rungpt.NewThread()
			for {
				input, err := rl.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						fmt.Fprintln(out, color.YellowString("Chat ended."))
						return nil
					}
					return fmt.Errorf("failed to read input: %w", err)
				}

				input = strings.TrimSpace(input)
				switch input {
				case "":
					continue
				case "exit", "quit":
					fmt.Fprintln(out, color.GreenString("Goodbye!"))
					return nil
				case "/reset":
					thread = rungpt.NewThread()
					dim.Fprintln(out, "Started a new conversation.")
					continue
				case "/tools":
					fmt.Fprintln(out, rt.box.Describe())
					continue
				}

				if err := cmd.Context().Err(); err != nil {
					fmt.Fprintln(out, color.YellowString("Chat cancelled."))
					return err
				}

				ctx, cancel := rt.withTimeout(cmd.Context())
				answer, err := agent.Run(ctx, input, thread)
				cancel()
				if rt.cfg.Agent.Streaming {
					fmt.Fprintln(out)
				}
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), color.RedString("Error processing message: %v", err))
					continue
				}
				fmt.Fprintf(out, "%s %s\n", color.New(color.FgMagenta, color.Bold).Sprint("Agent:"), answer)
			}
		},
	}
}
