package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rickchristie/rungpt/schema"
	"github.com/rickchristie/rungpt/toolbox"
	"github.com/spf13/cobra"
)

type clockInput struct {
	Timezone string `json:"timezone"`
}

type clockOutput struct {
	Time    string `yaml:"time"`
	Weekday string `yaml:"weekday"`
	Zone    string `yaml:"zone"`
}

type arithmeticInput struct {
	Op string  `json:"op"`
	A  float64 `json:"a"`
	B  float64 `json:"b"`
}

type readFileInput struct {
	Path     string `json:"path"`
	MaxBytes int    `json:"max_bytes"`
}

// builtinTools returns the tools every command shares. read_file is confined
// to the working directory.
func builtinTools(now func() time.Time) *toolbox.Box {
	clock := toolbox.NewFunc("clock",
		"Current date and time, optionally in an IANA time zone",
		schema.Object(map[string]*schema.Property{
			"timezone": schema.String("IANA zone such as Europe/Oslo").Default("UTC"),
		}),
		func(ctx context.Context, in clockInput) (clockOutput, error) {
			loc := time.UTC
			if in.Timezone != "" {
				l, err := time.LoadLocation(in.Timezone)
				if err != nil {
					return clockOutput{}, fmt.Errorf("unknown time zone %q", in.Timezone)
				}
				loc = l
			}
			t := now().In(loc)
			return clockOutput{
				Time:    t.Format(time.RFC3339),
				Weekday: t.Weekday().String(),
				Zone:    loc.String(),
			}, nil
		},
	)

	arithmetic := toolbox.NewFunc("arithmetic",
		"Apply one arithmetic operation to two numbers",
		schema.Object(map[string]*schema.Property{
			"op": schema.String("operation").Enum("add", "subtract", "multiply", "divide"),
			"a":  schema.Number("left operand"),
			"b":  schema.Number("right operand"),
		}, "op", "a", "b"),
		func(ctx context.Context, in arithmeticInput) (float64, error) {
			switch in.Op {
			case "add":
				return in.A + in.B, nil
			case "subtract":
				return in.A - in.B, nil
			case "multiply":
				return in.A * in.B, nil
			case "divide":
				if in.B == 0 {
					return 0, errors.New("division by zero")
				}
				return in.A / in.B, nil
			}
			return 0, fmt.Errorf("unsupported operation %q", in.Op)
		},
	)

	wordCount := toolbox.NewSimple("word_count",
		"Count the words in a piece of text",
		func(ctx context.Context, input string) (string, error) {
			return fmt.Sprint(len(strings.Fields(input))), nil
		},
	)

	readFile := toolbox.NewFunc("read_file",
		"Read a text file below the working directory",
		schema.Object(map[string]*schema.Property{
			"path":      schema.String("relative file path").MinLength(1),
			"max_bytes": schema.Integer("read at most this many bytes").Min(1).Default(8192),
		}, "path"),
		func(ctx context.Context, in readFileInput) (string, error) {
			return readFileBelow(".", in.Path, in.MaxBytes)
		},
	)

	return toolbox.New(clock, arithmetic, wordCount, readFile)
}

func readFileBelow(dir, path string, maxBytes int) (string, error) {
	if maxBytes <= 0 {
		maxBytes = 8192
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", err
	}
	defer root.Close()

	f, err := root.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newToolsCmd(rt *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the built-in tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintln(out, rt.box.Describe())
				return nil
			}
			name := color.New(color.FgCyan, color.Bold)
			for _, info := range rt.box.List() {
				state := ""
				if !info.Enabled {
					state = color.YellowString(" (disabled)")
				}
				fmt.Fprintf(out, "%s%s  %s\n", name.Sprint(info.Name), state, info.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the catalogue the model sees, with parameter schemas")
	return cmd
}
