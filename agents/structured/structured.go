// Package structured turns an agent's final answer into a typed Go value.
//
// The expected shape is a JSON Schema. [Output.FormatInstruction] tells the
// model to answer with a matching JSON block; [Output.Parse] reads the block
// back, checks it against the schema and decodes it into T.
//
//	type Report struct {
//	    City        string  `json:"city"`
//	    Temperature float64 `json:"temperature"`
//	}
//
//	out := structured.MustNew[Report](schema.Object(map[string]*schema.Property{
//	    "city":        schema.String("City name"),
//	    "temperature": schema.Number("Degrees Celsius"),
//	}, "city", "temperature"))
//
//	report, err := structured.Run(ctx, agent, out, "Weather in Oslo?", nil)
package structured

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/parser"
	"github.com/rickchristie/rungpt/schema"
	"github.com/rickchristie/rungpt/toolbox"
)

// ErrInvalidOutput is wrapped by every Parse failure.
var ErrInvalidOutput = errors.New("structured: reply does not match the output schema")

// Output binds a JSON object schema to the Go type T it decodes into.
// Decoding follows T's json tags.
type Output[T any] struct {
	schema *schema.Schema
}

// New compiles raw, which must describe a JSON object.
func New[T any](raw map[string]any) (*Output[T], error) {
	if raw == nil {
		return nil, errors.New("structured: schema is required")
	}
	s, err := schema.Compile(raw)
	if err != nil {
		return nil, err
	}
	return &Output[T]{schema: s}, nil
}

// MustNew is New for outputs declared at init time. It panics on error.
func MustNew[T any](raw map[string]any) *Output[T] {
	o, err := New[T](raw)
	if err != nil {
		panic(err)
	}
	return o
}

// Schema returns the compiled schema.
func (o *Output[T]) Schema() *schema.Schema {
	return o.schema
}

// FormatInstruction is appended to a task so the model answers with JSON
// matching the schema.
func (o *Output[T]) FormatInstruction() string {
	doc, _ := json.MarshalIndent(o.schema.Raw(), "", "  ")
	return "Respond with JSON that matches this JSON Schema:\n" +
		"```json\n" + string(doc) + "\n```\n" +
		"Output only the JSON code block, with no other text."
}

// Parse reads a reply into T. The JSON is taken from the first fenced block,
// otherwise the whole trimmed reply, otherwise the outermost {...} span.
// Damaged JSON gets one retry through [parser.RepairJSON]. String scalars are
// coerced to the declared types before validation.
func (o *Output[T]) Parse(reply string) (T, error) {
	var out T

	doc, err := decode(extract(reply))
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	doc = o.schema.Coerce(doc)
	if err := o.schema.Validate(doc); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	if err := toolbox.Decode(doc, &out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return out, nil
}

// Run asks agent to perform task with the format instruction appended and
// parses the answer.
func Run[T any](ctx context.Context, agent rungpt.Agent, o *Output[T], task string, thread *rungpt.Thread) (T, error) {
	var zero T
	answer, err := agent.Run(ctx, task+"\n\n"+o.FormatInstruction(), thread)
	if err != nil {
		return zero, err
	}
	return o.Parse(answer)
}

func extract(reply string) string {
	if body, _, ok := parser.FencedBlock(reply); ok {
		return strings.TrimSpace(body)
	}
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "{") {
		return text
	}
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func decode(text string) (map[string]any, error) {
	var doc map[string]any
	err := json.Unmarshal([]byte(text), &doc)
	if err == nil {
		return doc, nil
	}
	var repaired map[string]any
	if json.Unmarshal([]byte(parser.RepairJSON(text)), &repaired) == nil {
		return repaired, nil
	}
	return nil, err
}
