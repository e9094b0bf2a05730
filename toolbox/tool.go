package toolbox

import (
	"context"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Tool is a named capability the model can invoke.
type Tool interface {
	Name() string
	Description() string

	// ParameterSchema is a JSON Schema object for the parameters, or nil.
	ParameterSchema() map[string]any

	// Call runs the tool. The result is rendered as text for the model.
	Call(ctx context.Context, params map[string]any) (any, error)
}

// Func adapts a typed function into a Tool. Parameters are decoded into I
// using its json tags; string values are converted to numbers, booleans and
// times (RFC 3339) where the field type asks for it.
type Func[I, O any] struct {
	name        string
	description string
	schema      map[string]any
	fn          func(ctx context.Context, input I) (O, error)
}

// NewFunc creates a typed tool.
func NewFunc[I, O any](
	name, description string,
	schema map[string]any,
	fn func(ctx context.Context, input I) (O, error),
) *Func[I, O] {
	return &Func[I, O]{name: name, description: description, schema: schema, fn: fn}
}

func (f *Func[I, O]) Name() string                    { return f.name }
func (f *Func[I, O]) Description() string             { return f.description }
func (f *Func[I, O]) ParameterSchema() map[string]any { return f.schema }

// Call decodes params into I and invokes the function.
func (f *Func[I, O]) Call(ctx context.Context, params map[string]any) (any, error) {
	var input I
	if err := Decode(params, &input); err != nil {
		return nil, err
	}
	return f.fn(ctx, input)
}

// Decode copies params into out, which must be a pointer.
func Decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return nil
}

// Simple wraps a function taking one text argument. Whatever the model passes
// is read from the "input" parameter, or from the only parameter when there
// is exactly one.
type Simple struct {
	name        string
	description string
	fn          func(ctx context.Context, input string) (string, error)
}

// NewSimple creates a single-argument text tool.
func NewSimple(name, description string, fn func(ctx context.Context, input string) (string, error)) *Simple {
	return &Simple{name: name, description: description, fn: fn}
}

func (s *Simple) Name() string        { return s.name }
func (s *Simple) Description() string { return s.description }

func (s *Simple) ParameterSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{"type": "string", "description": s.description},
		},
	}
}

func (s *Simple) Call(ctx context.Context, params map[string]any) (any, error) {
	v, ok := params["input"]
	if !ok && len(params) == 1 {
		for _, only := range params {
			v = only
		}
	}
	if v == nil {
		v = ""
	}
	return s.fn(ctx, fmt.Sprint(v))
}
