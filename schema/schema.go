// Package schema builds, compiles and checks the JSON Schemas that describe
// tool parameters.
//
//	params := schema.Object(map[string]*schema.Property{
//	    "city": schema.String("City name"),
//	    "days": schema.Integer("Forecast length").Min(1).Max(14).Default(3),
//	}, "city")
//
//	box.Register(toolbox.NewFunc("weather", "Look up the forecast", params, forecast))
//
// Model output is text, so parameters often arrive as strings ("3" for an
// integer). [Schema.Coerce] converts such scalars to the declared type before
// [Schema.Validate] runs.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const resourceURL = "params.json"

// Schema is a raw schema document together with its compiled validator.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Compile compiles raw. A nil raw gives a nil *Schema, which accepts anything.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	// Round trip through JSON so the compiler sees the same value types the
	// document would have when loaded from disk.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: marshal: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Schema{raw: raw, compiled: compiled}, nil
}

// MustCompile is Compile for schemas declared at init time. It panics on error.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Raw returns the schema document.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate checks params. A nil schema accepts anything.
func (s *Schema) Validate(params map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if params == nil {
		params = map[string]any{}
	}
	if err := s.compiled.Validate(params); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// PropertyTypes maps each top-level property to its declared "type".
// Properties without a single string type are left out.
func (s *Schema) PropertyTypes() map[string]string {
	out := map[string]string{}
	props, _ := s.Raw()["properties"].(map[string]any)
	for name, def := range props {
		d, _ := def.(map[string]any)
		if typ, _ := d["type"].(string); typ != "" {
			out[name] = typ
		}
	}
	return out
}

// Coerce returns a copy of params in which string values of integer, number
// and boolean properties are parsed into that type. Values that do not parse
// are kept as is so that Validate can report them.
func (s *Schema) Coerce(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	types := s.PropertyTypes()
	for k, v := range params {
		out[k] = coerceValue(v, types[k])
	}
	return out
}

func coerceValue(v any, typ string) any {
	str, ok := v.(string)
	if !ok {
		return v
	}
	str = strings.TrimSpace(str)
	switch typ {
	case "integer":
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			return n
		}
	case "number":
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(str); err == nil {
			return b
		}
	}
	return v
}

// ValidationError reports parameters rejected by a schema.
type ValidationError struct {
	Err error
}

// Error lists the violations on one line.
func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "invalid parameters"
	}
	var parts []string
	for _, line := range strings.Split(e.Err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "jsonschema validation failed") {
			continue
		}
		parts = append(parts, strings.TrimPrefix(line, "- "))
	}
	if len(parts) == 0 {
		return e.Err.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
