// Package toolbox is a registry of tools that implements rungpt.Executor.
//
// Failures never leave Call as Go errors. They come back as observation text
// the model can react to:
//
//	Error: Tool 'x' not found
//	Error: Tool 'x' is disabled
//	Validation Error: <violations>
//	Error: <tool error>
package toolbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rickchristie/rungpt"
	"github.com/rickchristie/rungpt/schema"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("toolbox: duplicate tool")

	// ErrUnknownTool is returned by Enable and Disable for unregistered names.
	ErrUnknownTool = errors.New("toolbox: unknown tool")
)

type entry struct {
	tool    Tool
	schema  *schema.Schema
	enabled bool
}

// Info describes a registered tool.
type Info struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Enabled     bool   `yaml:"enabled"`
}

// Box holds tools in registration order. It is safe for concurrent use.
type Box struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

// New creates a box holding tools. It panics if two tools share a name or a
// parameter schema does not compile.
func New(tools ...Tool) *Box {
	b := &Box{entries: map[string]*entry{}}
	if err := b.Register(tools...); err != nil {
		panic(err)
	}
	return b
}

// Register adds enabled tools. Registration stops at the first error.
func (b *Box) Register(tools ...Tool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range tools {
		name := t.Name()
		if _, ok := b.entries[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		compiled, err := schema.Compile(t.ParameterSchema())
		if err != nil {
			return fmt.Errorf("toolbox: tool %s: %w", name, err)
		}
		b.entries[name] = &entry{tool: t, schema: compiled, enabled: true}
		b.order = append(b.order, name)
	}
	return nil
}

// Enable makes a tool callable again.
func (b *Box) Enable(name string) error { return b.setEnabled(name, true) }

// Disable keeps a tool registered but rejects calls to it and hides it from
// Describe.
func (b *Box) Disable(name string) error { return b.setEnabled(name, false) }

func (b *Box) setEnabled(name string, enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	e.enabled = enabled
	return nil
}

// Get returns the tool registered under name.
func (b *Box) Get(name string) (Tool, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// List returns every registered tool in registration order.
func (b *Box) List() []Info {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Info, 0, len(b.order))
	for _, name := range b.order {
		e := b.entries[name]
		out = append(out, Info{Name: name, Description: e.tool.Description(), Enabled: e.enabled})
	}
	return out
}

// Describe renders the enabled tools and their parameter schemas for a prompt.
func (b *Box) Describe() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb strings.Builder
	for _, name := range b.order {
		e := b.entries[name]
		if !e.enabled {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", name, e.tool.Description())

		raw := e.schema.Raw()
		if raw == nil {
			continue
		}
		data, err := yaml.Marshal(raw)
		if err != nil {
			continue
		}
		sb.WriteString("  Parameters:\n")
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			sb.WriteString("    ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Call runs a tool and renders its result. See the package documentation for
// the failure texts.
func (b *Box) Call(ctx context.Context, name string, params map[string]any) (result string) {
	b.mu.RLock()
	e, ok := b.entries[name]
	enabled := ok && e.enabled
	b.mu.RUnlock()

	if !ok {
		return fmt.Sprintf("%s Tool '%s' not found", rungpt.ErrorPrefix, name)
	}
	if !enabled {
		return fmt.Sprintf("%s Tool '%s' is disabled", rungpt.ErrorPrefix, name)
	}

	params = e.schema.Coerce(params)
	if err := e.schema.Validate(params); err != nil {
		return fmt.Sprintf("Validation %s %v", rungpt.ErrorPrefix, err)
	}

	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("%s %v", rungpt.ErrorPrefix, r)
		}
	}()
	out, err := e.tool.Call(ctx, params)
	if err != nil {
		return fmt.Sprintf("%s %v", rungpt.ErrorPrefix, err)
	}
	return Render(out)
}

// Render formats a tool result as text: strings as is, fmt.Stringer values
// through String, everything else as YAML.
func Render(v any) string {
	switch out := v.(type) {
	case nil:
		return ""
	case string:
		return out
	case fmt.Stringer:
		return out.String()
	case []byte:
		return string(out)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(string(data), "\n")
}

var (
	_ rungpt.Executor  = (*Box)(nil)
	_ rungpt.Describer = (*Box)(nil)
)
