package rungpt

import (
	"fmt"
	"sort"
	"strings"
)

// FinishAction is the reserved action name that ends a reasoning loop.
// The final answer is carried in the "answer" parameter.
const FinishAction = "FINISH"

// Action is a structured instruction extracted from free-form model output:
// either a tool invocation or the [FinishAction] sentinel.
type Action struct {
	Name   string         `json:"name" yaml:"name"`
	Params map[string]any `json:"params" yaml:"params"`
	Raw    string         `json:"-" yaml:"-"`
}

// NewAction creates an Action, folding any spelling of "finish" into [FinishAction].
// Tool names keep their case since tool lookup is case sensitive.
func NewAction(name string, params map[string]any, raw string) *Action {
	if strings.EqualFold(name, FinishAction) {
		name = FinishAction
	}
	if params == nil {
		params = map[string]any{}
	}
	return &Action{Name: name, Params: params, Raw: raw}
}

// IsFinish reports whether the action terminates the loop.
func (a *Action) IsFinish() bool {
	return a != nil && a.Name == FinishAction
}

// Answer returns the "answer" parameter as text.
func (a *Action) Answer() string {
	if a == nil {
		return ""
	}
	v, ok := a.Params["answer"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Keys returns the parameter names in lexicographic order.
func (a *Action) Keys() []string {
	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bracket renders the action in canonical bracket form.
//
//	Finish[the answer]
//	search[query=AI news]
//	calc[a=1, b=2]
//
// Values containing commas are double quoted.
func (a *Action) Bracket() string {
	if a.IsFinish() {
		return "Finish[" + a.Answer() + "]"
	}
	parts := make([]string, 0, len(a.Params))
	for _, k := range a.Keys() {
		v := fmt.Sprint(a.Params[k])
		if strings.Contains(v, ",") {
			v = `"` + v + `"`
		}
		parts = append(parts, k+"="+v)
	}
	return a.Name + "[" + strings.Join(parts, ", ") + "]"
}

// String implements fmt.Stringer.
func (a *Action) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.Bracket()
}
