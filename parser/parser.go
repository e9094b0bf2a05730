// Package parser turns free-form model output into a structured [rungpt.Action].
//
// A [Parser] is an ordered chain of [Strategy] values. Each strategy has a cheap
// CanHandle pre-check and a full Parse; the first strategy whose pre-check
// passes and whose parse succeeds wins. There is no scoring across strategies.
//
// The default chain understands, in priority order:
//
//	Action: search[AI news]                       bracket form
//	Action: calc(a=1, b=2)                        function-call form
//	```json {"action": "search", "params": {...}} fenced JSON block
//	Action: search[{query: 'x',}]                 damaged input, repaired
//
// Parsing never executes model output. Object literals inside function calls
// are read by a tolerant tokenizer, see [ParseLiteral].
package parser

import (
	"errors"
	"fmt"

	"github.com/rickchristie/rungpt"
)

// Sentinel errors returned by [Parser.ParseDetailed] and by individual strategies.
var (
	ErrNoMatch        = errors.New("no action found in output")
	ErrUnbalanced     = errors.New("unbalanced parentheses in function call")
	ErrInvalidJSON    = errors.New("invalid JSON in action block")
	ErrMissingAction  = errors.New("JSON block has no 'action' field")
	ErrInvalidLiteral = errors.New("invalid object literal")
)

// Strategy recognizes one textual action format.
type Strategy interface {
	// Name identifies the strategy in diagnostics.
	Name() string

	// CanHandle is a cheap pre-check. Returning false skips Parse entirely.
	CanHandle(text string) bool

	// Parse extracts an action or returns an error wrapping one of the sentinels.
	Parse(text string) (*rungpt.Action, error)
}

// Parser applies strategies in order.
type Parser struct {
	strategies []Strategy
}

// New creates a parser over the given strategies, tried in order.
func New(strategies ...Strategy) *Parser {
	return &Parser{strategies: strategies}
}

// Default returns the standard chain: bracket, function call, JSON block, robust.
func Default() *Parser {
	return New(
		NewBracket(),
		NewFunction(),
		NewJSONBlock(),
		NewRobust(),
	)
}

// Strategies returns the chain in priority order.
func (p *Parser) Strategies() []Strategy {
	out := make([]Strategy, len(p.strategies))
	copy(out, p.strategies)
	return out
}

// Parse returns the first action any strategy extracts, or false.
func (p *Parser) Parse(text string) (*rungpt.Action, bool) {
	action, err := p.ParseDetailed(text)
	return action, err == nil
}

// ParseDetailed is like Parse but reports why nothing matched. The error
// joins every attempted strategy's failure and always matches [ErrNoMatch].
func (p *Parser) ParseDetailed(text string) (*rungpt.Action, error) {
	var errs []error
	for _, s := range p.strategies {
		if !s.CanHandle(text) {
			continue
		}
		action, err := s.Parse(text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if action == nil {
			continue
		}
		if action.IsFinish() {
			normalizeFinish(action)
		}
		return action, nil
	}
	if len(errs) == 0 {
		return nil, ErrNoMatch
	}
	return nil, fmt.Errorf("%w: %w", ErrNoMatch, errors.Join(errs...))
}

// normalizeFinish makes sure a finish action carries its result under "answer".
func normalizeFinish(a *rungpt.Action) {
	if _, ok := a.Params["answer"]; ok {
		return
	}
	if v, ok := a.Params["input"]; ok {
		a.Params = map[string]any{"answer": v}
		return
	}
	if len(a.Params) == 1 {
		for _, v := range a.Params {
			a.Params = map[string]any{"answer": v}
		}
		return
	}
	a.Params = map[string]any{"answer": formatParams(a.Params)}
}

// formatParams renders params deterministically as {k: v, ...}.
func formatParams(params map[string]any) string {
	a := rungpt.Action{Params: params}
	s := "{"
	for i, k := range a.Keys() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %v", k, params[k])
	}
	return s + "}"
}
