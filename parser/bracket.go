package parser

import (
	"regexp"
	"strings"

	"github.com/rickchristie/rungpt"
)

// DefaultParamNames maps well-known tool names to the parameter a bare bracket
// value is assigned to. Tools not listed receive the value as "input".
var DefaultParamNames = map[string]string{
	"calculator": "expression",
	"search":     "query",
	"weather":    "city",
}

var (
	bracketHint     = regexp.MustCompile(`\w+\[.*?\]`)
	bracketPrefixed = regexp.MustCompile(`(?s)Action:\s*(\w+)\[(.*?)\]`)
	bracketBare     = regexp.MustCompile(`(?ms)(?:^|\n)(\w+)\[(.*?)\]`)

	// Quoted values may contain commas; unquoted values end at the next comma.
	bracketKeyValue = regexp.MustCompile(`(\w+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^,]+))`)
)

// Bracket parses the name[input] form, optionally prefixed by "Action:".
//
// Input is interpreted as key=value pairs when it contains "=". Splitting is
// naive: an unquoted value ends at the first comma, so a=1,2 yields a="1" and
// the trailing 2 is dropped. Quote values that contain commas.
type Bracket struct {
	paramNames map[string]string
}

// BracketOption configures a Bracket strategy.
type BracketOption func(*Bracket)

// WithParamNames replaces the tool-name to parameter-name table.
func WithParamNames(names map[string]string) BracketOption {
	return func(b *Bracket) {
		b.paramNames = names
	}
}

// NewBracket creates a bracket strategy using [DefaultParamNames].
func NewBracket(opts ...BracketOption) *Bracket {
	b := &Bracket{paramNames: DefaultParamNames}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements [Strategy].
func (b *Bracket) Name() string { return "bracket" }

// CanHandle implements [Strategy].
func (b *Bracket) CanHandle(text string) bool {
	return bracketHint.MatchString(text)
}

// Parse implements [Strategy].
func (b *Bracket) Parse(text string) (*rungpt.Action, error) {
	m := bracketPrefixed.FindStringSubmatch(text)
	if m == nil {
		m = bracketBare.FindStringSubmatch(text)
	}
	if m == nil {
		return nil, ErrNoMatch
	}

	name := strings.TrimSpace(m[1])
	input := strings.TrimSpace(m[2])
	raw := m[0]

	if strings.EqualFold(name, rungpt.FinishAction) {
		return rungpt.NewAction(name, map[string]any{"answer": input}, raw), nil
	}
	return rungpt.NewAction(name, b.params(name, input), raw), nil
}

// ParamName returns the parameter a bare value for tool is assigned to.
func (b *Bracket) ParamName(tool string) string {
	if name, ok := b.paramNames[strings.ToLower(tool)]; ok {
		return name
	}
	return "input"
}

func (b *Bracket) params(tool, input string) map[string]any {
	if strings.Contains(input, "=") {
		params := map[string]any{}
		for _, kv := range bracketKeyValue.FindAllStringSubmatchIndex(input, -1) {
			key := input[kv[2]:kv[3]]
			var val string
			switch {
			case kv[4] >= 0:
				val = input[kv[4]:kv[5]]
			case kv[6] >= 0:
				val = input[kv[6]:kv[7]]
			case kv[8] >= 0:
				val = input[kv[8]:kv[9]]
			default:
				continue
			}
			params[strings.TrimSpace(key)] = strings.TrimSpace(val)
		}
		if len(params) > 0 {
			return params
		}
	}
	return map[string]any{b.ParamName(tool): input}
}
