package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rickchristie/rungpt"
)

var (
	functionHint   = regexp.MustCompile(`(?i)\bAction:\s*\w+\(`)
	functionOpen   = regexp.MustCompile(`(?i)\bAction:\s*(\w+)\(`)
	functionKwargs = regexp.MustCompile(`(\w+)=(?:"(.*?)"|'(.*?)'|([^\s,]+))`)
)

// Function parses the name(args) form prefixed by "Action:".
//
// Arguments are either an object literal read by [ParseLiteral], or key=value
// pairs. Unquoted values are coerced to int, then float64, and stay strings
// otherwise; quoted values always stay strings.
type Function struct{}

// NewFunction creates a function-call strategy.
func NewFunction() *Function {
	return &Function{}
}

// Name implements [Strategy].
func (f *Function) Name() string { return "function" }

// CanHandle implements [Strategy].
func (f *Function) CanHandle(text string) bool {
	return functionHint.MatchString(text)
}

// Parse implements [Strategy].
func (f *Function) Parse(text string) (*rungpt.Action, error) {
	loc := functionOpen.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, ErrNoMatch
	}

	name := text[loc[2]:loc[3]]
	open := loc[1] - 1
	end := matchingParen(text, open)
	if end < 0 {
		return nil, ErrUnbalanced
	}

	params, err := parseCallArgs(strings.TrimSpace(text[open+1 : end]))
	if err != nil {
		return nil, err
	}
	return rungpt.NewAction(name, params, text[loc[0]:end+1]), nil
}

// matchingParen returns the index of the ')' closing the '(' at open, or -1.
func matchingParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseCallArgs(args string) (map[string]any, error) {
	if args == "" {
		return map[string]any{}, nil
	}
	if strings.HasPrefix(args, "{") {
		return ParseLiteral(args)
	}

	params := map[string]any{}
	for _, m := range functionKwargs.FindAllStringSubmatchIndex(args, -1) {
		key := args[m[2]:m[3]]
		switch {
		case m[4] >= 0:
			params[key] = args[m[4]:m[5]]
		case m[6] >= 0:
			params[key] = args[m[6]:m[7]]
		case m[8] >= 0:
			params[key] = coerce(args[m[8]:m[9]])
		}
	}
	return params, nil
}

// coerce converts an unquoted value to int or float64 when it parses as one.
func coerce(s string) any {
	if !strings.Contains(s, ".") {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
