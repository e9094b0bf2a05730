package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rickchristie/rungpt"
)

var (
	fuzzyBracket  = regexp.MustCompile(`(?i)\bAction:\s*(\w+)\s*\[([^\]]*)\]`)
	fuzzyFunction = regexp.MustCompile(`(?i)\bAction:\s*(\w+)\s*\(([^)]*)\)`)
	fuzzyBareName = regexp.MustCompile(`(?im)^\s*Action:\s*(\w+)\s*$`)

	lineComment   = regexp.MustCompile(`(?m)//.*?$`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	bareKey       = regexp.MustCompile(`(\{|,)\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
	flatObject    = regexp.MustCompile(`\{[^{}]*\}`)
	scrapedPair   = regexp.MustCompile(`["']?(\w+)["']?\s*:\s*["']([^"']+)["']`)
)

// Robust is the last strategy of the default chain. It accepts damaged
// bracket and function forms, repairs JSON-ish arguments with [RepairJSON],
// and as a last resort scrapes key: "value" pairs out of the text.
// A name with no arguments is only accepted on its own "Action:" line.
type Robust struct{}

// NewRobust creates the fallback strategy.
func NewRobust() *Robust {
	return &Robust{}
}

// Name implements [Strategy].
func (r *Robust) Name() string { return "robust" }

// CanHandle implements [Strategy].
func (r *Robust) CanHandle(text string) bool {
	return strings.Contains(strings.ToLower(text), "action")
}

// Parse implements [Strategy].
func (r *Robust) Parse(text string) (*rungpt.Action, error) {
	if a := r.bracket(text); a != nil {
		return a, nil
	}
	if a := r.function(text); a != nil {
		return a, nil
	}
	if m := fuzzyBareName.FindStringSubmatch(text); m != nil {
		return rungpt.NewAction(m[1], nil, strings.TrimSpace(m[0])), nil
	}
	if a := r.scrape(text); a != nil {
		return a, nil
	}
	return nil, ErrNoMatch
}

func (r *Robust) bracket(text string) *rungpt.Action {
	m := fuzzyBracket.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	name, args := m[1], strings.TrimSpace(m[2])
	if args == "" {
		return rungpt.NewAction(name, nil, m[0])
	}
	if strings.HasPrefix(args, "{") {
		if params, ok := FuzzyJSON(args); ok {
			return rungpt.NewAction(name, params, m[0])
		}
	}
	return rungpt.NewAction(name, map[string]any{"input": args}, m[0])
}

func (r *Robust) function(text string) *rungpt.Action {
	m := fuzzyFunction.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	name, args := m[1], strings.TrimSpace(m[2])
	if args == "" {
		return rungpt.NewAction(name, nil, m[0])
	}
	if params, ok := FuzzyJSON("{" + args + "}"); ok {
		return rungpt.NewAction(name, params, m[0])
	}

	params := map[string]any{}
	for _, part := range strings.Split(args, ",") {
		key, val, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		params[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(val), `"'`)
	}
	if len(params) > 0 {
		return rungpt.NewAction(name, params, m[0])
	}
	return rungpt.NewAction(name, map[string]any{"input": args}, m[0])
}

// scrape recovers {"action": "x", "k": "v"} style output that no other
// attempt could decode.
func (r *Robust) scrape(text string) *rungpt.Action {
	pairs := scrapePairs(text)
	name, _ := pairs["action"].(string)
	if name == "" {
		return nil
	}
	delete(pairs, "action")
	return rungpt.NewAction(name, pairs, text)
}

// RepairJSON fixes the mistakes models commonly make when writing JSON:
// comments, trailing commas, single quotes and unquoted keys.
// Single quotes are swapped blindly, so apostrophes inside values break.
func RepairJSON(s string) string {
	s = lineComment.ReplaceAllString(s, "")
	s = blockComment.ReplaceAllString(s, "")
	s = trailingComma.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "'", `"`)
	s = bareKey.ReplaceAllString(s, `$1"$2":`)
	return s
}

// FuzzyJSON decodes a JSON object, trying progressively looser readings:
// as is, inside a fenced block, repaired, the first flat {...} repaired, and
// finally key: "value" scraping. ok is false when nothing non-empty came out.
func FuzzyJSON(text string) (map[string]any, bool) {
	if m, ok := decodeObject(text); ok {
		return m, true
	}
	if body, _, found := FencedBlock(text); found {
		if m, ok := decodeObject(body); ok {
			return m, true
		}
	}
	if m, ok := decodeObject(RepairJSON(text)); ok {
		return m, true
	}
	if obj := flatObject.FindString(text); obj != "" {
		if m, ok := decodeObject(RepairJSON(obj)); ok {
			return m, true
		}
	}
	if m := scrapePairs(text); len(m) > 0 {
		return m, true
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || len(m) == 0 {
		return nil, false
	}
	return m, true
}

func scrapePairs(text string) map[string]any {
	out := map[string]any{}
	for _, m := range scrapedPair.FindAllStringSubmatch(text, -1) {
		out[m[1]] = m[2]
	}
	return out
}
