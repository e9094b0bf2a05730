package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rickchristie/rungpt"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n```")
	fencedAny  = regexp.MustCompile("(?s)```\\s*\\n(.*?)\\n```")
)

// JSONBlock parses a fenced code block holding {"action": ..., "params": {...}}.
// A block tagged json is preferred over an untagged one.
type JSONBlock struct{}

// NewJSONBlock creates a JSON block strategy.
func NewJSONBlock() *JSONBlock {
	return &JSONBlock{}
}

// Name implements [Strategy].
func (j *JSONBlock) Name() string { return "json_block" }

// CanHandle implements [Strategy].
func (j *JSONBlock) CanHandle(text string) bool {
	return strings.Contains(text, "```")
}

// Parse implements [Strategy].
func (j *JSONBlock) Parse(text string) (*rungpt.Action, error) {
	body, raw, ok := FencedBlock(text)
	if !ok {
		return nil, ErrNoMatch
	}

	var payload struct {
		Action *string        `json:"action"`
		Params map[string]any `json:"params"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if payload.Action == nil || *payload.Action == "" {
		return nil, ErrMissingAction
	}
	return rungpt.NewAction(*payload.Action, payload.Params, raw), nil
}

// FencedBlock returns the body of the first ```json block, falling back to the
// first untagged fenced block. raw is the whole matched block.
func FencedBlock(text string) (body, raw string, ok bool) {
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		m = fencedAny.FindStringSubmatch(text)
	}
	if m == nil {
		return "", "", false
	}
	return m[1], m[0], true
}
