package tt

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rickchristie/rungpt"
)

// -----------------------------------------------------------------------------
// Transcript Helpers
// -----------------------------------------------------------------------------

// Transcript renders messages one per block as "role: content" for readable diffs.
func Transcript(messages []rungpt.Message) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Msg is shorthand for building an expected message.
func Msg(role rungpt.Role, content string) rungpt.Message {
	return rungpt.Message{Role: role, Content: content}
}

// User is shorthand for a user message.
func User(content string) rungpt.Message {
	return Msg(rungpt.RoleUser, content)
}

// Assistant is shorthand for an assistant message.
func Assistant(content string) rungpt.Message {
	return Msg(rungpt.RoleAssistant, content)
}

// AssertTranscript fails with a unified diff when the two conversations differ.
func AssertTranscript(t *testing.T, expected, actual []rungpt.Message) bool {
	t.Helper()
	return AssertTextEqual(t, Transcript(expected), Transcript(actual))
}

// AssertTextEqual fails with a unified diff when the two texts differ.
func AssertTextEqual(t *testing.T, expected, actual string) bool {
	t.Helper()
	if expected == actual {
		return true
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	if err != nil {
		t.Errorf("texts differ and diff failed: %v", err)
		return false
	}
	t.Errorf("texts differ:\n%s", diff)
	return false
}
