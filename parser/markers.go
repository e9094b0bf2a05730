package parser

import (
	"regexp"
	"strings"
)

var finishMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Action:\s*Finish\[`),
	regexp.MustCompile(`(?im)(?:^|\n)Finish\[`),
	regexp.MustCompile(`(?im)Action:\s*FINISH`),
	regexp.MustCompile(`(?im)"action":\s*"FINISH"`),
	regexp.MustCompile(`(?im)Final Answer:`),
	regexp.MustCompile(`(?im)最终答案：`),
}

var (
	thoughtLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Thought:\s*(.*?)(?:\n|Action:|$)`),
		regexp.MustCompile(`(?is)思考：\s*(.*?)(?:\n|Action:|$)`),
	}
	observationLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Observation:\s*(.*?)(?:\n|Thought:|$)`),
		regexp.MustCompile(`(?is)观察：\s*(.*?)(?:\n|Thought:|$)`),
	}
	answerLabels = []*regexp.Regexp{
		regexp.MustCompile(`(?is)Final Answer:\s*(.*?)(?:\n|$)`),
		regexp.MustCompile(`(?is)最终答案：\s*(.*?)(?:\n|$)`),
		regexp.MustCompile(`(?is)Answer:\s*(.*?)(?:\n|$)`),
		regexp.MustCompile(`(?is)答案：\s*(.*?)(?:\n|$)`),
	}
)

// HasFinish reports whether text carries a terminal marker, either an explicit
// finish action or a "Final Answer:" label, even when no action parses.
func HasFinish(text string) bool {
	for _, re := range finishMarkers {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ExtractThought returns the first "Thought:" segment, ending at the next
// newline or "Action:". The second result is false when there is none.
func ExtractThought(text string) (string, bool) {
	return firstLabeled(thoughtLabels, text)
}

// ExtractObservation returns the first "Observation:" segment, ending at the
// next newline or "Thought:".
func ExtractObservation(text string) (string, bool) {
	return firstLabeled(observationLabels, text)
}

// ExtractFinalAnswer returns the text after the first answer label found,
// checking "Final Answer:", "最终答案：", "Answer:" and "答案：" in that order.
// Without a label the whole trimmed text is the answer.
func ExtractFinalAnswer(text string) string {
	if s, ok := firstLabeled(answerLabels, text); ok {
		return s
	}
	return strings.TrimSpace(text)
}

func firstLabeled(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}
