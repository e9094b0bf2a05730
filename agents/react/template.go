package react

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemTemplateContent string

// SystemPromptData contains the data passed to the system prompt template.
type SystemPromptData struct {
	// Name is the agent name.
	Name string

	// Instructions is extra behavior and context set with WithSystemPrompt.
	Instructions string

	// Tools is the tool catalogue, when the executor implements rungpt.Describer.
	Tools string
}

// DefaultSystemTemplate explains the Thought/Action/Observation cycle and the
// accepted action shapes. Replace it with Agent.WithSystemTemplate.
var DefaultSystemTemplate = template.Must(
	template.New("react_system").Parse(systemTemplateContent),
)

// CorrectivePrompt is sent after a reply that contains neither an action nor a
// final answer.
const CorrectivePrompt = `Your reply did not contain a valid action. Reply again using one of these forms:

Thought: <your reasoning>
Action: tool_name[input]

Thought: <your reasoning>
Action: Finish[<final answer>]`

// ForceFinishPrompt is sent once the step limit is reached.
const ForceFinishPrompt = `You have reached the maximum number of steps. Do not call any more tools.
Give your best final answer now:

Action: Finish[<final answer>]`

// ExecuteTemplate executes a template with the given data and returns the result.
func ExecuteTemplate(tmpl *template.Template, data SystemPromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
