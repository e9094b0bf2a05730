// Package react implements the ReAct (Reasoning and Acting) agent loop.
//
// # Overview
//
// The model alternates between reasoning and tool use. Each reply is expected
// to carry a thought and one action:
//
//	Thought: I need the weather first
//	Action: weather[Shenzhen]
//
// The action is parsed with the parser package, so bracket, function-call,
// fenced JSON and damaged variants of these are all accepted.
//
// # Loop Behavior
//
// Each step makes one model call and handles the reply in this order:
//
//  1. A FINISH action ends the run with its answer.
//  2. A tool action is executed and its result is sent back as
//     "Observation: <result>". Results starting with "Error:" are ordinary
//     observations; the model decides how to recover.
//  3. A reply with no action but a finish marker ("Final Answer:" and the like)
//     ends the run with the extracted answer.
//  4. Anything else gets a corrective message restating the two valid shapes.
//     The step is still consumed.
//
// After MaxSteps steps the agent asks once more for a final answer without
// tools. If that reply carries no answer either, its raw text is returned as a
// degraded result. A run therefore makes at most MaxSteps+1 model calls and
// never fails because the model misbehaved; only model errors and context
// cancellation are returned as errors.
//
// # Configuration
//
//   - WithName: Agent name used in prompts, traces and events
//   - WithSystemPrompt: Extra instructions
//   - WithSystemTemplate: Replace the system prompt template
//   - WithMaxSteps: Step limit (default 10)
//   - WithParser: Custom parser chain
//   - WithHooks: Hook registry for run, model, tool and parse events
//   - WithStreaming, WithOnChunk: Consume replies through rungpt.StreamingModel
//
// # Templates
//
// The system prompt is a Go text/template with access to:
//   - Agent name: {{.Name}}
//   - Extra instructions: {{.Instructions}}
//   - Tool catalogue, when the executor implements rungpt.Describer: {{.Tools}}
package react
