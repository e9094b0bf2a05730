package planexec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rickchristie/rungpt/parser"
	"github.com/rickchristie/rungpt/taskgraph"
)

// IDPrefix starts every normalized task id.
const IDPrefix = "task_"

var listMarker = regexp.MustCompile(`^[\d\-\*\.\)]+\s*`)

// taskListKeys are tried in order for the array of tasks.
var taskListKeys = []string{"tasks", "subtasks", "task_list"}

// PlanPrompt asks for a JSON decomposition of goal.
func PlanPrompt(goal string) string {
	return "Break the following goal into a short list of concrete subtasks.\n\n" +
		"Goal: " + goal + "\n\n" +
		"Reply with a JSON block in exactly this format:\n\n" +
		"```json\n" +
		`{"tasks": [` + "\n" +
		`  {"id": "task_1", "description": "first subtask", "dependencies": []},` + "\n" +
		`  {"id": "task_2", "description": "second subtask", "dependencies": ["task_1"]}` + "\n" +
		"]}\n" +
		"```\n\n" +
		"List in dependencies the ids of the tasks whose results a task needs."
}

// ParsePlan builds a graph from a planner reply. It never fails:
//   - a fenced JSON block (or the whole reply) holding a task array under
//     "tasks", "subtasks" or "task_list" gives one task per entry;
//   - otherwise each line starting with a digit, "-" or "*" whose text is
//     longer than 5 characters becomes an independent task;
//   - otherwise the goal itself is the only task.
func ParsePlan(goal, response string) *taskgraph.Graph {
	if tasks := parseJSONPlan(response); len(tasks) > 0 {
		return taskgraph.New(goal, tasks...)
	}
	if tasks := parseListPlan(response); len(tasks) > 0 {
		return taskgraph.New(goal, tasks...)
	}
	return taskgraph.New(goal, taskgraph.NewTask(IDPrefix+"1", goal))
}

func parseJSONPlan(response string) []*taskgraph.Task {
	body, _, ok := parser.FencedBlock(response)
	if !ok {
		body = strings.TrimSpace(response)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil
	}

	var entries []any
	for _, key := range taskListKeys {
		if list, ok := data[key].([]any); ok && len(list) > 0 {
			entries = list
			break
		}
	}

	tasks := make([]*taskgraph.Task, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		id, ok := normalizeID(obj["id"])
		if !ok {
			id = fmt.Sprintf("%s%d", IDPrefix, i+1)
		}

		var deps []string
		if list, ok := obj["dependencies"].([]any); ok {
			for _, d := range list {
				if dep, ok := normalizeID(d); ok {
					deps = append(deps, dep)
				}
			}
		}

		tasks = append(tasks, taskgraph.NewTask(id, firstString(obj, "description", "name", "title"), deps...))
	}
	return tasks
}

// normalizeID maps 3, "3" and "task_3" to "task_3" and "fetch" to "task_fetch".
func normalizeID(v any) (string, bool) {
	var s string
	switch id := v.(type) {
	case json.Number:
		n, err := id.Int64()
		if err != nil {
			return "", false
		}
		s = fmt.Sprintf("%d", n)
	case string:
		s = strings.TrimSpace(id)
	default:
		return "", false
	}
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, IDPrefix) {
		return s, true
	}
	return IDPrefix + s, true
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func parseListPlan(response string) []*taskgraph.Task {
	var tasks []*taskgraph.Task
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first, _ := utf8.DecodeRuneInString(line)
		if !unicode.IsDigit(first) && first != '-' && first != '*' {
			continue
		}
		desc := listMarker.ReplaceAllString(line, "")
		if utf8.RuneCountInString(desc) <= 5 {
			continue
		}
		tasks = append(tasks, taskgraph.NewTask(fmt.Sprintf("%s%d", IDPrefix, len(tasks)+1), desc))
	}
	return tasks
}

// ExecutePrompt builds the prompt for task: its description, followed by the
// results of its completed dependencies.
func ExecutePrompt(g *taskgraph.Graph, task *taskgraph.Task) string {
	var sb strings.Builder
	sb.WriteString("Subtask: ")
	sb.WriteString(task.Description)

	var lines []string
	for _, id := range task.Dependencies {
		dep, ok := g.Get(id)
		if !ok || dep.Status != taskgraph.StatusCompleted || dep.Result == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s]: %s", id, dep.Result))
	}
	if len(lines) > 0 {
		sb.WriteString("\n\nResults of prerequisite tasks:\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}
	return sb.String()
}

// SummaryResultLimit is the number of runes of each result quoted in the
// summary prompt.
const SummaryResultLimit = 200

// SummaryPrompt lists every task with its status and truncated result and
// asks for the final answer.
func SummaryPrompt(g *taskgraph.Graph) string {
	tasks := g.Tasks()
	counts := g.Counts()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s\n\n", g.Goal())
	fmt.Fprintf(&sb, "Completed %d/%d subtasks:\n\n", counts[taskgraph.StatusCompleted], len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&sb, "[%s] %s\n", t.ID, t.Description)
		fmt.Fprintf(&sb, "  Status: %s\n", t.Status)
		if t.Result != "" {
			result := []rune(t.Result)
			if len(result) > SummaryResultLimit {
				fmt.Fprintf(&sb, "  Result: %s...\n", string(result[:SummaryResultLimit]))
			} else {
				fmt.Fprintf(&sb, "  Result: %s\n", t.Result)
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Summarize the work above and give the final answer to the goal.")
	return sb.String()
}
