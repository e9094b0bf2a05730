package taskgraph

import (
	"fmt"
	"strings"
)

// IssueKind classifies a structural problem found by [Graph.Validate].
type IssueKind string

const (
	IssueDuplicate IssueKind = "duplicate"
	IssueDangling  IssueKind = "dangling"
	IssueCycle     IssueKind = "cycle"
)

// Issue is one structural problem in a graph.
type Issue struct {
	Kind   IssueKind
	TaskID string
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Kind, i.TaskID, i.Detail)
}

// Validate reports duplicate ids, dependency ids that name no task, and
// dependency cycles. It never changes the graph; [Graph.Run] still executes
// whatever is runnable.
func (g *Graph) Validate() []Issue {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var issues []Issue

	for _, id := range g.duplicates {
		issues = append(issues, Issue{Kind: IssueDuplicate, TaskID: id, Detail: "id used more than once, later task dropped"})
	}

	for _, t := range g.tasks {
		for _, dep := range t.Dependencies {
			if _, ok := g.index[dep]; !ok {
				issues = append(issues, Issue{
					Kind:   IssueDangling,
					TaskID: t.ID,
					Detail: fmt.Sprintf("depends on unknown task %q", dep),
				})
			}
		}
	}

	for _, cycle := range g.cyclesLocked() {
		issues = append(issues, Issue{
			Kind:   IssueCycle,
			TaskID: cycle[0],
			Detail: strings.Join(cycle, " -> "),
		})
	}
	return issues
}

// cyclesLocked finds back edges with a three-color DFS and returns each cycle
// as the path from the re-entered task back to itself.
func (g *Graph) cyclesLocked() [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.tasks))
	var stack []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)

		for _, dep := range g.index[id].Dependencies {
			if _, ok := g.index[dep]; !ok {
				continue
			}
			switch color[dep] {
			case gray:
				start := 0
				for i, s := range stack {
					if s == dep {
						start = i
						break
					}
				}
				cycle := append([]string(nil), stack[start:]...)
				cycles = append(cycles, append(cycle, dep))
			case white:
				visit(dep)
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, t := range g.tasks {
		if color[t.ID] == white {
			visit(t.ID)
		}
	}
	return cycles
}
