package taskgraph

// Status is the lifecycle state of a [Task].
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is one unit of work in a [Graph].
type Task struct {
	ID           string   `json:"id" yaml:"id"`
	Description  string   `json:"description" yaml:"description"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
	Status       Status   `json:"status" yaml:"status"`
	Result       string   `json:"result,omitempty" yaml:"result,omitempty"`
}

// NewTask creates a pending task.
func NewTask(id, description string, dependencies ...string) *Task {
	if dependencies == nil {
		dependencies = []string{}
	}
	return &Task{
		ID:           id,
		Description:  description,
		Dependencies: dependencies,
		Status:       StatusPending,
	}
}

// Clone returns a copy that does not share the dependency slice.
func (t *Task) Clone() *Task {
	c := *t
	c.Dependencies = append([]string(nil), t.Dependencies...)
	return &c
}
