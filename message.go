package rungpt

import (
	"sync"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of a conversation.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Thread is an ordered conversation log shared between an agent and its caller.
//
// Agents append turns while they run; callers read the history back through
// [Thread.Messages]. A Thread is safe for concurrent use, but interleaving two
// agents on one Thread produces an interleaved history.
type Thread struct {
	id string

	mu       sync.RWMutex
	messages []Message
}

// NewThread creates an empty Thread with a random id.
func NewThread() *Thread {
	return &Thread{id: uuid.NewString()}
}

// ID returns the thread identifier.
func (t *Thread) ID() string {
	return t.id
}

// AddUser appends a user turn.
func (t *Thread) AddUser(content string) {
	t.add(RoleUser, content)
}

// AddAssistant appends an assistant turn.
func (t *Thread) AddAssistant(content string) {
	t.add(RoleAssistant, content)
}

// AddSystem appends a system turn.
func (t *Thread) AddSystem(content string) {
	t.add(RoleSystem, content)
}

func (t *Thread) add(role Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the history in order.
func (t *Thread) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of turns recorded.
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent turn, or false when the thread is empty.
func (t *Thread) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
