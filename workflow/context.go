package workflow

import (
	"fmt"
	"sort"
	"sync"
)

// Reserved context keys.
const (
	KeyTask        = "task"
	KeyResult      = "result"
	KeyThread      = "thread"
	KeyPlan        = "plan"
	KeyTaskResults = "task_results"
)

// Context is the key/value state shared by every step of one workflow
// invocation. Individual operations are synchronized so Parallel siblings can
// use it, but siblings are still expected to write disjoint keys; the last
// writer of a shared key wins.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext creates a context seeded with a copy of initial.
func NewContext(initial map[string]any) *Context {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Context{values: values}
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value under key as text. Strings are returned as is,
// other values are formatted with fmt.Sprint. A missing or nil value reports false.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Set stores value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Merge copies every entry of other into the context.
func (c *Context) Merge(other map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range other {
		c.values[k] = v
	}
}

// Keys returns the keys in sorted order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the values.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
