// Package tools provides the course tools offered to the model and the
// registry that dispatches their execution by name.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coursechat/coursechat"
)

// Registry holds tools keyed by schema name. It is not safe for
// concurrent use: registered tools carry per-call source state, so each
// logical request builds its own registry.
type Registry struct {
	names []string
	tools map[string]coursechat.Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]coursechat.Tool)}
}

// Register adds a tool under its schema name. An empty or duplicate name
// is a configuration error, fatal at startup.
func (r *Registry) Register(t coursechat.Tool) error {
	name := t.Schema().Name
	if name == "" {
		return fmt.Errorf("tool schema has no name: %w", coursechat.ErrToolRegistration)
	}
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("tool %q already registered: %w", name, coursechat.ErrToolRegistration)
	}
	r.names = append(r.names, name)
	r.tools[name] = t
	return nil
}

// Schemas returns all tool schemas in registration order.
func (r *Registry) Schemas() []coursechat.ToolSchema {
	schemas := make([]coursechat.ToolSchema, 0, len(r.names))
	for _, name := range r.names {
		schemas = append(schemas, r.tools[name].Schema())
	}
	return schemas
}

// Dispatch executes a tool by name. An unknown name returns a sentinel
// string rather than an error: the model may hallucinate tool names, and
// the response must stay safe to feed back to it.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) string {
	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name)
	}
	return tool.Execute(ctx, args)
}

// Sources returns the citations from the first registered tool whose
// buffer is non-empty. In practice at most one tool accumulates
// citations per turn.
func (r *Registry) Sources() []coursechat.Source {
	for _, name := range r.names {
		tracker, ok := r.tools[name].(coursechat.SourceTracker)
		if !ok {
			continue
		}
		if sources := tracker.LastSources(); len(sources) > 0 {
			return sources
		}
	}
	return nil
}

// ClearSources empties every tracking tool's citation buffer. Callers
// invoke it after reading Sources so stale citations cannot leak into
// the next turn.
func (r *Registry) ClearSources() {
	for _, name := range r.names {
		if tracker, ok := r.tools[name].(coursechat.SourceTracker); ok {
			tracker.ClearSources()
		}
	}
}
