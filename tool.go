package coursechat

import (
	"context"
	"encoding/json"
)

// ToolSchema is the machine-readable description of a tool sent to the
// model: its name, purpose, and a JSON Schema for its arguments.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Tool is a named capability the model may invoke. Execute never returns
// an error: any internal failure is converted into a descriptive string
// so the model can see the failure and react to it in natural language.
type Tool interface {
	Schema() ToolSchema
	Execute(ctx context.Context, args json.RawMessage) string
}

// SourceTracker is an optional capability for tools that surface
// citations. A tool either implements it or is citation-less; callers
// check for the interface explicitly rather than probing struct fields.
type SourceTracker interface {
	// LastSources returns the citations produced by the most recent
	// Execute call. Each call overwrites the buffer, never appends.
	LastSources() []Source

	// ClearSources empties the citation buffer.
	ClearSources()
}

// Source is a human-readable citation attributing an answer to retrieved
// course content. Link is empty when no lesson link is known.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}
