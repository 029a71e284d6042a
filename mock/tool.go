package mock

import (
	"context"
	"encoding/json"

	"github.com/coursechat/coursechat"
)

// Interface compliance checks.
var (
	_ coursechat.Tool          = (*Tool)(nil)
	_ coursechat.Tool          = (*TrackingTool)(nil)
	_ coursechat.SourceTracker = (*TrackingTool)(nil)
)

// Tool is a test double for coursechat.Tool.
// Set the function fields for the methods you need.
type Tool struct {
	SchemaFn  func() coursechat.ToolSchema
	ExecuteFn func(ctx context.Context, args json.RawMessage) string
}

// Schema delegates to SchemaFn.
func (t *Tool) Schema() coursechat.ToolSchema {
	return t.SchemaFn()
}

// Execute delegates to ExecuteFn.
func (t *Tool) Execute(ctx context.Context, args json.RawMessage) string {
	return t.ExecuteFn(ctx, args)
}

// TrackingTool is a Tool double that also tracks sources, for exercising
// registry source collection.
type TrackingTool struct {
	Tool
	Sources []coursechat.Source
}

// LastSources returns the configured sources.
func (t *TrackingTool) LastSources() []coursechat.Source {
	return t.Sources
}

// ClearSources empties the configured sources.
func (t *TrackingTool) ClearSources() {
	t.Sources = nil
}
