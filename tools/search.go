package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coursechat/coursechat"
)

// Interface compliance checks.
var (
	_ coursechat.Tool          = (*SearchTool)(nil)
	_ coursechat.SourceTracker = (*SearchTool)(nil)
)

// SearchTool searches course content with semantic course-name matching
// and optional lesson filtering. It records one citation per returned
// chunk; each Execute call overwrites the previous citations.
type SearchTool struct {
	searcher coursechat.Searcher
	catalog  coursechat.Catalog

	lastSources []coursechat.Source
}

// NewSearchTool creates a SearchTool backed by the given collaborators.
func NewSearchTool(searcher coursechat.Searcher, catalog coursechat.Catalog) *SearchTool {
	return &SearchTool{searcher: searcher, catalog: catalog}
}

type searchArgs struct {
	Query        string `json:"query"`
	CourseName   string `json:"course_name"`
	LessonNumber *int   `json:"lesson_number"`
}

// Schema returns the tool definition sent to the model.
func (t *SearchTool) Schema() coursechat.ToolSchema {
	return coursechat.ToolSchema{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "What to search for in the course content"
				},
				"course_name": {
					"type": "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')"
				},
				"lesson_number": {
					"type": "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)"
				}
			},
			"required": ["query"]
		}`),
	}
}

// Execute runs the search and formats the results for the model. All
// failures come back as text so the model can react to them.
func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) string {
	t.lastSources = nil

	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Sprintf("invalid arguments: %s", err)
	}
	if a.Query == "" {
		return "query is required"
	}

	results, err := t.searcher.Search(ctx, a.Query, a.CourseName, a.LessonNumber)
	if err != nil {
		return err.Error()
	}

	if len(results) == 0 {
		var filter strings.Builder
		if a.CourseName != "" {
			fmt.Fprintf(&filter, " in course '%s'", a.CourseName)
		}
		if a.LessonNumber != nil {
			fmt.Fprintf(&filter, " in lesson %d", *a.LessonNumber)
		}
		return fmt.Sprintf("No relevant content found%s.", filter.String())
	}

	return t.formatResults(ctx, results)
}

// formatResults renders chunks with course and lesson context headers
// and records the matching citations.
func (t *SearchTool) formatResults(ctx context.Context, results []coursechat.SearchResult) string {
	formatted := make([]string, 0, len(results))
	sources := make([]coursechat.Source, 0, len(results))

	for _, res := range results {
		label := res.CourseTitle
		if res.LessonNumber != nil {
			label = fmt.Sprintf("%s - Lesson %d", res.CourseTitle, *res.LessonNumber)
		}

		var link string
		if res.LessonNumber != nil {
			// A missing link is not worth failing the search over.
			link, _ = t.catalog.LessonLink(ctx, res.CourseTitle, *res.LessonNumber)
		}

		sources = append(sources, coursechat.Source{Text: label, Link: link})
		formatted = append(formatted, fmt.Sprintf("[%s]\n%s", label, res.Content))
	}

	t.lastSources = sources
	return strings.Join(formatted, "\n\n")
}

// LastSources returns the citations from the most recent Execute call.
func (t *SearchTool) LastSources() []coursechat.Source {
	return t.lastSources
}

// ClearSources empties the citation buffer.
func (t *SearchTool) ClearSources() {
	t.lastSources = nil
}
