package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coursechat/coursechat"
)

// Interface compliance check.
var _ coursechat.Tool = (*OutlineTool)(nil)

// OutlineTool retrieves a course outline: title, link, and the full
// lesson list. It records no citations.
type OutlineTool struct {
	catalog coursechat.Catalog
}

// NewOutlineTool creates an OutlineTool backed by the given catalog.
func NewOutlineTool(catalog coursechat.Catalog) *OutlineTool {
	return &OutlineTool{catalog: catalog}
}

type outlineArgs struct {
	CourseName string `json:"course_name"`
}

// Schema returns the tool definition sent to the model.
func (t *OutlineTool) Schema() coursechat.ToolSchema {
	return coursechat.ToolSchema{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course including its title, link, and full list of lessons. Use this when users ask about course structure, what topics are covered, lesson lists, or course overview.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"course_name": {
					"type": "string",
					"description": "Course title to get outline for (partial matches work, e.g. 'MCP', 'Introduction')"
				}
			},
			"required": ["course_name"]
		}`),
	}
}

// Execute resolves the course name and formats its outline. All
// failures come back as text so the model can react to them.
func (t *OutlineTool) Execute(ctx context.Context, args json.RawMessage) string {
	var a outlineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Sprintf("invalid arguments: %s", err)
	}
	if a.CourseName == "" {
		return "course_name is required"
	}

	title, err := t.catalog.ResolveCourseName(ctx, a.CourseName)
	if err != nil {
		if errors.Is(err, coursechat.ErrCourseNotFound) {
			return fmt.Sprintf("No course found matching '%s'.", a.CourseName)
		}
		return fmt.Sprintf("Error retrieving course data: %s", err)
	}

	outline, err := t.catalog.Outline(ctx, title)
	if err != nil {
		return fmt.Sprintf("Error retrieving course data: %s", err)
	}

	return formatOutline(outline)
}

func formatOutline(outline coursechat.CourseOutline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", outline.Title)
	if outline.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", outline.Link)
	}
	b.WriteString("\n")

	if len(outline.Lessons) == 0 {
		b.WriteString("No structured lesson list available.")
		return b.String()
	}

	lessons := make([]coursechat.LessonRef, len(outline.Lessons))
	copy(lessons, outline.Lessons)
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Number < lessons[j].Number })

	fmt.Fprintf(&b, "Lessons (%d total):\n", len(lessons))
	for i, lesson := range lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s", lesson.Number, lesson.Title)
		if i < len(lessons)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}
