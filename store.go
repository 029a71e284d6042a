package coursechat

import "context"

// SearchResult is one matching chunk of course content.
type SearchResult struct {
	Content      string
	CourseTitle  string
	LessonNumber *int // nil when the chunk is not tied to a lesson
}

// Searcher is the vector-store search collaborator. CourseName is
// resolved by the implementation's own semantic best-match logic, never
// exact-match only. An empty result slice is a "no results" condition
// distinct from an error.
type Searcher interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]SearchResult, error)
}

// LessonRef identifies one lesson within a course outline. The JSON tags
// match the serialized lessons list stored in the course catalog.
type LessonRef struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// CourseOutline is the catalog metadata for one course.
type CourseOutline struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []LessonRef
}

// Catalog is the vector-store catalog collaborator.
type Catalog interface {
	// ResolveCourseName maps a partial course name to its canonical
	// title. Returns ErrCourseNotFound when nothing resembles it.
	ResolveCourseName(ctx context.Context, partial string) (string, error)

	// Outline returns the outline metadata for a canonical title. A
	// malformed stored lessons list yields an empty Lessons slice, not
	// an error.
	Outline(ctx context.Context, title string) (CourseOutline, error)

	// LessonLink returns the link for a lesson, or "" when none is
	// recorded.
	LessonLink(ctx context.Context, courseTitle string, lesson int) (string, error)
}
