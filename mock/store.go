package mock

import (
	"context"

	"github.com/coursechat/coursechat"
)

// Interface compliance checks.
var (
	_ coursechat.Searcher = (*Searcher)(nil)
	_ coursechat.Catalog  = (*Catalog)(nil)
)

// Searcher is a test double for coursechat.Searcher.
// Set SearchFn before calling Search.
type Searcher struct {
	SearchFn func(ctx context.Context, query, courseName string, lessonNumber *int) ([]coursechat.SearchResult, error)
}

// Search delegates to SearchFn.
func (s *Searcher) Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]coursechat.SearchResult, error) {
	return s.SearchFn(ctx, query, courseName, lessonNumber)
}

// Catalog is a test double for coursechat.Catalog.
// Set the function fields for the methods you need.
type Catalog struct {
	ResolveCourseNameFn func(ctx context.Context, partial string) (string, error)
	OutlineFn           func(ctx context.Context, title string) (coursechat.CourseOutline, error)
	LessonLinkFn        func(ctx context.Context, courseTitle string, lesson int) (string, error)
}

// ResolveCourseName delegates to ResolveCourseNameFn.
func (c *Catalog) ResolveCourseName(ctx context.Context, partial string) (string, error) {
	return c.ResolveCourseNameFn(ctx, partial)
}

// Outline delegates to OutlineFn.
func (c *Catalog) Outline(ctx context.Context, title string) (coursechat.CourseOutline, error) {
	return c.OutlineFn(ctx, title)
}

// LessonLink delegates to LessonLinkFn.
func (c *Catalog) LessonLink(ctx context.Context, courseTitle string, lesson int) (string, error) {
	return c.LessonLinkFn(ctx, courseTitle, lesson)
}
