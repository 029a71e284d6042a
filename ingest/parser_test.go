package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `Course Title: Building Toward Computer Use
Course Link: https://example.com/computer-use
Course Instructor: Colt Steele

Lesson 0: Introduction
Lesson Link: https://example.com/computer-use/0
Welcome to the course. This lesson covers the basics.

Lesson 1: Tool Use
Models can call tools. Tools need schemas.
`

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.NewReader(sampleDocument), "fallback")
	require.NoError(t, err)

	assert.Equal(t, "Building Toward Computer Use", doc.Outline.Title)
	assert.Equal(t, "https://example.com/computer-use", doc.Outline.Link)
	assert.Equal(t, "Colt Steele", doc.Outline.Instructor)
}

func TestParseLessons(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.NewReader(sampleDocument), "fallback")
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)

	first := doc.Sections[0]
	require.NotNil(t, first.LessonNumber)
	assert.Equal(t, 0, *first.LessonNumber)
	assert.Equal(t, "Introduction", first.LessonTitle)
	assert.Equal(t, "https://example.com/computer-use/0", first.LessonLink)
	assert.Equal(t, "Welcome to the course. This lesson covers the basics.", first.Content)

	second := doc.Sections[1]
	require.NotNil(t, second.LessonNumber)
	assert.Equal(t, 1, *second.LessonNumber)
	assert.Equal(t, "Tool Use", second.LessonTitle)
	assert.Empty(t, second.LessonLink)

	require.Len(t, doc.Outline.Lessons, 2)
	assert.Equal(t, "Introduction", doc.Outline.Lessons[0].Title)
	assert.Equal(t, "https://example.com/computer-use/0", doc.Outline.Lessons[0].Link)
}

func TestParseFallbackTitle(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.NewReader("Just some text without headers."), "my_course")
	require.NoError(t, err)
	assert.Equal(t, "my_course", doc.Outline.Title)
	require.Len(t, doc.Sections, 1)
	assert.Nil(t, doc.Sections[0].LessonNumber)
}

func TestParseContentBeforeFirstLesson(t *testing.T) {
	t.Parallel()

	input := "Course Title: T\n\nSome preamble text.\n\nLesson 1: Start\nLesson content.\n"
	doc, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	assert.Nil(t, doc.Sections[0].LessonNumber)
	assert.Equal(t, "Some preamble text.", doc.Sections[0].Content)
	require.NotNil(t, doc.Sections[1].LessonNumber)
}

func TestParseLessonLinkOnlyAtSectionStart(t *testing.T) {
	t.Parallel()

	input := "Course Title: T\n\nLesson 1: Start\nBody text first.\nLesson Link: https://late.example.com\n"
	doc, err := Parse(strings.NewReader(input), "")
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	assert.Empty(t, doc.Sections[0].LessonLink)
	assert.Contains(t, doc.Sections[0].Content, "Lesson Link: https://late.example.com")
}

func TestParseRequiresTitle(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("No headers here."), "")
	assert.Error(t, err)
}
