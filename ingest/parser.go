// Package ingest parses course documents and loads them into the
// vector store as embedded chunks.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/coursechat/coursechat"
)

// Section is one lesson's worth of document content. A nil
// LessonNumber marks content that precedes the first lesson header.
type Section struct {
	LessonNumber *int
	LessonTitle  string
	LessonLink   string
	Content      string
}

// Document is a parsed course file.
type Document struct {
	Outline  coursechat.CourseOutline
	Sections []Section
}

var lessonHeaderRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Parse reads a course document. The expected format is a header block
// of "Course Title:", "Course Link:" and "Course Instructor:" lines,
// followed by "Lesson N: Title" sections, each optionally opening with
// a "Lesson Link:" line. fallbackTitle is used when the document has
// no title header.
func Parse(r io.Reader, fallbackTitle string) (Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := Document{Outline: coursechat.CourseOutline{Title: fallbackTitle}}

	var (
		current      *Section
		contentLines []string
		inHeader     = true
	)

	flush := func() {
		if current == nil && len(contentLines) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(contentLines, "\n"))
		if current != nil {
			current.Content = content
			doc.Sections = append(doc.Sections, *current)
			doc.Outline.Lessons = append(doc.Outline.Lessons, coursechat.LessonRef{
				Number: *current.LessonNumber,
				Title:  current.LessonTitle,
				Link:   current.LessonLink,
			})
		} else if content != "" {
			doc.Sections = append(doc.Sections, Section{Content: content})
		}
		current = nil
		contentLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if inHeader {
			switch {
			case strings.HasPrefix(trimmed, "Course Title:"):
				doc.Outline.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
				continue
			case strings.HasPrefix(trimmed, "Course Link:"):
				doc.Outline.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
				continue
			case strings.HasPrefix(trimmed, "Course Instructor:"):
				doc.Outline.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
				continue
			case trimmed == "":
				continue
			}
			inHeader = false
		}

		if m := lessonHeaderRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return Document{}, fmt.Errorf("parse: lesson number %q: %w", m[1], err)
			}
			current = &Section{LessonNumber: &number, LessonTitle: strings.TrimSpace(m[2])}
			continue
		}

		if current != nil && current.LessonLink == "" && len(contentLines) == 0 &&
			strings.HasPrefix(trimmed, "Lesson Link:") {
			current.LessonLink = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			continue
		}

		contentLines = append(contentLines, line)
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("parse: %w", err)
	}
	flush()

	if doc.Outline.Title == "" {
		return Document{}, fmt.Errorf("parse: document has no course title")
	}
	return doc, nil
}
