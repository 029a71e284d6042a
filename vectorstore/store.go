// Package vectorstore implements the course content store: course
// metadata and content chunks persisted in SQLite, searched by cosine
// similarity over embedding vectors.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/coursechat/coursechat"
)

const (
	defaultMaxResults          = 5
	defaultSimilarityThreshold = 0.3
)

const schema = `
CREATE TABLE IF NOT EXISTS courses (
	title        TEXT PRIMARY KEY,
	link         TEXT NOT NULL DEFAULT '',
	instructor   TEXT NOT NULL DEFAULT '',
	lessons_json TEXT NOT NULL DEFAULT '[]',
	embedding    BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	course_title  TEXT NOT NULL,
	lesson_number INTEGER,
	chunk_index   INTEGER NOT NULL,
	content       TEXT NOT NULL,
	embedding     BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_course ON chunks(course_title);
`

// Chunk is one piece of course content to be indexed.
type Chunk struct {
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
	Content      string
}

// Store persists courses and chunks in SQLite and serves semantic
// search over them. It implements both store collaborator contracts.
type Store struct {
	db         *sql.DB
	embedder   Embedder
	logger     *slog.Logger
	threshold  float64
	maxResults int
}

var (
	_ coursechat.Searcher = (*Store)(nil)
	_ coursechat.Catalog  = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithMaxResults sets how many chunks Search returns at most.
func WithMaxResults(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithSimilarityThreshold sets the minimum cosine similarity for
// course name resolution.
func WithSimilarityThreshold(t float64) Option {
	return func(s *Store) { s.threshold = t }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens or creates the store at path. Use ":memory:" for an
// ephemeral store.
func Open(path string, embedder Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("open store: nil embedder")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("open store: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store: create schema: %w", err)
	}

	s := &Store{
		db:         db,
		embedder:   embedder,
		logger:     slog.Default(),
		maxResults: defaultMaxResults,
		threshold:  defaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddCourse inserts or replaces a course's catalog entry. The title is
// embedded so partial names can resolve to it semantically.
func (s *Store) AddCourse(ctx context.Context, outline coursechat.CourseOutline) error {
	if outline.Title == "" {
		return fmt.Errorf("add course: empty title")
	}

	vector, err := s.embedder.Embed(ctx, outline.Title)
	if err != nil {
		return fmt.Errorf("add course %q: %w", outline.Title, err)
	}
	blob, err := encodeVector(vector)
	if err != nil {
		return fmt.Errorf("add course %q: %w", outline.Title, err)
	}

	lessons := outline.Lessons
	if lessons == nil {
		lessons = []coursechat.LessonRef{}
	}
	lessonsJSON, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("add course %q: marshal lessons: %w", outline.Title, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO courses (title, link, instructor, lessons_json, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			link = excluded.link,
			instructor = excluded.instructor,
			lessons_json = excluded.lessons_json,
			embedding = excluded.embedding`,
		outline.Title, outline.Link, outline.Instructor, string(lessonsJSON), blob)
	if err != nil {
		return fmt.Errorf("add course %q: %w", outline.Title, err)
	}
	return nil
}

// HasCourse reports whether a course with this exact title exists.
func (s *Store) HasCourse(ctx context.Context, title string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courses WHERE title = ?`, title).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has course %q: %w", title, err)
	}
	return n > 0, nil
}

// AddChunks embeds and inserts content chunks in one transaction.
// Existing chunks for the same course are replaced, so re-adding a
// course's content is idempotent.
func (s *Store) AddChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	defer tx.Rollback()

	courses := map[string]struct{}{}
	for _, c := range chunks {
		courses[c.CourseTitle] = struct{}{}
	}
	for title := range courses {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE course_title = ?`, title); err != nil {
			return fmt.Errorf("add chunks: clear course %q: %w", title, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (course_title, lesson_number, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		blob, err := encodeVector(vectors[i])
		if err != nil {
			return fmt.Errorf("add chunks: chunk %d: %w", i, err)
		}
		var lesson any
		if c.LessonNumber != nil {
			lesson = *c.LessonNumber
		}
		if _, err := stmt.ExecContext(ctx, c.CourseTitle, lesson, c.ChunkIndex, c.Content, blob); err != nil {
			return fmt.Errorf("add chunks: chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}
	return nil
}

type scoredResult struct {
	result coursechat.SearchResult
	score  float64
}

// courseNotFoundError carries the user-facing message while matching
// the sentinel via errors.Is.
type courseNotFoundError struct {
	name string
}

func (e *courseNotFoundError) Error() string {
	return fmt.Sprintf("No course found matching '%s'", e.name)
}

func (e *courseNotFoundError) Is(target error) bool {
	return target == coursechat.ErrCourseNotFound
}

// Search finds the chunks most similar to the query, optionally
// filtered to one course and one lesson. The course name is resolved
// semantically, so partial names match.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]coursechat.SearchResult, error) {
	var resolvedTitle string
	if courseName != "" {
		title, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			if errors.Is(err, coursechat.ErrCourseNotFound) {
				return nil, &courseNotFoundError{name: courseName}
			}
			return nil, fmt.Errorf("search: %w", err)
		}
		resolvedTitle = title
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	sqlQuery := `SELECT course_title, lesson_number, content, embedding FROM chunks`
	var args []any
	var conds []string
	if resolvedTitle != "" {
		conds = append(conds, "course_title = ?")
		args = append(args, resolvedTitle)
	}
	if lessonNumber != nil {
		conds = append(conds, "lesson_number = ?")
		args = append(args, *lessonNumber)
	}
	for i, cond := range conds {
		if i == 0 {
			sqlQuery += " WHERE " + cond
		} else {
			sqlQuery += " AND " + cond
		}
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var scored []scoredResult
	for rows.Next() {
		var (
			title   string
			lesson  sql.NullInt64
			content string
			blob    []byte
		)
		if err := rows.Scan(&title, &lesson, &content, &blob); err != nil {
			return nil, fmt.Errorf("search: scan chunk: %w", err)
		}

		vector, err := decodeVector(blob)
		if err != nil {
			s.logger.Warn("skipping chunk with bad embedding", "course", title, "error", err)
			continue
		}
		score, err := cosineSimilarity(queryVector, vector)
		if err != nil {
			s.logger.Warn("skipping chunk with mismatched embedding", "course", title, "error", err)
			continue
		}

		result := coursechat.SearchResult{Content: content, CourseTitle: title}
		if lesson.Valid {
			n := int(lesson.Int64)
			result.LessonNumber = &n
		}
		scored = append(scored, scoredResult{result: result, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > s.maxResults {
		scored = scored[:s.maxResults]
	}

	results := make([]coursechat.SearchResult, len(scored))
	for i, sc := range scored {
		results[i] = sc.result
	}
	return results, nil
}

// ResolveCourseName maps a partial course name to the canonical title
// of the most similar course. Courses below the similarity threshold
// do not match.
func (s *Store) ResolveCourseName(ctx context.Context, partial string) (string, error) {
	partialVector, err := s.embedder.Embed(ctx, partial)
	if err != nil {
		return "", fmt.Errorf("resolve course name: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT title, embedding FROM courses`)
	if err != nil {
		return "", fmt.Errorf("resolve course name: %w", err)
	}
	defer rows.Close()

	bestScore := -1.0
	bestTitle := ""
	for rows.Next() {
		var (
			title string
			blob  []byte
		)
		if err := rows.Scan(&title, &blob); err != nil {
			return "", fmt.Errorf("resolve course name: scan course: %w", err)
		}
		vector, err := decodeVector(blob)
		if err != nil {
			s.logger.Warn("skipping course with bad title embedding", "course", title, "error", err)
			continue
		}
		score, err := cosineSimilarity(partialVector, vector)
		if err != nil {
			s.logger.Warn("skipping course with mismatched title embedding", "course", title, "error", err)
			continue
		}
		if score > bestScore {
			bestScore = score
			bestTitle = title
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve course name: %w", err)
	}

	if bestTitle == "" || bestScore < s.threshold {
		return "", fmt.Errorf("resolve course name %q: %w", partial, coursechat.ErrCourseNotFound)
	}
	return bestTitle, nil
}

// Outline returns a course's catalog metadata. A malformed stored
// lessons list yields an empty Lessons slice, not an error.
func (s *Store) Outline(ctx context.Context, title string) (coursechat.CourseOutline, error) {
	var (
		outline     coursechat.CourseOutline
		lessonsJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, link, instructor, lessons_json FROM courses WHERE title = ?`, title).
		Scan(&outline.Title, &outline.Link, &outline.Instructor, &lessonsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return coursechat.CourseOutline{}, fmt.Errorf("outline %q: %w", title, coursechat.ErrCourseNotFound)
	}
	if err != nil {
		return coursechat.CourseOutline{}, fmt.Errorf("outline %q: %w", title, err)
	}

	if err := json.Unmarshal([]byte(lessonsJSON), &outline.Lessons); err != nil {
		s.logger.Warn("malformed lessons list", "course", title, "error", err)
		outline.Lessons = nil
	}
	return outline, nil
}

// LessonLink returns the recorded link for a lesson, or "" when the
// lesson has none or does not exist.
func (s *Store) LessonLink(ctx context.Context, courseTitle string, lesson int) (string, error) {
	outline, err := s.Outline(ctx, courseTitle)
	if err != nil {
		if errors.Is(err, coursechat.ErrCourseNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("lesson link: %w", err)
	}
	for _, l := range outline.Lessons {
		if l.Number == lesson {
			return l.Link, nil
		}
	}
	return "", nil
}

// CourseCount returns how many courses are in the catalog.
func (s *Store) CourseCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("course count: %w", err)
	}
	return n, nil
}

// CourseTitles returns all course titles in alphabetical order.
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("course titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("course titles: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("course titles: %w", err)
	}
	return titles, nil
}

// Clear removes all courses and chunks.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}
