package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursechat/coursechat"
	"github.com/coursechat/coursechat/vectorstore"
)

type fakeStore struct {
	courses map[string]coursechat.CourseOutline
	chunks  []vectorstore.Chunk
}

func newFakeStore() *fakeStore {
	return &fakeStore{courses: make(map[string]coursechat.CourseOutline)}
}

func (f *fakeStore) HasCourse(_ context.Context, title string) (bool, error) {
	_, ok := f.courses[title]
	return ok, nil
}

func (f *fakeStore) AddCourse(_ context.Context, outline coursechat.CourseOutline) error {
	f.courses[outline.Title] = outline
	return nil
}

func (f *fakeStore) AddChunks(_ context.Context, chunks []vectorstore.Chunk) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func writeDocument(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestFile(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	path := writeDocument(t, t.TempDir(), "course1.txt", sampleDocument)

	n, err := New(store).IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, len(store.chunks), n)
	require.NotEmpty(t, store.chunks)

	outline, ok := store.courses["Building Toward Computer Use"]
	require.True(t, ok)
	assert.Len(t, outline.Lessons, 2)

	// The first chunk of each lesson carries its lesson context.
	assert.Contains(t, store.chunks[0].Content, "Lesson 0 content:")
	require.NotNil(t, store.chunks[0].LessonNumber)
	assert.Equal(t, 0, *store.chunks[0].LessonNumber)

	// Chunk indexes are sequential across sections.
	for i, chunk := range store.chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
}

func TestIngestFileSkipsExistingCourse(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	path := writeDocument(t, t.TempDir(), "course1.txt", sampleDocument)
	ctx := context.Background()
	ingestor := New(store)

	first, err := ingestor.IngestFile(ctx, path)
	require.NoError(t, err)
	require.Greater(t, first, 0)

	second, err := ingestor.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, second)
	assert.Len(t, store.chunks, first)
}

func TestIngestFileFallbackTitle(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	path := writeDocument(t, t.TempDir(), "intro_to_go.txt", "Plain content without headers.")

	_, err := New(store).IngestFile(context.Background(), path)
	require.NoError(t, err)
	_, ok := store.courses["intro_to_go"]
	assert.True(t, ok)
}

func TestIngestDir(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	dir := t.TempDir()
	writeDocument(t, dir, "a.txt", sampleDocument)
	writeDocument(t, dir, "b.txt", "Course Title: Second Course\n\nLesson 1: Only\nSome content here.\n")

	courses, chunks, err := New(store).IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, courses)
	assert.Equal(t, len(store.chunks), chunks)
	assert.Len(t, store.courses, 2)
}

func TestIngestDirMissing(t *testing.T) {
	t.Parallel()

	_, _, err := New(newFakeStore()).IngestDir(context.Background(), "/nonexistent/path")
	assert.Error(t, err)
}

func TestIngestChunkingOptions(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	content := "Course Title: Chunky\n\nLesson 1: Long\n"
	for i := 0; i < 30; i++ {
		content += "This sentence pads the lesson body with enough text to split. "
	}
	path := writeDocument(t, t.TempDir(), "chunky.txt", content)

	n, err := New(store, WithChunking(200, 0)).IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Greater(t, n, 1)
}
