package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coursechat/coursechat"
	"github.com/coursechat/coursechat/vectorstore"
)

// Store is the subset of the vector store the ingestor writes to.
type Store interface {
	HasCourse(ctx context.Context, title string) (bool, error)
	AddCourse(ctx context.Context, outline coursechat.CourseOutline) error
	AddChunks(ctx context.Context, chunks []vectorstore.Chunk) error
}

// Ingestor loads course documents into a Store.
type Ingestor struct {
	store        Store
	logger       *slog.Logger
	chunkSize    int
	chunkOverlap int
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithChunking sets the chunk size and overlap in characters.
func WithChunking(size, overlap int) Option {
	return func(i *Ingestor) {
		if size > 0 {
			i.chunkSize = size
		}
		if overlap >= 0 && overlap < i.chunkSize {
			i.chunkOverlap = overlap
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingestor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an Ingestor writing to store.
func New(store Store, opts ...Option) *Ingestor {
	i := &Ingestor{
		store:        store,
		logger:       slog.Default(),
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IngestFile parses and stores one course document. Courses whose
// title is already stored are skipped, so re-running ingestion is
// idempotent. It returns the number of chunks added, zero when
// skipped.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}
	defer f.Close()

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := Parse(f, fallback)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}

	exists, err := i.store.HasCourse(ctx, doc.Outline.Title)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}
	if exists {
		i.logger.Debug("course already stored, skipping", "course", doc.Outline.Title)
		return 0, nil
	}

	chunks := i.buildChunks(doc)
	if err := i.store.AddCourse(ctx, doc.Outline); err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}
	if err := i.store.AddChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}

	i.logger.Info("ingested course", "course", doc.Outline.Title, "chunks", len(chunks))
	return len(chunks), nil
}

// IngestDir ingests every regular file in dir, in name order. It
// returns how many courses and chunks were added.
func (i *Ingestor) IngestDir(ctx context.Context, dir string) (courses, chunks int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("ingest dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		n, err := i.IngestFile(ctx, filepath.Join(dir, name))
		if err != nil {
			return courses, chunks, err
		}
		if n > 0 {
			courses++
			chunks += n
		}
	}
	return courses, chunks, nil
}

// buildChunks chunks every section and prefixes the first chunk of
// each lesson with its lesson context so searches for "lesson N" land
// on it.
func (i *Ingestor) buildChunks(doc Document) []vectorstore.Chunk {
	var chunks []vectorstore.Chunk
	index := 0

	for _, section := range doc.Sections {
		pieces := chunkText(section.Content, i.chunkSize, i.chunkOverlap)
		for j, piece := range pieces {
			if j == 0 {
				if section.LessonNumber != nil {
					piece = fmt.Sprintf("Lesson %d content: %s", *section.LessonNumber, piece)
				} else {
					piece = fmt.Sprintf("Course %s content: %s", doc.Outline.Title, piece)
				}
			}
			chunks = append(chunks, vectorstore.Chunk{
				CourseTitle:  doc.Outline.Title,
				LessonNumber: section.LessonNumber,
				ChunkIndex:   index,
				Content:      piece,
			})
			index++
		}
	}
	return chunks
}
