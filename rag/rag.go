// Package rag wires the generator, tools, store and sessions into the
// retrieval-augmented question answering flow.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coursechat/coursechat"
	"github.com/coursechat/coursechat/generator"
	"github.com/coursechat/coursechat/session"
	"github.com/coursechat/coursechat/tools"
)

// CourseStats reports catalog-level analytics.
type CourseStats interface {
	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}

// Config holds the collaborators a System needs.
type Config struct {
	Generator *generator.Generator
	Searcher  coursechat.Searcher
	Catalog   coursechat.Catalog
	Stats     CourseStats
	Sessions  *session.Manager
	Logger    *slog.Logger
}

// System answers course questions: it runs the generator with the
// course tools, collects cited sources, and records conversation
// history per session.
type System struct {
	generator *generator.Generator
	searcher  coursechat.Searcher
	catalog   coursechat.Catalog
	stats     CourseStats
	sessions  *session.Manager
	logger    *slog.Logger
}

// New creates a System from its collaborators.
func New(cfg Config) (*System, error) {
	switch {
	case cfg.Generator == nil:
		return nil, fmt.Errorf("rag: nil generator")
	case cfg.Searcher == nil:
		return nil, fmt.Errorf("rag: nil searcher")
	case cfg.Catalog == nil:
		return nil, fmt.Errorf("rag: nil catalog")
	case cfg.Sessions == nil:
		return nil, fmt.Errorf("rag: nil session manager")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		generator: cfg.Generator,
		searcher:  cfg.Searcher,
		catalog:   cfg.Catalog,
		stats:     cfg.Stats,
		sessions:  cfg.Sessions,
		logger:    logger,
	}, nil
}

// NewSession starts a fresh conversation and returns its ID.
func (s *System) NewSession() string {
	return s.sessions.Create()
}

// DeleteSession removes a conversation and its history.
func (s *System) DeleteSession(id string) error {
	return s.sessions.Delete(id)
}

// Answer responds to a query within a session. It returns the answer
// text and the sources cited by any searches the model ran. Each call
// uses a fresh tool registry so sources never leak between queries.
func (s *System) Answer(ctx context.Context, query, sessionID string) (string, []coursechat.Source, error) {
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewSearchTool(s.searcher, s.catalog)); err != nil {
		return "", nil, fmt.Errorf("answer: %w", err)
	}
	if err := registry.Register(tools.NewOutlineTool(s.catalog)); err != nil {
		return "", nil, fmt.Errorf("answer: %w", err)
	}

	history := s.sessions.History(sessionID)
	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)

	answer, err := s.generator.Generate(ctx, prompt, history, registry.Schemas(), registry)
	if err != nil {
		return "", nil, fmt.Errorf("answer: %w", err)
	}

	sources := registry.Sources()
	registry.ClearSources()

	s.sessions.AddExchange(sessionID, query, answer)
	s.logger.Debug("answered query", "session", sessionID, "sources", len(sources))
	return answer, sources, nil
}

// Analytics describes the loaded catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// CatalogAnalytics reports how many courses are loaded and their
// titles.
func (s *System) CatalogAnalytics(ctx context.Context) (Analytics, error) {
	if s.stats == nil {
		return Analytics{CourseTitles: []string{}}, nil
	}

	count, err := s.stats.CourseCount(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("catalog analytics: %w", err)
	}
	titles, err := s.stats.CourseTitles(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("catalog analytics: %w", err)
	}
	if titles == nil {
		titles = []string{}
	}
	return Analytics{TotalCourses: count, CourseTitles: titles}, nil
}
