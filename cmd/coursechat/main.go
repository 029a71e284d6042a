// Command coursechat serves and queries a course materials assistant.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coursechat/coursechat"
	"github.com/coursechat/coursechat/anthropic"
	"github.com/coursechat/coursechat/config"
	"github.com/coursechat/coursechat/gateway"
	"github.com/coursechat/coursechat/gemini"
	"github.com/coursechat/coursechat/generator"
	"github.com/coursechat/coursechat/ingest"
	"github.com/coursechat/coursechat/rag"
	"github.com/coursechat/coursechat/session"
	"github.com/coursechat/coursechat/vectorstore"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "coursechat",
	Short: "coursechat - course materials assistant",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ingest course documents and serve the HTTP API",
	RunE:  runServe,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load course documents into the vector store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question from the command line",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file")
	rootCmd.AddCommand(serveCmd, ingestCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openStore(cfg config.Config, logger *slog.Logger) (*vectorstore.Store, error) {
	embedder := vectorstore.NewEmbedder(vectorstore.EmbedderConfig{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKey:    cfg.Embedding.APIKey,
		Model:     cfg.Embedding.Model,
		BatchSize: cfg.Embedding.BatchSize,
	})
	return vectorstore.Open(cfg.Store.Path, embedder,
		vectorstore.WithMaxResults(cfg.Store.MaxResults),
		vectorstore.WithSimilarityThreshold(cfg.Store.SimilarityThreshold),
		vectorstore.WithLogger(logger),
	)
}

func newProvider(ctx context.Context, cfg config.Config) (coursechat.Provider, error) {
	if cfg.Generator.APIKey == "" {
		return nil, fmt.Errorf("generator.api_key is not set")
	}
	switch cfg.Generator.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, cfg.Generator.APIKey)
	default:
		return anthropic.New(cfg.Generator.APIKey), nil
	}
}

func newSystem(ctx context.Context, cfg config.Config, logger *slog.Logger, store *vectorstore.Store) (*rag.System, error) {
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	genOpts := []generator.Option{
		generator.WithMaxTokens(cfg.Generator.MaxTokens),
		generator.WithLogger(logger),
	}
	if cfg.Generator.Model != "" {
		genOpts = append(genOpts, generator.WithModel(cfg.Generator.Model))
	}

	return rag.New(rag.Config{
		Generator: generator.New(provider, genOpts...),
		Searcher:  store,
		Catalog:   store,
		Stats:     store,
		Sessions:  session.NewManager(session.WithMaxHistory(cfg.Sessions.MaxHistory)),
		Logger:    logger,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Ingest.DocsDir != "" {
		if _, statErr := os.Stat(cfg.Ingest.DocsDir); statErr == nil {
			ingestor := ingest.New(store,
				ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
				ingest.WithLogger(logger),
			)
			courses, chunks, err := ingestor.IngestDir(ctx, cfg.Ingest.DocsDir)
			if err != nil {
				return err
			}
			logger.Info("startup ingestion complete", "courses", courses, "chunks", chunks)
		}
	}

	system, err := newSystem(ctx, cfg, logger, store)
	if err != nil {
		return err
	}

	server := gateway.New(cfg.Gateway.Addr(), system, gateway.WithLogger(logger))
	return server.ListenAndServe(ctx)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	dir := cfg.Ingest.DocsDir
	if len(args) > 0 {
		dir = args[0]
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ingestor := ingest.New(store,
		ingest.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		ingest.WithLogger(logger),
	)
	courses, chunks, err := ingestor.IngestDir(cmd.Context(), dir)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d courses (%d chunks)\n", courses, chunks)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	system, err := newSystem(ctx, cfg, logger, store)
	if err != nil {
		return err
	}

	answer, sources, err := system.Answer(ctx, args[0], system.NewSession())
	if err != nil {
		return err
	}

	fmt.Println(answer)
	if len(sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range sources {
			if source.Link != "" {
				fmt.Printf("  - %s (%s)\n", source.Text, source.Link)
			} else {
				fmt.Printf("  - %s\n", source.Text)
			}
		}
	}
	return nil
}
