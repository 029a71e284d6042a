package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEmbeddingBatchSize = 16
	defaultEmbeddingTimeout   = 30 * time.Second
)

// Embedder turns text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderConfig configures an HTTP embedder.
type EmbedderConfig struct {
	BaseURL   string // endpoint root, e.g. https://api.openai.com or an Ollama host
	APIKey    string
	Model     string
	BatchSize int           // texts per request; 0 = default
	Timeout   time.Duration // per-request timeout; 0 = default
}

// httpEmbedder calls an OpenAI-compatible /v1/embeddings endpoint.
type httpEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	batchSize  int
	httpClient *http.Client
}

// Interface compliance check.
var _ Embedder = (*httpEmbedder)(nil)

// NewEmbedder creates an Embedder over an OpenAI-compatible embeddings
// API.
func NewEmbedder(cfg EmbedderConfig) Embedder {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultEmbeddingBatchSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}
	return &httpEmbedder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		batchSize:  batchSize,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

func (e *httpEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("embed: empty text")
	}

	vectors, err := e.request(ctx, []string{trimmed})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vectors[0], nil
}

func (e *httpEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embed batch: empty input")
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.request(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *httpEmbedder) request(ctx context.Context, input []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embeddings API: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(decoded.Data) != len(input) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(decoded.Data), len(input))
	}

	// The API reports an index per vector; order by it rather than
	// trusting response order.
	vectors := make([][]float32, len(input))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(input) {
			return nil, fmt.Errorf("embeddings API returned out-of-range index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embeddings API returned empty vector at index %d", i)
		}
	}
	return vectors, nil
}
