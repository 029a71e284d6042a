package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedderSendsRequest(t *testing.T) {
	t.Parallel()

	var captured embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{
			{Index: 0, Embedding: []float32{0.1, 0.2}},
		}})
	}))
	defer server.Close()

	embedder := NewEmbedder(EmbedderConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "text-embedding-3-small",
	})

	vector, err := embedder.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vector)
	assert.Equal(t, "text-embedding-3-small", captured.Model)
	assert.Equal(t, []string{"hello world"}, captured.Input)
}

func TestEmbedderOrdersByIndex(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{
			{Index: 1, Embedding: []float32{2}},
			{Index: 0, Embedding: []float32{1}},
		}})
	}))
	defer server.Close()

	embedder := NewEmbedder(EmbedderConfig{BaseURL: server.URL, Model: "m"})

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1}, vectors[0])
	assert.Equal(t, []float32{2}, vectors[1])
}

func TestEmbedderSplitsBatches(t *testing.T) {
	t.Parallel()

	var requests [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req.Input)

		data := make([]embeddingData, len(req.Input))
		for i := range req.Input {
			data[i] = embeddingData{Index: i, Embedding: []float32{float32(i)}}
		}
		json.NewEncoder(w).Encode(embeddingResponse{Data: data})
	}))
	defer server.Close()

	embedder := NewEmbedder(EmbedderConfig{BaseURL: server.URL, Model: "m", BatchSize: 2})

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	require.Len(t, requests, 2)
	assert.Equal(t, []string{"a", "b"}, requests[0])
	assert.Equal(t, []string{"c"}, requests[1])
}

func TestEmbedderHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	embedder := NewEmbedder(EmbedderConfig{BaseURL: server.URL, Model: "m"})

	_, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestEmbedderVectorCountMismatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{
			{Index: 0, Embedding: []float32{1}},
		}})
	}))
	defer server.Close()

	embedder := NewEmbedder(EmbedderConfig{BaseURL: server.URL, Model: "m"})

	_, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbedderRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	embedder := NewEmbedder(EmbedderConfig{BaseURL: "http://localhost:0", Model: "m"})

	_, err := embedder.Embed(context.Background(), "   ")
	assert.Error(t, err)

	_, err = embedder.EmbedBatch(context.Background(), nil)
	assert.Error(t, err)
}
