package vectorstore

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embeddings are stored as little-endian blobs:
// [4-byte dimension][N x 4-byte float32 values].
const headerSize = 4

func encodeVector(vector []float32) ([]byte, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("encode vector: empty vector")
	}

	blob := make([]byte, headerSize+len(vector)*4)
	binary.LittleEndian.PutUint32(blob, uint32(len(vector)))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[headerSize+i*4:], math.Float32bits(v))
	}
	return blob, nil
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob) < headerSize {
		return nil, fmt.Errorf("decode vector: blob too short: %d bytes", len(blob))
	}

	dim := int(binary.LittleEndian.Uint32(blob))
	if dim <= 0 || len(blob) != headerSize+dim*4 {
		return nil, fmt.Errorf("decode vector: dimension %d does not match payload %d", dim, len(blob)-headerSize)
	}

	vector := make([]float32, dim)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[headerSize+i*4:]))
	}
	return vector, nil
}

// cosineSimilarity computes cosine similarity for two vectors of equal
// dimension. Zero-norm vectors score zero rather than erroring: a chunk
// with a degenerate embedding should rank last, not break the search.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity: dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
