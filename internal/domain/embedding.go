package domain

import "context"

// EmbeddingRecord pairs a submission ID with its fixed-length vector.
// One JSON array of these is persisted per conference edition.
type EmbeddingRecord struct {
	SubmissionID string    `json:"submission_id"`
	Embedding    []float32 `json:"embedding"`
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}
