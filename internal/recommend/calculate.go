package recommend

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/domain"
)

// Embedding options accepted by Calculate.
const (
	// OptionLSA produces TF-IDF + truncated SVD embeddings (30 dimensions).
	OptionLSA = "lsa"
	// OptionSentEmbed delegates to a remote sentence-embedding provider.
	OptionSentEmbed = "sent_embed"
)

// LSADimensions is the reduced dimensionality of the LSA embeddings.
const LSADimensions = 30

// Calculator computes per-submission embeddings. The sentence-embedding mode
// requires a provider; the LSA mode is self-contained.
type Calculator struct {
	embedder domain.BatchEmbedder
	logger   *zap.Logger
}

// NewCalculator creates a Calculator. embedder may be nil when only the LSA
// mode is used.
func NewCalculator(embedder domain.BatchEmbedder, logger *zap.Logger) *Calculator {
	return &Calculator{embedder: embedder, logger: logger}
}

// Calculate computes one embedding record per submission. An empty input or
// an unrecognized option yields a nil result without an error; callers must
// check for emptiness.
func (c *Calculator) Calculate(
	ctx context.Context, subs []domain.Submission, option string,
) ([]domain.EmbeddingRecord, error) {
	if len(subs) == 0 {
		c.logger.Warn("no submissions to embed")
		return nil, nil
	}

	switch option {
	case OptionLSA:
		return c.calculateLSA(subs), nil
	case OptionSentEmbed:
		return c.calculateSentEmbed(ctx, subs)
	default:
		c.logger.Warn("unrecognized embedding option, specify lsa or sent_embed",
			zap.String("option", option))
		return nil, nil
	}
}

func (c *Calculator) calculateLSA(subs []domain.Submission) []domain.EmbeddingRecord {
	docs := make([]string, len(subs))
	for i, s := range subs {
		docs[i] = strings.ToLower(s.Title + " " + s.Abstract)
	}

	vectorizer := NewVectorizer(DefaultTFIDFOptions())
	rows := vectorizer.FitTransform(docs)
	reduced := TruncatedSVD(rows, vectorizer.VocabSize(), LSADimensions)
	if reduced == nil {
		c.logger.Warn("vocabulary too small for LSA embeddings",
			zap.Int("submissions", len(subs)),
			zap.Int("terms", vectorizer.VocabSize()))
		return nil
	}

	records := make([]domain.EmbeddingRecord, len(subs))
	for i, s := range subs {
		vec := make([]float32, len(reduced[i]))
		for j, v := range reduced[i] {
			vec[j] = float32(v)
		}
		records[i] = domain.EmbeddingRecord{SubmissionID: s.ID, Embedding: vec}
	}
	return records
}

func (c *Calculator) calculateSentEmbed(
	ctx context.Context, subs []domain.Submission,
) ([]domain.EmbeddingRecord, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("sent_embed requires an embedding provider: %w",
			domain.ErrEmbeddingProviderError)
	}

	texts := make([]string, len(subs))
	for i, s := range subs {
		texts[i] = s.Title + "[SEP]" + s.Abstract
	}

	res, err := c.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("batch embed: %w", err)
	}
	if len(res.Embeddings) != len(subs) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d submissions: %w",
			len(res.Embeddings), len(subs), domain.ErrEmbeddingProviderError)
	}

	records := make([]domain.EmbeddingRecord, len(subs))
	for i, s := range subs {
		records[i] = domain.EmbeddingRecord{SubmissionID: s.ID, Embedding: res.Embeddings[i]}
	}
	return records, nil
}
