package chat

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher is the read-side contract of the vector index.
type Searcher interface {
	Search(query []float32, k int) ([]domain.ScoredSegment, error)
}

// Generator opens a completion stream for the assembled prompt.
type Generator interface {
	Stream(ctx context.Context, messages []domain.Message) (domain.AnswerStream, error)
}
