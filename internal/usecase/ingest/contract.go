package ingest

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Loader reads a PDF into segments.
type Loader interface {
	Load(path string) (domain.Document, []domain.Segment, error)
}

// Embedder vectorizes segment texts in one call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Index is the write-side contract of the vector index.
type Index interface {
	Add(segments []domain.Segment, vectors [][]float32) error
	Persist(ctx context.Context) error
	Len() int
	HasDocument(name string) bool
}
