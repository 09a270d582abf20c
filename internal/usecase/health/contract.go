package health

import "context"

// IndexReader reports the state of the vector index.
type IndexReader interface {
	Len() int
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
