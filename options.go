package docqa

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/domain"
)

// Embedder is the full embedding contract the pipeline needs: single texts
// on the query path, batches on the write path.
type Embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// Option configures Open.
type Option func(*clientConfig)

type clientConfig struct {
	cfg      *config.Config
	indexDir string
	topK     int
	logger   *zap.Logger

	// Provider overrides, primarily for tests and embedded use.
	embedder  Embedder
	generator domain.Generator
}

// WithConfig supplies a configuration instead of loading config/<ENV>.yaml.
func WithConfig(cfg config.Config) Option {
	return func(c *clientConfig) { c.cfg = &cfg }
}

// WithIndexDir overrides the index directory.
func WithIndexDir(dir string) Option {
	return func(c *clientConfig) { c.indexDir = dir }
}

// WithTopK overrides how many segments condition each answer.
func WithTopK(k int) Option {
	return func(c *clientConfig) { c.topK = k }
}

// WithLogger supplies a logger; zap.NewNop() is the default.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

// WithEmbedder replaces the hosted embedding provider.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithGenerator replaces the hosted completion provider.
func WithGenerator(g domain.Generator) Option {
	return func(c *clientConfig) { c.generator = g }
}
