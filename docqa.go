// Package docqa answers questions about PDF documents: ingestion splits and
// embeds their text into a disk-persisted vector index, sessions retrieve
// the closest segments and stream a hosted-model completion over them.
package docqa

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/embcache"
	"github.com/kailas-cloud/docqa/internal/index"
	"github.com/kailas-cloud/docqa/internal/loader"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/transport/hf"
	chatuc "github.com/kailas-cloud/docqa/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
)

// Client wires the whole pipeline behind a small surface: ingest documents,
// open chat sessions, inspect the index.
type Client struct {
	cfg    config.Config
	logger *zap.Logger

	index   *index.Index
	ingest  *ingestuc.Service
	chat    *chatuc.Service
	health  *healthuc.Service
	docsDir string
}

// Open loads configuration, opens the persisted index, and builds the
// embedder chain and services. A missing provider credential or an
// inconsistent on-disk index pair fails here, before anything serves.
func Open(_ context.Context, opts ...Option) (*Client, error) {
	var cc clientConfig
	for _, o := range opts {
		o(&cc)
	}

	var cfg config.Config
	if cc.cfg != nil {
		cfg = *cc.cfg
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("docqa: invalid config: %w", err)
		}
	} else {
		loaded, err := config.Load(config.GetEnv())
		if err != nil {
			return nil, fmt.Errorf("docqa: load config: %w", err)
		}
		cfg = loaded
	}

	logger := cc.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterIngestMetrics()

	indexDir := cfg.Index.Dir
	if cc.indexDir != "" {
		indexDir = cc.indexDir
	}
	ix, err := index.Open(indexDir)
	if err != nil {
		return nil, fmt.Errorf("docqa: open index: %w", err)
	}
	metrics.IndexSegments.Set(float64(ix.Len()))

	// Base provider; the query path goes through the TTL cache, the write
	// path embeds every segment exactly once and skips it.
	var base Embedder
	if cc.embedder != nil {
		base = cc.embedder
	} else {
		base = hf.NewEmbedder(&hf.EmbedderConfig{
			APIKey:     cfg.Provider.APIKey,
			BaseURL:    cfg.Provider.BaseURL,
			Model:      cfg.Provider.Embedding.Model,
			Dimensions: cfg.Provider.Embedding.Dimensions,
			Logger:     logger,
		})
	}
	cached := embcache.New(base, time.Duration(cfg.Provider.Cache.TTLSec)*time.Second, metrics.EmbeddingCacheTotal)

	var generator domain.Generator
	if cc.generator != nil {
		generator = cc.generator
	} else {
		generator = hf.NewGenerator(&hf.GeneratorConfig{
			APIKey:      cfg.Provider.APIKey,
			BaseURL:     cfg.Provider.BaseURL,
			Model:       cfg.Provider.Generation.Model,
			MaxTokens:   cfg.Provider.Generation.MaxTokens,
			Temperature: cfg.Provider.Generation.Temperature,
			Logger:      logger,
		})
	}

	topK := cfg.Index.TopK
	if cc.topK > 0 {
		topK = cc.topK
	}

	var checker healthuc.EmbeddingChecker
	if hc, ok := base.(domain.HealthChecker); ok {
		checker = hc
	}

	pdfLoader := loader.New(loader.Config{})

	return &Client{
		cfg:     cfg,
		logger:  logger,
		index:   ix,
		ingest:  ingestuc.New(pdfLoader, base, ix, logger),
		chat:    chatuc.New(cached, ix, generator, logger).WithTopK(topK),
		health:  healthuc.New(ix, checker),
		docsDir: cfg.Documents.Dir,
	}, nil
}

// IngestFile loads, embeds, indexes, and persists one PDF.
func (c *Client) IngestFile(ctx context.Context, path string) (ingestuc.Report, error) {
	return c.ingest.IngestFile(ctx, path)
}

// IngestDir ingests every not-yet-indexed PDF in dir.
func (c *Client) IngestDir(ctx context.Context, dir string) ([]ingestuc.Report, error) {
	return c.ingest.IngestDir(ctx, dir)
}

// Session starts an empty conversation over the index.
func (c *Client) Session() *chatuc.Session {
	return c.chat.NewSession()
}

// Index exposes the underlying vector index.
func (c *Client) Index() *index.Index { return c.index }

// Ingest exposes the ingestion service for transports.
func (c *Client) Ingest() *ingestuc.Service { return c.ingest }

// Health exposes the health service for transports.
func (c *Client) Health() *healthuc.Service { return c.health }

// DocumentsDir is the configured watched directory.
func (c *Client) DocumentsDir() string { return c.docsDir }

// Config returns the effective configuration.
func (c *Client) Config() config.Config { return c.cfg }

// Close flushes the logger. The index needs no teardown: every successful
// ingestion already persisted it.
func (c *Client) Close() error {
	_ = c.logger.Sync()
	return nil
}
