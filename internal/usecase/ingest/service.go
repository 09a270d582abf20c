// Package ingest runs the write pipeline: load a PDF, embed its segments,
// add them to the index, persist the artifact pair.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// Report summarizes one successful ingestion.
type Report struct {
	Document domain.Document
	Segments int
}

// Service ingests documents into the vector index.
type Service struct {
	loader Loader
	embed  Embedder
	index  Index
	logger *zap.Logger
}

// New creates an ingestion service.
func New(loader Loader, embed Embedder, index Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{loader: loader, embed: embed, index: index, logger: logger}
}

// IngestFile runs the full write pipeline for one PDF. Any stage failure
// aborts this ingestion only; the index keeps its pre-call persisted state
// usable (a failed Persist leaves the in-memory additions for the next
// successful Persist to pick up).
func (s *Service) IngestFile(ctx context.Context, path string) (Report, error) {
	doc, segs, err := s.loader.Load(path)
	if err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}

	texts := make([]string, len(segs))
	for i, seg := range segs {
		texts[i] = seg.Text
	}

	res, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("embed %d segments of %s: %w", len(segs), doc.Name, err)
	}

	if err := s.index.Add(segs, res.Embeddings); err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("index %s: %w", doc.Name, err)
	}

	if err := s.index.Persist(ctx); err != nil {
		metrics.DocumentsIngestedTotal.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("persist after %s: %w", doc.Name, err)
	}

	metrics.DocumentsIngestedTotal.WithLabelValues("ok").Inc()
	metrics.SegmentsIndexedTotal.Add(float64(len(segs)))
	metrics.IndexSegments.Set(float64(s.index.Len()))

	s.logger.Info("document ingested",
		zap.String("document", doc.Name),
		zap.Int("pages", doc.Pages),
		zap.Int("segments", len(segs)),
		zap.Int("embedding_tokens", res.TotalTokens),
		zap.Int("index_segments", s.index.Len()),
	)

	return Report{Document: doc, Segments: len(segs)}, nil
}

// IngestDir ingests every *.pdf in dir, sorted by name. Files already
// present in the index are skipped, so a restart does not re-embed the
// whole directory. Per-file failures are collected, not fatal: one bad PDF
// must not block the rest.
func (s *Service) IngestDir(ctx context.Context, dir string) ([]Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrIngestion, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var reports []Report
	var errs []error
	for _, name := range names {
		if s.index.HasDocument(name) {
			s.logger.Debug("already indexed, skipping", zap.String("document", name))
			continue
		}
		rep, err := s.IngestFile(ctx, filepath.Join(dir, name))
		if err != nil {
			s.logger.Warn("ingestion failed", zap.String("document", name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		reports = append(reports, rep)
	}

	return reports, errors.Join(errs...)
}
