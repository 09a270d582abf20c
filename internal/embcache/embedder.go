// Package embcache decorates an Embedder with an in-process TTL cache.
// It serves the query path: the same question asked twice within the TTL
// costs one provider call.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// DefaultTTL bounds how long a cached query embedding stays valid.
const DefaultTTL = 10 * time.Minute

// Cached is a caching Embedder decorator.
type Cached struct {
	inner      domain.Embedder
	cache      *gocache.Cache
	cacheTotal *prometheus.CounterVec
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(inner domain.Embedder, ttl time.Duration, cacheTotal *prometheus.CounterVec) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{
		inner:      inner,
		cache:      gocache.New(ttl, 2*ttl),
		cacheTotal: cacheTotal,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full EmbeddingResult from inner.
func (c *Cached) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := cacheKey(text)

	if v, ok := c.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			c.incCache("hit")
			return domain.EmbeddingResult{Embedding: cloneVector(vec)}, nil
		}
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.cache.Set(key, cloneVector(result.Embedding), gocache.DefaultExpiration)
	return result, nil
}

// BatchEmbed serves each text from cache when possible and embeds only the
// misses through the inner embedder, in one call. Token usage counts the
// misses only.
func (c *Cached) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	embeddings := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if v, ok := c.cache.Get(cacheKey(text)); ok {
			if vec, ok := v.([]float32); ok {
				c.incCache("hit")
				embeddings[i] = cloneVector(vec)
				continue
			}
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missIdx) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}

	var res domain.BatchEmbeddingResult
	var err error
	if be, ok := c.inner.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, missTexts)
	} else {
		res, err = domain.BatchFallback(ctx, c.inner, missTexts)
	}
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed misses: %w", err)
	}
	if len(res.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner returned %d embeddings for %d texts",
			len(res.Embeddings), len(missTexts))
	}

	for j, i := range missIdx {
		embeddings[i] = res.Embeddings[j]
		c.cache.Set(cacheKey(texts[i]), cloneVector(res.Embeddings[j]), gocache.DefaultExpiration)
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (c *Cached) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the text so keys stay bounded regardless of input size.
func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// cloneVector копирует вектор: cache и caller не должны делить backing array.
func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
