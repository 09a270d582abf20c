package hf

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func TestEmbedder_Embed(t *testing.T) {
	expectedVec := []float32{0.1, 0.2, 0.3, 0.4}
	srv := newEmbeddingServer(t, expectedVec, 10)

	emb := NewEmbedder(&EmbedderConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
	})

	result, err := emb.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(result.Embedding) != len(expectedVec) {
		t.Fatalf("expected %d dimensions, got %d", len(expectedVec), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != expectedVec[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, expectedVec[i])
		}
	}
	if result.TotalTokens != 10 {
		t.Errorf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
}

func TestEmbedder_EmbedEmptyText(t *testing.T) {
	srv := newEmbeddingServer(t, []float32{1}, 0)
	emb := NewEmbedder(&EmbedderConfig{APIKey: "k", BaseURL: srv.URL})

	if _, err := emb.Embed(context.Background(), "   "); !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding for blank text, got %v", err)
	}
}

func TestEmbedder_EmbedAPIError(t *testing.T) {
	srv := newErrorServer(t, http.StatusUnauthorized, "invalid token")
	emb := NewEmbedder(&EmbedderConfig{APIKey: "bad", BaseURL: srv.URL})

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestEmbedder_BatchEmbed(t *testing.T) {
	srv := newEmbeddingServer(t, []float32{0.5, 0.6}, 12)
	emb := NewEmbedder(&EmbedderConfig{APIKey: "k", BaseURL: srv.URL})

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	for i, e := range res.Embeddings {
		if len(e) != 2 {
			t.Errorf("embedding %d has dimension %d, expected 2", i, len(e))
		}
	}
	if res.TotalTokens != 12 {
		t.Errorf("expected TotalTokens=12, got %d", res.TotalTokens)
	}
}

func TestEmbedder_BatchEmbedRejectsBlankEntry(t *testing.T) {
	srv := newEmbeddingServer(t, []float32{1}, 0)
	emb := NewEmbedder(&EmbedderConfig{APIKey: "k", BaseURL: srv.URL})

	if _, err := emb.BatchEmbed(context.Background(), []string{"ok", ""}); !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding for blank batch entry, got %v", err)
	}
}

func TestEmbedder_Defaults(t *testing.T) {
	emb := NewEmbedder(&EmbedderConfig{APIKey: "k"})
	if string(emb.model) != DefaultEmbeddingModel {
		t.Errorf("expected default model %q, got %q", DefaultEmbeddingModel, emb.model)
	}
}
