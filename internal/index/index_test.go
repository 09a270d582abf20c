package index

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func seg(doc string, page int, text string) domain.Segment {
	return domain.Segment{Document: doc, Page: page, Text: text}
}

func TestOpen_NewEmptyIndex(t *testing.T) {
	ix, err := Open(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ix.Len() != 0 {
		t.Errorf("expected empty index, got %d segments", ix.Len())
	}
	if ix.Dimension() != 0 {
		t.Errorf("expected dimension 0, got %d", ix.Dimension())
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix, err := Open(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = ix.Search([]float32{1, 0}, 3)
	if !errors.Is(err, domain.ErrIndexQuery) {
		t.Errorf("expected ErrIndexQuery, got %v", err)
	}
}

func TestAddAndSearch_OrdersByDistance(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))

	err := ix.Add(
		[]domain.Segment{
			seg("a.pdf", 1, "far"),
			seg("a.pdf", 2, "near"),
			seg("b.pdf", 1, "mid"),
		},
		[][]float32{
			{10, 0},
			{1, 0},
			{4, 0},
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Text != "near" || hits[1].Text != "mid" {
		t.Errorf("unexpected order: %q, %q", hits[0].Text, hits[1].Text)
	}
	if hits[0].Distance != 1 || hits[1].Distance != 16 {
		t.Errorf("unexpected distances: %f, %f", hits[0].Distance, hits[1].Distance)
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
	if err := ix.Add([]domain.Segment{seg("a.pdf", 1, "only")}, [][]float32{{1, 1}}); err != nil {
		t.Fatal(err)
	}

	hits, err := ix.Search([]float32{0, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestSearch_TieBreaksByOrdinal(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
	err := ix.Add(
		[]domain.Segment{seg("a.pdf", 1, "first"), seg("a.pdf", 2, "second")},
		[][]float32{{3, 4}, {4, 3}}, // same distance from origin
	)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := ix.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Text != "first" || hits[1].Text != "second" {
		t.Errorf("expected insertion order on ties, got %q, %q", hits[0].Text, hits[1].Text)
	}
}

func TestSearch_InvalidK(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
	_ = ix.Add([]domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{1}})

	for _, k := range []int{0, -1} {
		if _, err := ix.Search([]float32{1}, k); !errors.Is(err, domain.ErrIndexQuery) {
			t.Errorf("k=%d: expected ErrIndexQuery, got %v", k, err)
		}
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
	_ = ix.Add([]domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{1, 2, 3}})

	_, err := ix.Search([]float32{1, 2}, 1)
	if !errors.Is(err, domain.ErrIndexQuery) {
		t.Errorf("expected ErrIndexQuery, got %v", err)
	}
}

func TestAdd_Validation(t *testing.T) {
	tests := []struct {
		name    string
		segs    []domain.Segment
		vectors [][]float32
	}{
		{"empty batch", nil, nil},
		{"length mismatch", []domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{1}, {2}}},
		{"zero-length vector", []domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{}}},
		{"blank segment", []domain.Segment{seg("a.pdf", 1, "")}, [][]float32{{1, 2}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
			if err := ix.Add(tc.segs, tc.vectors); !errors.Is(err, domain.ErrIndexWrite) {
				t.Errorf("expected ErrIndexWrite, got %v", err)
			}
			if ix.Len() != 0 {
				t.Errorf("rejected Add must leave the index unchanged, got %d segments", ix.Len())
			}
		})
	}
}

func TestAdd_DimensionLockedByFirstBatch(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
	if err := ix.Add([]domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{1, 2, 3}}); err != nil {
		t.Fatal(err)
	}

	err := ix.Add([]domain.Segment{seg("b.pdf", 1, "y")}, [][]float32{{1, 2}})
	if !errors.Is(err, domain.ErrIndexWrite) {
		t.Errorf("expected ErrIndexWrite for mismatched dimension, got %v", err)
	}
	if ix.Len() != 1 {
		t.Errorf("expected index unchanged at 1 segment, got %d", ix.Len())
	}
}

func TestAdd_AssignsContiguousOrdinals(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
	_ = ix.Add(
		[]domain.Segment{seg("a.pdf", 1, "s0"), seg("a.pdf", 1, "s1")},
		[][]float32{{0, 1}, {0, 2}},
	)
	_ = ix.Add([]domain.Segment{seg("b.pdf", 1, "s2")}, [][]float32{{0, 3}})

	hits, err := ix.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, h := range hits {
		if h.Ordinal != i {
			t.Errorf("hit %d: expected ordinal %d, got %d", i, i, h.Ordinal)
		}
	}
}

func TestPersistOpen_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	ix, _ := Open(dir)
	err := ix.Add(
		[]domain.Segment{
			seg("geo.pdf", 1, "The capital of France is Paris."),
			seg("geo.pdf", 2, "Berlin is the capital of Germany."),
			seg("bio.pdf", 1, "Mitochondria produce energy."),
		},
		[][]float32{
			{0.1, 0.9, 0.2},
			{0.8, 0.1, 0.3},
			{0.2, 0.2, 0.9},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	query := []float32{0.1, 0.8, 0.1}
	before, err := ix.Search(query, 3)
	if err != nil {
		t.Fatal(err)
	}

	if err := ix.Persist(context.Background()); err != nil {
		t.Fatalf("persist: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 3 {
		t.Fatalf("expected 3 segments after reload, got %d", reopened.Len())
	}
	if reopened.Dimension() != 3 {
		t.Errorf("expected dimension 3, got %d", reopened.Dimension())
	}

	after, err := reopened.Search(query, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("result count changed: %d vs %d", len(after), len(before))
	}
	for i := range before {
		if before[i].Text != after[i].Text || before[i].Distance != after[i].Distance ||
			before[i].Document != after[i].Document || before[i].Page != after[i].Page {
			t.Errorf("hit %d differs after reload:\nbefore: %+v\nafter:  %+v", i, before[i], after[i])
		}
	}
}

func TestPersist_ReopenedIndexAcceptsMoreAdds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	ix, _ := Open(dir)
	_ = ix.Add([]domain.Segment{seg("a.pdf", 1, "one")}, [][]float32{{1, 0}})
	if err := ix.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := reopened.Add([]domain.Segment{seg("b.pdf", 1, "two")}, [][]float32{{0, 1}}); err != nil {
		t.Fatalf("add after reopen: %v", err)
	}

	hits, err := reopened.Search([]float32{0, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Text != "two" || hits[0].Ordinal != 1 {
		t.Errorf("expected new segment with ordinal 1 first, got %+v", hits[0])
	}
}

func TestOpen_HalfPresentPair(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	ix, _ := Open(dir)
	_ = ix.Add([]domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{1}})
	if err := ix.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dir, segmentsFile)); err != nil {
		t.Fatal(err)
	}

	_, err := Open(dir)
	if !errors.Is(err, domain.ErrIndexLoad) {
		t.Errorf("expected ErrIndexLoad, got %v", err)
	}
}

func TestOpen_CountMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	ix, _ := Open(dir)
	_ = ix.Add(
		[]domain.Segment{seg("a.pdf", 1, "x"), seg("a.pdf", 2, "y")},
		[][]float32{{1, 0}, {0, 1}},
	)
	if err := ix.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Shrink the vector file to one row while segments keeps two.
	if err := writeVectors(filepath.Join(dir, vectorsFile), 2, []float32{1, 0}); err != nil {
		t.Fatal(err)
	}

	_, err := Open(dir)
	if !errors.Is(err, domain.ErrIndexLoad) {
		t.Errorf("expected ErrIndexLoad, got %v", err)
	}
}

func TestOpen_CorruptVectorFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	ix, _ := Open(dir)
	_ = ix.Add([]domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{1}})
	if err := ix.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, vectorsFile), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(dir)
	if !errors.Is(err, domain.ErrIndexLoad) {
		t.Errorf("expected ErrIndexLoad, got %v", err)
	}
}

func TestOpen_OversizedVectorHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	ix, _ := Open(dir)
	_ = ix.Add([]domain.Segment{seg("a.pdf", 1, "x")}, [][]float32{{1}})
	if err := ix.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Valid magic and version, but a header claiming far more values than
	// the file holds. Must be refused, not allocated.
	path := filepath.Join(dir, vectorsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint32(data[6:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(data[10:], 0xFFFFFFFF)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = Open(dir)
	if !errors.Is(err, domain.ErrIndexLoad) {
		t.Errorf("expected ErrIndexLoad, got %v", err)
	}
}

func TestHasDocument(t *testing.T) {
	ix, _ := Open(filepath.Join(t.TempDir(), "idx"))
	_ = ix.Add([]domain.Segment{seg("known.pdf", 1, "x")}, [][]float32{{1}})

	if !ix.HasDocument("known.pdf") {
		t.Error("expected known.pdf to be present")
	}
	if ix.HasDocument("other.pdf") {
		t.Error("did not expect other.pdf")
	}
}
