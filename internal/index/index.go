// Package index implements a flat vector index with exhaustive L2 search.
// On disk the index is a pair of artifacts under one directory: a packed
// vector file and a segment metadata database. Persist rewrites both;
// a pair where one artifact is missing or row counts disagree is refused.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kailas-cloud/docqa/internal/domain"
)

const (
	vectorsFile  = "vectors.bin"
	segmentsFile = "segments.db"
)

// Index is an in-memory flat vector index. Safe for concurrent use within
// one process; cross-process писатель должен быть один.
type Index struct {
	dir string

	mu   sync.RWMutex
	dim  int
	vecs []float32 // packed row-major, len = count*dim
	segs []domain.Segment
}

// Open loads the index from dir. A directory where neither artifact exists
// yields a fresh empty index; a half-present or inconsistent pair is an
// ErrIndexLoad.
func Open(dir string) (*Index, error) {
	ix := &Index{dir: dir}

	vecPath := filepath.Join(dir, vectorsFile)
	segPath := filepath.Join(dir, segmentsFile)
	vecExists := fileExists(vecPath)
	segExists := fileExists(segPath)

	if !vecExists && !segExists {
		return ix, nil
	}
	if vecExists != segExists {
		return nil, fmt.Errorf("%w: artifact pair incomplete in %s (vectors=%t, segments=%t)",
			domain.ErrIndexLoad, dir, vecExists, segExists)
	}

	dim, vecs, err := readVectors(vecPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrIndexLoad, vectorsFile, err)
	}

	segs, err := readSegments(segPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrIndexLoad, segmentsFile, err)
	}

	if dim > 0 && len(vecs)/dim != len(segs) {
		return nil, fmt.Errorf("%w: %d vectors but %d segments in %s",
			domain.ErrIndexLoad, len(vecs)/dim, len(segs), dir)
	}
	if dim == 0 && len(segs) > 0 {
		return nil, fmt.Errorf("%w: segments present but vector file is empty in %s", domain.ErrIndexLoad, dir)
	}

	ix.dim = dim
	ix.vecs = vecs
	ix.segs = segs
	return ix, nil
}

// Add appends segments with their vectors. The first successful call fixes
// the index dimension. Ordinals are assigned by insertion order. The batch
// is validated up front, so a rejected Add leaves the index unchanged.
func (ix *Index) Add(segs []domain.Segment, vectors [][]float32) error {
	if len(segs) == 0 {
		return fmt.Errorf("%w: empty batch", domain.ErrIndexWrite)
	}
	if len(segs) != len(vectors) {
		return fmt.Errorf("%w: %d segments but %d vectors", domain.ErrIndexWrite, len(segs), len(vectors))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := ix.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return fmt.Errorf("%w: zero-length vector", domain.ErrIndexWrite)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				domain.ErrIndexWrite, i, len(v), dim)
		}
		if segs[i].Text == "" {
			return fmt.Errorf("%w: segment %d has no text", domain.ErrIndexWrite, i)
		}
	}

	ix.dim = dim
	for i, v := range vectors {
		seg := segs[i]
		seg.Ordinal = len(ix.segs)
		ix.segs = append(ix.segs, seg)
		ix.vecs = append(ix.vecs, v...)
	}
	return nil
}

// Search returns up to k segments closest to query by squared L2 distance,
// ascending. Searching an empty index, k <= 0, or a dimension mismatch is
// an ErrIndexQuery.
func (ix *Index) Search(query []float32, k int) ([]domain.ScoredSegment, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrIndexQuery, k)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.segs) == 0 {
		return nil, fmt.Errorf("%w: index is empty", domain.ErrIndexQuery)
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			domain.ErrIndexQuery, len(query), ix.dim)
	}

	scored := make([]domain.ScoredSegment, len(ix.segs))
	for i := range ix.segs {
		row := ix.vecs[i*ix.dim : (i+1)*ix.dim]
		scored[i] = domain.ScoredSegment{Segment: ix.segs[i], Distance: l2sq(query, row)}
	}
	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Distance != scored[b].Distance {
			return scored[a].Distance < scored[b].Distance
		}
		return scored[a].Ordinal < scored[b].Ordinal
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Persist rewrites both on-disk artifacts. The vector file is written to a
// temp file and renamed; segments are replaced in a single transaction.
// A crash between the two writes leaves a pair that Open refuses.
func (ix *Index) Persist(ctx context.Context) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrIndexWrite, ix.dir, err)
	}

	vecPath := filepath.Join(ix.dir, vectorsFile)
	tmp := vecPath + ".tmp"
	if err := writeVectors(tmp, ix.dim, ix.vecs); err != nil {
		return fmt.Errorf("%w: write vectors: %v", domain.ErrIndexWrite, err)
	}
	if err := os.Rename(tmp, vecPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %v", domain.ErrIndexWrite, vectorsFile, err)
	}

	if err := writeSegments(ctx, filepath.Join(ix.dir, segmentsFile), ix.segs); err != nil {
		return fmt.Errorf("%w: write segments: %v", domain.ErrIndexWrite, err)
	}
	return nil
}

// Len returns the number of indexed segments.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.segs)
}

// Dimension returns the vector dimension, 0 while the index is empty.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// HasDocument reports whether any indexed segment came from the named file.
func (ix *Index) HasDocument(name string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for i := range ix.segs {
		if ix.segs[i].Document == name {
			return true
		}
	}
	return false
}

func l2sq(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
