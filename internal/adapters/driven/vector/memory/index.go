// Package memory provides an in-memory vector index with brute-force
// cosine similarity search. Suitable for single-document corpora where
// the candidate set is small enough to scan.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored vector with its insertion sequence for stable
// tie-breaking.
type entry struct {
	driven.VectorEntry
	seq uint64
}

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]entry
	nextSeq    uint64
}

// NewIndex creates an index accepting vectors of the given dimension.
func NewIndex(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		entries:    make(map[string]entry),
	}
}

// Upsert stores entries, replacing any previous entry per segment ID.
// A replaced entry keeps its original insertion sequence.
func (idx *Index) Upsert(_ context.Context, entries []driven.VectorEntry) error {
	for _, e := range entries {
		if len(e.Vector) != idx.dimensions {
			return fmt.Errorf("segment %s: vector size %d, index expects %d: %w",
				e.SegmentID, len(e.Vector), idx.dimensions, domain.ErrDimensionMismatch)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, e := range entries {
		seq := idx.nextSeq
		if prev, ok := idx.entries[e.SegmentID]; ok {
			seq = prev.seq
		} else {
			idx.nextSeq++
		}
		idx.entries[e.SegmentID] = entry{VectorEntry: e, seq: seq}
	}
	return nil
}

// Query returns up to topN hits by descending cosine similarity, ties
// broken by insertion order.
func (idx *Index) Query(_ context.Context, vector []float32, topN int, filter driven.VectorFilter) ([]driven.VectorHit, error) {
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("query vector size %d, index expects %d: %w",
			len(vector), idx.dimensions, domain.ErrDimensionMismatch)
	}
	if topN <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		hit driven.VectorHit
		seq uint64
	}
	matches := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		if !matchesFilter(e.VectorEntry, filter) {
			continue
		}
		matches = append(matches, scored{
			hit: driven.VectorHit{SegmentID: e.SegmentID, Score: cosineSimilarity(vector, e.Vector)},
			seq: e.seq,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].hit.Score != matches[j].hit.Score {
			return matches[i].hit.Score > matches[j].hit.Score
		}
		return matches[i].seq < matches[j].seq
	})

	if topN > len(matches) {
		topN = len(matches)
	}
	hits := make([]driven.VectorHit, 0, topN)
	for _, m := range matches[:topN] {
		hits = append(hits, m.hit)
	}
	return hits, nil
}

// DeleteDocument removes all entries for the document under one write
// lock, so concurrent queries see either all or none of them.
func (idx *Index) DeleteDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, e := range idx.entries {
		if e.DocumentID == documentID {
			delete(idx.entries, id)
		}
	}
	return nil
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = make(map[string]entry)
	return nil
}

// matchesFilter reports whether an entry passes all filter conditions.
func matchesFilter(e driven.VectorEntry, f driven.VectorFilter) bool {
	if f.DocumentID != "" && e.DocumentID != f.DocumentID {
		return false
	}
	if f.Model != "" && e.Model != f.Model {
		return false
	}
	for k, v := range f.Metadata {
		if e.Metadata[k] != v {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two vectors
// of equal length. Zero vectors yield zero similarity.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
