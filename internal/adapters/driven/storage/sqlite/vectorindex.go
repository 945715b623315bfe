package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex on the shared store.
// Vectors are persisted as little-endian float32 blobs; similarity is a
// brute-force scan, which is fine at per-document candidate counts.
type vectorIndex struct {
	store      *Store
	dimensions int
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert stores entries in one transaction. Replaced entries keep their
// original insertion sequence so tie-breaking stays stable.
func (v *vectorIndex) Upsert(ctx context.Context, entries []driven.VectorEntry) error {
	for _, e := range entries {
		if len(e.Vector) != v.dimensions {
			return fmt.Errorf("segment %s: vector size %d, index expects %d: %w",
				e.SegmentID, len(e.Vector), v.dimensions, domain.ErrDimensionMismatch)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		metadataJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vectors (segment_id, document_id, model, embedding, metadata, seq)
			VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM vectors))
			ON CONFLICT(segment_id) DO UPDATE SET
				document_id = excluded.document_id,
				model = excluded.model,
				embedding = excluded.embedding,
				metadata = excluded.metadata
		`, e.SegmentID, e.DocumentID, e.Model, float32SliceToBytes(e.Vector), string(metadataJSON))
		if err != nil {
			return fmt.Errorf("upserting vector %s: %w", e.SegmentID, err)
		}
	}
	return tx.Commit()
}

// Query returns up to topN hits by descending cosine similarity, ties
// broken by insertion order.
func (v *vectorIndex) Query(ctx context.Context, vector []float32, topN int, filter driven.VectorFilter) ([]driven.VectorHit, error) {
	if len(vector) != v.dimensions {
		return nil, fmt.Errorf("query vector size %d, index expects %d: %w",
			len(vector), v.dimensions, domain.ErrDimensionMismatch)
	}
	if topN <= 0 {
		return nil, nil
	}

	query := "SELECT segment_id, embedding, metadata, seq FROM vectors"
	var conds []string
	var args []any
	if filter.DocumentID != "" {
		conds = append(conds, "document_id = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, filter.Model)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	rows, err := v.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	type scored struct {
		hit driven.VectorHit
		seq int64
	}
	var matches []scored
	for rows.Next() {
		var segmentID, metadataJSON string
		var blob []byte
		var seq int64
		if err := rows.Scan(&segmentID, &blob, &metadataJSON, &seq); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if len(filter.Metadata) > 0 {
			var metadata map[string]string
			if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
			if !metadataMatches(metadata, filter.Metadata) {
				continue
			}
		}
		matches = append(matches, scored{
			hit: driven.VectorHit{SegmentID: segmentID, Score: cosineSimilarity(vector, bytesToFloat32Slice(blob))},
			seq: seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
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

// DeleteDocument removes all entries for the document in one statement.
func (v *vectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := v.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Close is a no-op; the shared store owns the connection.
func (v *vectorIndex) Close() error {
	return nil
}

func metadataMatches(metadata, want map[string]string) bool {
	for k, v := range want {
		if metadata[k] != v {
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
