package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docq/internal/chunker"
	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
	"github.com/custodia-labs/docq/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestionService = (*IngestService)(nil)

// embedBatchSize bounds how many segments are embedded per request.
const embedBatchSize = 32

// IngestService turns raw files into queryable documents: extract, chunk,
// embed, index, then flip the ready flag. A document is visible to queries
// only after every step succeeded; on failure all partial state is rolled
// back.
type IngestService struct {
	extractor   driven.Extractor
	chunker     chunker.Chunker
	embedder    driven.EmbeddingService
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	extractor driven.Extractor,
	chk chunker.Chunker,
	embedder driven.EmbeddingService,
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
) *IngestService {
	return &IngestService{
		extractor:   extractor,
		chunker:     chk,
		embedder:    embedder,
		docStore:    docStore,
		vectorIndex: vectorIndex,
	}
}

// Ingest extracts, chunks, embeds and indexes one document.
func (s *IngestService) Ingest(ctx context.Context, content []byte, fileName string) (*driving.IngestResult, error) {
	logger.Section("Ingestion")
	logger.Debug("File: %s (%d bytes)", fileName, len(content))

	fileName = strings.TrimSpace(fileName)
	if fileName == "" || len(content) == 0 {
		return nil, fmt.Errorf("ingest: %w", domain.ErrInvalidInput)
	}

	fileType := strings.TrimPrefix(filepath.Ext(fileName), ".")
	doc, err := s.extractor.Extract(ctx, content, fileType)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", fileName, err)
	}
	doc.ID = uuid.NewString()
	doc.SourceName = filepath.Base(fileName)
	doc.CreatedAt = time.Now().UTC()
	logger.Debug("Extracted %d pages", len(doc.Pages))

	segments, err := s.chunker.Chunk(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunking %s: %w", fileName, err)
	}
	logger.Debug("Chunked into %d segments", len(segments))

	vectors, err := s.embedSegments(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", fileName, err)
	}

	if err := s.persist(ctx, doc, segments, vectors); err != nil {
		s.rollback(doc.ID)
		return nil, fmt.Errorf("indexing %s: %w", fileName, err)
	}

	logger.Info("Ingested %s as %s", doc.SourceName, doc.ID)
	return &driving.IngestResult{
		DocumentID:   doc.ID,
		SegmentCount: len(segments),
		PageCount:    len(doc.Pages),
	}, nil
}

// embedSegments embeds segment texts in batches, aligned with segments.
func (s *IngestService) embedSegments(ctx context.Context, segments []domain.TextSegment) ([][]float32, error) {
	vectors := make([][]float32, 0, len(segments))
	for start := 0; start < len(segments); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + embedBatchSize
		if end > len(segments) {
			end = len(segments)
		}
		texts := make([]string, 0, end-start)
		for _, seg := range segments[start:end] {
			texts = append(texts, seg.Text)
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("got %d vectors for %d texts", len(batch), len(texts))
		}
		for _, vec := range batch {
			if len(vec) != s.embedder.Dimensions() {
				return nil, fmt.Errorf("vector size %d, model %s expects %d: %w",
					len(vec), s.embedder.ModelName(), s.embedder.Dimensions(), domain.ErrDimensionMismatch)
			}
		}
		vectors = append(vectors, batch...)
		logger.Debug("Embedded segments %d-%d", start, end-1)
	}
	return vectors, nil
}

// persist writes the document, its segments and its vectors, then flips
// the ready flag.
func (s *IngestService) persist(ctx context.Context, doc *domain.Document, segments []domain.TextSegment, vectors [][]float32) error {
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	if err := s.docStore.SaveSegments(ctx, doc.ID, segments); err != nil {
		return fmt.Errorf("saving segments: %w", err)
	}

	entries := make([]driven.VectorEntry, 0, len(segments))
	for i, seg := range segments {
		entries = append(entries, driven.VectorEntry{
			DocumentID: doc.ID,
			SegmentID:  seg.ID,
			Model:      s.embedder.ModelName(),
			Vector:     vectors[i],
		})
	}
	if err := s.vectorIndex.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("upserting vectors: %w", err)
	}

	if err := s.docStore.MarkReady(ctx, doc.ID); err != nil {
		return fmt.Errorf("marking ready: %w", err)
	}
	return nil
}

// rollback removes partial state after a failed ingestion. Best effort:
// the document was never marked ready, so it was never queryable.
func (s *IngestService) rollback(documentID string) {
	ctx := context.Background()
	if err := s.vectorIndex.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("rollback: deleting vectors for %s: %v", documentID, err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("rollback: deleting document %s: %v", documentID, err)
	}
}

// Delete removes a document, its segments and its vectors.
func (s *IngestService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.vectorIndex.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}

// List returns metadata for all ingested documents.
func (s *IngestService) List(ctx context.Context) ([]driving.DocumentInfo, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]driving.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		segments, err := s.docStore.GetSegments(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("loading segments for %s: %w", doc.ID, err)
		}
		ready, err := s.docStore.IsReady(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("checking ready flag for %s: %w", doc.ID, err)
		}
		infos = append(infos, driving.DocumentInfo{
			ID:           doc.ID,
			SourceName:   doc.SourceName,
			PageCount:    len(doc.Pages),
			SegmentCount: len(segments),
			Ready:        ready,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return infos, nil
}
