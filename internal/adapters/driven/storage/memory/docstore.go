// Package memory provides in-memory implementations of the storage
// ports. Used in tests and as a fallback when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	segments  map[string][]domain.TextSegment
	ready     map[string]bool
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		segments:  make(map[string][]domain.TextSegment),
		ready:     make(map[string]bool),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveSegments stores the segments for a document, replacing any
// previous set.
func (s *DocumentStore) SaveSegments(_ context.Context, documentID string, segments []domain.TextSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]domain.TextSegment, len(segments))
	copy(copied, segments)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].OrderIndex < copied[j].OrderIndex
	})
	s.segments[documentID] = copied
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetSegments retrieves all segments for a document in OrderIndex order.
func (s *DocumentStore) GetSegments(_ context.Context, documentID string) ([]domain.TextSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	segments := s.segments[documentID]
	out := make([]domain.TextSegment, len(segments))
	copy(out, segments)
	return out, nil
}

// GetSegment retrieves a specific segment by ID.
func (s *DocumentStore) GetSegment(_ context.Context, documentID, segmentID string) (*domain.TextSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, seg := range s.segments[documentID] {
		if seg.ID == segmentID {
			return &seg, nil
		}
	}
	return nil, domain.ErrNotFound
}

// MarkReady flags the document as fully ingested and queryable.
func (s *DocumentStore) MarkReady(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	s.ready[documentID] = true
	return nil
}

// IsReady reports whether the document is queryable.
func (s *DocumentStore) IsReady(_ context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.documents[documentID]; !ok {
		return false, domain.ErrNotFound
	}
	return s.ready[documentID], nil
}

// DeleteDocument removes a document and its segments.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.segments, id)
	delete(s.ready, id)
	return nil
}

// ListDocuments returns all stored documents ordered by creation time.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		result = append(result, s.documents[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
