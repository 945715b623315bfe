package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	pagesJSON, err := json.Marshal(doc.Pages)
	if err != nil {
		return fmt.Errorf("marshalling pages: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_name, pages, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_name = excluded.source_name,
			pages = excluded.pages
	`, doc.ID, doc.SourceName, string(pagesJSON), doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveSegments stores the segments for a document, replacing any
// previous set in one transaction.
func (s *documentStore) SaveSegments(ctx context.Context, documentID string, segments []domain.TextSegment) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM segments WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing segments: %w", err)
	}
	for _, seg := range segments {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO segments (id, document_id, content, page_number, parent_id, order_index)
			VALUES (?, ?, ?, ?, ?, ?)
		`, seg.ID, documentID, seg.Text, seg.PageNumber, seg.ParentID, seg.OrderIndex)
		if err != nil {
			return fmt.Errorf("saving segment %s: %w", seg.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing segments: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_name, pages, created_at FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// GetSegments retrieves all segments for a document in OrderIndex order.
func (s *documentStore) GetSegments(ctx context.Context, documentID string) ([]domain.TextSegment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, page_number, parent_id, order_index
		FROM segments WHERE document_id = ?
		ORDER BY order_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var segments []domain.TextSegment
	for rows.Next() {
		var seg domain.TextSegment
		if err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.Text, &seg.PageNumber, &seg.ParentID, &seg.OrderIndex); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// GetSegment retrieves a specific segment by ID.
func (s *documentStore) GetSegment(ctx context.Context, documentID, segmentID string) (*domain.TextSegment, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, page_number, parent_id, order_index
		FROM segments WHERE document_id = ? AND id = ?
	`, documentID, segmentID)

	var seg domain.TextSegment
	if err := row.Scan(&seg.ID, &seg.DocumentID, &seg.Text, &seg.PageNumber, &seg.ParentID, &seg.OrderIndex); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning segment: %w", err)
	}
	return &seg, nil
}

// MarkReady flags the document as fully ingested and queryable.
func (s *documentStore) MarkReady(ctx context.Context, documentID string) error {
	result, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET ready = 1 WHERE id = ?", documentID)
	if err != nil {
		return fmt.Errorf("marking ready: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IsReady reports whether the document is queryable.
func (s *documentStore) IsReady(ctx context.Context, documentID string) (bool, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT ready FROM documents WHERE id = ?", documentID)

	var ready int
	if err := row.Scan(&ready); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("scanning ready flag: %w", err)
	}
	return ready != 0, nil
}

// DeleteDocument removes a document; segments cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns all stored documents ordered by creation time.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_name, pages, created_at
		FROM documents ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentRow(row)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func scanDocumentRow(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var pagesJSON string
	if err := row.Scan(&doc.ID, &doc.SourceName, &pagesJSON, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if err := json.Unmarshal([]byte(pagesJSON), &doc.Pages); err != nil {
		return nil, fmt.Errorf("unmarshaling pages: %w", err)
	}
	return &doc, nil
}
