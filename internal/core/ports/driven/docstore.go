package driven

import (
	"context"

	"github.com/custodia-labs/docq/internal/core/domain"
)

// DocumentStore persists documents and their segments.
//
// A document becomes visible to queries only after MarkReady: the ready
// flag is what makes ingestion all-or-nothing from a reader's point of
// view.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveSegments stores the segments for a document, replacing any
	// previous set, atomically.
	SaveSegments(ctx context.Context, documentID string, segments []domain.TextSegment) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetSegments retrieves all segments for a document in OrderIndex
	// order.
	GetSegments(ctx context.Context, documentID string) ([]domain.TextSegment, error)

	// GetSegment retrieves a specific segment by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetSegment(ctx context.Context, documentID, segmentID string) (*domain.TextSegment, error)

	// MarkReady flags the document as fully ingested and queryable.
	MarkReady(ctx context.Context, documentID string) error

	// IsReady reports whether the document is queryable.
	IsReady(ctx context.Context, documentID string) (bool, error)

	// DeleteDocument removes a document and its segments.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// ConversationStore persists conversations. Turns are append-only.
type ConversationStore interface {
	// CreateConversation stores a new conversation.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error

	// GetConversation retrieves a conversation with its turns.
	// Returns domain.ErrNotFound when it does not exist.
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)

	// AppendTurn adds a turn to an existing conversation.
	AppendTurn(ctx context.Context, conversationID string, turn domain.Turn) error
}
