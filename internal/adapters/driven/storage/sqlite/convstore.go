package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// CreateConversation stores a new conversation.
func (s *conversationStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO conversations (id, document_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, conv.ID, conv.DocumentID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation with its turns in order.
func (s *conversationStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, created_at, updated_at FROM conversations WHERE id = ?
	`, id)

	var conv domain.Conversation
	if err := row.Scan(&conv.ID, &conv.DocumentID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT query, answer, created_at FROM turns
		WHERE conversation_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var turn domain.Turn
		if err := rows.Scan(&turn.Query, &turn.Answer, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		conv.Turns = append(conv.Turns, turn)
	}
	return &conv, rows.Err()
}

// AppendTurn adds a turn to an existing conversation.
func (s *conversationStore) AppendTurn(ctx context.Context, conversationID string, turn domain.Turn) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		time.Now().UTC(), conversationID)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO turns (conversation_id, query, answer, created_at)
		VALUES (?, ?, ?, ?)
	`, conversationID, turn.Query, turn.Answer, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return tx.Commit()
}
