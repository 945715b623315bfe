package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of
// driven.ConversationStore.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]domain.Conversation
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]domain.Conversation),
	}
}

// CreateConversation stores a new conversation.
func (s *ConversationStore) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conv.ID]; ok {
		return domain.ErrInvalidInput
	}
	stored := *conv
	stored.Turns = make([]domain.Turn, len(conv.Turns))
	copy(stored.Turns, conv.Turns)
	s.conversations[conv.ID] = stored
	return nil
}

// GetConversation retrieves a conversation with its turns.
func (s *ConversationStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := conv
	out.Turns = make([]domain.Turn, len(conv.Turns))
	copy(out.Turns, conv.Turns)
	return &out, nil
}

// AppendTurn adds a turn to an existing conversation.
func (s *ConversationStore) AppendTurn(_ context.Context, conversationID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	conv.Turns = append(conv.Turns, turn)
	conv.UpdatedAt = time.Now().UTC()
	s.conversations[conversationID] = conv
	return nil
}
