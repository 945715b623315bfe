package domain

import "time"

// Turn is one query/answer exchange within a conversation.
type Turn struct {
	// Query is the user's question.
	Query string

	// Answer is the generated answer.
	Answer string

	// CreatedAt is when the turn completed.
	CreatedAt time.Time
}

// Conversation accumulates prior turns to condition future retrieval and
// generation. Turns are append-only: no entity ever deletes or rewrites a
// turn, and a failed pipeline run never adds one.
type Conversation struct {
	// ID is the unique conversation identifier.
	ID string

	// DocumentID is the document this conversation is about.
	DocumentID string

	// Turns is the ordered exchange history.
	Turns []Turn

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time

	// UpdatedAt is when the last turn was appended.
	UpdatedAt time.Time
}

// LastTurns returns up to n most recent turns in chronological order.
// n <= 0 means history is disabled and returns no turns.
func (c *Conversation) LastTurns(n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}
