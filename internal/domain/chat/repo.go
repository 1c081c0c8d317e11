package chat

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	ListSessionsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, m *Message) error
	// ListMessages returns the session's messages in creation order.
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*Message, error)
	CountMessages(ctx context.Context, sessionID uuid.UUID) (int, error)
}
