package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) CreateSession(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_session (id, visit_id, audience) VALUES ($1,$2,$3)`,
		s.ID, s.VisitID, s.Audience,
	)
	return err
}

func (r *repoPG) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
		SELECT id, visit_id, audience, created_at FROM chat_session WHERE id = $1`, id).
		Scan(&s.ID, &s.VisitID, &s.Audience, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) ListSessionsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, visit_id, audience, created_at FROM chat_session
		WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.VisitID, &s.Audience, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chat_session WHERE id = $1`, id)
	return err
}

func (r *repoPG) CreateMessage(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_message (id, session_id, role, content) VALUES ($1,$2,$3,$4)`,
		m.ID, m.SessionID, m.Role, m.Content,
	)
	return err
}

func (r *repoPG) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]*Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, role, content, created_at FROM chat_message
		WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *repoPG) CountMessages(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM chat_message WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}
