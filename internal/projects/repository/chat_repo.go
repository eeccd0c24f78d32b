package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

// ChatRepository stores the prompt/response history of a project.
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// ListMessages returns the latest limit messages of the project, oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, userID, projectID string, limit int) ([]domain.Message, error) {
	const q = `
SELECT id, project_id, role, content, created_at FROM (
	SELECT m.id, m.project_id, m.role, m.content, m.created_at
	FROM chat_messages m
	JOIN projects p ON p.id = m.project_id
	WHERE p.user_id = $1 AND p.id = $2
	ORDER BY m.created_at DESC, m.id DESC
	LIMIT $3
) latest
ORDER BY created_at ASC, id ASC;
`
	rows, err := r.db.Query(ctx, q, userID, projectID, limit)
	if err != nil {
		return nil, pgNotFound(err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, 32)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, pgNotFound(rows.Err())
}

// AppendTurn stores a user prompt and the assistant reply atomically.
func (r *ChatRepository) AppendTurn(ctx context.Context, userID, projectID, prompt, reply string) ([]domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owned bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE user_id = $1 AND id = $2)`,
		userID, projectID).Scan(&owned)
	if err != nil {
		return nil, pgNotFound(err)
	}
	if !owned {
		return nil, domain.ErrNotFound
	}

	const ins = `
INSERT INTO chat_messages (project_id, user_id, role, content)
VALUES ($1, $2, $3, $4)
RETURNING id, project_id, role, content, created_at;
`
	out := make([]domain.Message, 0, 2)
	for _, turn := range []struct{ role, content string }{
		{domain.RoleUser, prompt},
		{domain.RoleAssistant, reply},
	} {
		var m domain.Message
		if err := tx.QueryRow(ctx, ins, projectID, userID, turn.role, turn.content).
			Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert %s message: %w", turn.role, err)
		}
		out = append(out, m)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func pgNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pqInvalidTextRepresentation {
		return domain.ErrNotFound
	}
	return err
}
