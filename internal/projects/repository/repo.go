package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

// invalid_text_representation: a malformed uuid can never match a row.
const pqInvalidTextRepresentation = "22P02"

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project for the given user.
func (r *ProjectRepository) Create(ctx context.Context, userID, name string) (*domain.Project, error) {
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if userID == "" {
		return nil, domain.ErrUserRequired
	}

	const q = `
INSERT INTO projects (id, user_id, name)
VALUES ($1, $2, $3)
RETURNING id, user_id, name, created_at, last_edited_at;
`
	var p domain.Project
	err := r.db.QueryRowContext(ctx, q, uuid.NewString(), userID, name).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.LastEditedAt)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &p, nil
}

// List returns the user's projects, most recently edited first. Content is
// not loaded.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]domain.Project, error) {
	const q = `
SELECT id, user_id, name, created_at, last_edited_at, url
FROM projects
WHERE user_id = $1
ORDER BY last_edited_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		var url sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.LastEditedAt, &url); err != nil {
			return nil, err
		}
		p.URL = nullable(url)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single project including its content.
func (r *ProjectRepository) Get(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	const q = `
SELECT id, user_id, name, created_at, last_edited_at, url, content
FROM projects
WHERE user_id = $1 AND id = $2;
`
	var p domain.Project
	var url, content sql.NullString
	err := r.db.QueryRowContext(ctx, q, userID, projectID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.LastEditedAt, &url, &content)
	if err != nil {
		return nil, notFound(err)
	}
	p.URL = nullable(url)
	p.Content = nullable(content)
	return &p, nil
}

// Rename updates the project's name.
func (r *ProjectRepository) Rename(ctx context.Context, userID, projectID, newName string) (*domain.Project, error) {
	if newName == "" {
		return nil, domain.ErrNameRequired
	}

	const q = `
UPDATE projects
SET name = $3, last_edited_at = now()
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, name, created_at, last_edited_at, url;
`
	var p domain.Project
	var url sql.NullString
	err := r.db.QueryRowContext(ctx, q, userID, projectID, newName).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.LastEditedAt, &url)
	if err != nil {
		return nil, notFound(err)
	}
	p.URL = nullable(url)
	return &p, nil
}

// UpdateContent stores regenerated or edited page content.
func (r *ProjectRepository) UpdateContent(ctx context.Context, userID, projectID, content string) error {
	const q = `
UPDATE projects
SET content = $3, last_edited_at = now()
WHERE user_id = $1 AND id = $2;
`
	return r.execOne(ctx, q, userID, projectID, content)
}

// UpdateURL records the public URL of a finished deploy. Safe to repeat.
func (r *ProjectRepository) UpdateURL(ctx context.Context, userID, projectID, url string) error {
	const q = `
UPDATE projects
SET url = $3, last_edited_at = now()
WHERE user_id = $1 AND id = $2;
`
	return r.execOne(ctx, q, userID, projectID, url)
}

// Delete removes the project. Chat messages go with it via ON DELETE CASCADE.
// The deleted row is returned so callers can clean up external resources.
func (r *ProjectRepository) Delete(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	const q = `
DELETE FROM projects
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, name, created_at, last_edited_at, url;
`
	var p domain.Project
	var url sql.NullString
	err := r.db.QueryRowContext(ctx, q, userID, projectID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.LastEditedAt, &url)
	if err != nil {
		return nil, notFound(err)
	}
	p.URL = nullable(url)
	return &p, nil
}

func (r *ProjectRepository) execOne(ctx context.Context, q string, args ...any) error {
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return notFound(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == pqInvalidTextRepresentation {
		return domain.ErrNotFound
	}
	return err
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
