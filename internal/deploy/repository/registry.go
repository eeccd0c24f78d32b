package repository

import (
	"context"
	"database/sql"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
)

// Registry answers whether a subdomain is already stored as a project URL.
type Registry struct {
	db           *sql.DB
	parentDomain string
}

func NewRegistry(db *sql.DB, parentDomain string) *Registry {
	return &Registry{db: db, parentDomain: domain.ParentDomain(parentDomain)}
}

// Taken reports whether any project holds the URL for subdomain.
func (r *Registry) Taken(ctx context.Context, subdomain string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM projects WHERE url = $1
);
`
	url := domain.PublicURL(domain.AliasHost(subdomain, r.parentDomain))

	var exists bool
	if err := r.db.QueryRowContext(ctx, q, url).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
