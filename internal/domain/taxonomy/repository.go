// Package taxonomy maps extracted merchant names onto a user's own category
// and tag vocabularies. Vocabularies are read-only input supplied by the main
// application's document store; this subsystem never mutates them.
package taxonomy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DBTX is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads the caller's category and tag vocabularies.
type Repository struct {
	db DBTX
}

// NewRepository creates a new taxonomy repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// CategoryNames fetches the user's category names in creation order.
func (r *Repository) CategoryNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT name
		FROM categories
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	return r.queryNames(ctx, query, userID)
}

// TagNames fetches the user's tag names in creation order.
func (r *Repository) TagNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT name
		FROM tags
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	return r.queryNames(ctx, query, userID)
}

func (r *Repository) queryNames(ctx context.Context, query string, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomy: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
