package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classreg-api/internal/models"
)

// SessionRepository reads class sessions. Sessions are owned by the
// class-metadata collaborator; the engine never writes them.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a class session by its ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	const query = `SELECT id, name, capacity, weekday, start_time, starts_at, window_open, created_at, updated_at
        FROM class_sessions WHERE id = $1`
	var session models.ClassSession
	if err := querier(ctx, r.db).GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}
