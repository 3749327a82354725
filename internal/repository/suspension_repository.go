package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classreg-api/internal/models"
)

const suspensionColumns = "id, student_id, reason, start_at, end_at, active, created_at"

// SuspensionRepository persists suspension records. Expiry is never swept;
// queries compare end_at against the caller-supplied instant.
type SuspensionRepository struct {
	db *sqlx.DB
}

// NewSuspensionRepository constructs the repository.
func NewSuspensionRepository(db *sqlx.DB) *SuspensionRepository {
	return &SuspensionRepository{db: db}
}

// FindByID returns a suspension record by its ID.
func (r *SuspensionRepository) FindByID(ctx context.Context, id string) (*models.SuspensionRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM suspensions WHERE id = $1", suspensionColumns)
	var record models.SuspensionRecord
	if err := querier(ctx, r.db).GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ActiveEnd returns the latest end_at among suspensions in force for the
// student at the given instant, or nil when the student is not suspended.
func (r *SuspensionRepository) ActiveEnd(ctx context.Context, studentID string, now time.Time) (*time.Time, error) {
	const query = `SELECT MAX(end_at) FROM suspensions
        WHERE student_id = $1 AND active = TRUE AND end_at > $2`
	var end sql.NullTime
	if err := querier(ctx, r.db).GetContext(ctx, &end, query, studentID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active suspension: %w", err)
	}
	if !end.Valid {
		return nil, nil
	}
	return &end.Time, nil
}

// Create persists a new suspension record.
func (r *SuspensionRepository) Create(ctx context.Context, record *models.SuspensionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO suspensions (id, student_id, reason, start_at, end_at, active, created_at)
        VALUES (:id, :student_id, :reason, :start_at, :end_at, :active, :created_at)`
	if _, err := querier(ctx, r.db).NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create suspension: %w", err)
	}
	return nil
}

// SetActive flips the active flag. Setting the same value twice is fine.
func (r *SuspensionRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE suspensions SET active = $2 WHERE id = $1`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("update suspension: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update suspension: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePeriod rewrites end_at and recomputes active from the new span.
func (r *SuspensionRepository) UpdatePeriod(ctx context.Context, id string, endAt time.Time, active bool) error {
	const query = `UPDATE suspensions SET end_at = $2, active = $3 WHERE id = $1`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, endAt, active)
	if err != nil {
		return fmt.Errorf("update suspension period: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update suspension period: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByStudent returns all suspension records for a student, newest first.
func (r *SuspensionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SuspensionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM suspensions WHERE student_id = $1 ORDER BY start_at DESC`, suspensionColumns)
	var records []models.SuspensionRecord
	if err := querier(ctx, r.db).SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	return records, nil
}
