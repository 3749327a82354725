package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classreg-api/internal/models"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

const enrollmentColumns = "id, class_id, student_id, status, attendance, cancel_reason, created_at, seq, cancelled_at"

// EnrollmentRepository is the capacity-aware registration ledger. All writes
// that touch roster invariants are expected to run inside an AtomicRunner
// scope; the repository itself stays oblivious to locking.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := querier(ctx, r.db).GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ActiveEnrollment returns the current non-cancelled enrollment for the
// (class, student) pair, or nil when none exists.
func (r *EnrollmentRepository) ActiveEnrollment(ctx context.Context, classID, studentID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
        WHERE class_id = $1 AND student_id = $2 AND status <> $3`, enrollmentColumns)
	var enrollment models.Enrollment
	err := querier(ctx, r.db).GetContext(ctx, &enrollment, query, classID, studentID, models.EnrollmentStatusCancelled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active enrollment: %w", err)
	}
	return &enrollment, nil
}

// ConfirmedCount counts confirmed enrollments for a class.
func (r *EnrollmentRepository) ConfirmedCount(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2`
	var count int
	if err := querier(ctx, r.db).GetContext(ctx, &count, query, classID, models.EnrollmentStatusConfirmed); err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return count, nil
}

// Create persists a new enrollment record. The store assigns the monotonic
// seq counter; a partial unique index on (class_id, student_id) over
// non-cancelled rows rejects duplicates the service-level check missed.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.Attendance == "" {
		enrollment.Attendance = models.AttendanceUnset
	}
	const query = `INSERT INTO enrollments (id, class_id, student_id, status, attendance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING seq`
	err := querier(ctx, r.db).QueryRowxContext(ctx, query,
		enrollment.ID, enrollment.ClassID, enrollment.StudentID,
		enrollment.Status, enrollment.Attendance, enrollment.CreatedAt,
	).Scan(&enrollment.Seq)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return appErrors.Clone(appErrors.ErrDuplicateEnrollment, "")
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Cancel marks an enrollment cancelled. An already-cancelled enrollment is
// rejected, not silently accepted, so callers can skip penalty side effects.
func (r *EnrollmentRepository) Cancel(ctx context.Context, id string, at time.Time, reason models.CancelReason) (*models.Enrollment, error) {
	query := fmt.Sprintf(`UPDATE enrollments
        SET status = $2, cancelled_at = $3, cancel_reason = $4
        WHERE id = $1 AND status <> $2
        RETURNING %s`, enrollmentColumns)
	var enrollment models.Enrollment
	err := querier(ctx, r.db).QueryRowxContext(ctx, query, id, models.EnrollmentStatusCancelled, at, reason).StructScan(&enrollment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, findErr := r.FindByID(ctx, id); findErr == nil {
				return nil, appErrors.Clone(appErrors.ErrAlreadyCancelled, "")
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, fmt.Errorf("cancel enrollment: %w", err)
	}
	return &enrollment, nil
}

// SetAttendance records presence or absence. Only confirmed enrollments carry
// attendance.
func (r *EnrollmentRepository) SetAttendance(ctx context.Context, id string, value models.Attendance) error {
	const query = `UPDATE enrollments SET attendance = $2 WHERE id = $1 AND status = $3`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, value, models.EnrollmentStatusConfirmed)
	if err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}
	if affected == 0 {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Clone(appErrors.ErrInvalidState, "attendance requires a confirmed enrollment")
	}
	return nil
}

// UpdateStatus transitions an enrollment between confirmed and waitlisted.
// Used by the waitlist promoter only.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2 WHERE id = $1 AND status <> $3`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, status, models.EnrollmentStatusCancelled)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrInvalidState, "cannot change status of a cancelled enrollment")
	}
	return nil
}

// WaitlistOrdered returns the waitlisted enrollments for a class in promotion
// order. The (created_at, seq) sort is total: seq breaks timestamp ties so no
// two entries ever compare equal.
func (r *EnrollmentRepository) WaitlistOrdered(ctx context.Context, classID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
        WHERE class_id = $1 AND status = $2
        ORDER BY created_at ASC, seq ASC`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := querier(ctx, r.db).SelectContext(ctx, &enrollments, query, classID, models.EnrollmentStatusWaitlisted); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return enrollments, nil
}

// ListConfirmed returns confirmed enrollments for a class ordered by arrival.
func (r *EnrollmentRepository) ListConfirmed(ctx context.Context, classID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
        WHERE class_id = $1 AND status = $2
        ORDER BY created_at ASC, seq ASC`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := querier(ctx, r.db).SelectContext(ctx, &enrollments, query, classID, models.EnrollmentStatusConfirmed); err != nil {
		return nil, fmt.Errorf("list confirmed: %w", err)
	}
	return enrollments, nil
}
