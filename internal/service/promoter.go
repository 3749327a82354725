package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classreg-api/internal/models"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ActiveEnrollment(ctx context.Context, classID, studentID string) (*models.Enrollment, error)
	ConfirmedCount(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Cancel(ctx context.Context, id string, at time.Time, reason models.CancelReason) (*models.Enrollment, error)
	SetAttendance(ctx context.Context, id string, value models.Attendance) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	WaitlistOrdered(ctx context.Context, classID string) ([]models.Enrollment, error)
	ListConfirmed(ctx context.Context, classID string) ([]models.Enrollment, error)
}

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
}

// WaitlistPromoter fills a vacated seat from the head of the waitlist.
//
// Invoked exactly once per vacated seat, inside the same atomic scope as the
// cancellation that freed it. Strict FIFO on (created_at, seq); no priority
// classes.
type WaitlistPromoter struct {
	enrollments enrollmentRepository
	sessions    sessionReader
	logger      *zap.Logger
}

// NewWaitlistPromoter constructs the promoter.
func NewWaitlistPromoter(enrollments enrollmentRepository, sessions sessionReader, logger *zap.Logger) *WaitlistPromoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaitlistPromoter{enrollments: enrollments, sessions: sessions, logger: logger}
}

// PromoteIfSeatAvailable confirms the earliest waitlisted enrollment when a
// seat is free and returns it. Calling with a full class or an empty waitlist
// is a safe no-op returning nil.
func (p *WaitlistPromoter) PromoteIfSeatAvailable(ctx context.Context, classID string) (*models.Enrollment, error) {
	session, err := p.sessions.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}

	confirmed, err := p.enrollments.ConfirmedCount(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count confirmed seats")
	}
	if confirmed >= session.Capacity {
		return nil, nil
	}

	waitlist, err := p.enrollments.WaitlistOrdered(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist")
	}
	if len(waitlist) == 0 {
		return nil, nil
	}

	head := waitlist[0]
	if err := p.enrollments.UpdateStatus(ctx, head.ID, models.EnrollmentStatusConfirmed); err != nil {
		return nil, err
	}
	head.Status = models.EnrollmentStatusConfirmed

	p.logger.Info("waitlist promotion",
		zap.String("class_id", classID),
		zap.String("enrollment_id", head.ID),
		zap.String("student_id", head.StudentID))
	return &head, nil
}
