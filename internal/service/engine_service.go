package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classreg-api/internal/models"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

type atomicRunner interface {
	ClassScope(ctx context.Context, classID string, fn func(ctx context.Context) error) error
	StudentScope(ctx context.Context, studentID string, fn func(ctx context.Context) error) error
	EnrollmentScope(ctx context.Context, classID, studentID string, fn func(ctx context.Context) error) error
}

type suspensionLedger interface {
	IsSuspended(ctx context.Context, studentID string, now time.Time) (bool, error)
	IsSuspendedDirect(ctx context.Context, studentID string, now time.Time) (bool, error)
	Impose(ctx context.Context, studentID string, reason models.CancelReason, now time.Time) (*models.SuspensionRecord, error)
}

type waitlistPromoter interface {
	PromoteIfSeatAvailable(ctx context.Context, classID string) (*models.Enrollment, error)
}

type engineMetrics interface {
	RecordEnrollment(outcome string)
	RecordPromotion()
	RecordSuspension(reason string)
}

// EnrollRequest registers a student into a class session.
type EnrollRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

// ReviewCancelRequest is the staff cancel-with-notice-review payload: staff
// picks the reason kind explicitly, overriding the auto-computed one.
type ReviewCancelRequest struct {
	Reason models.CancelReason `json:"reason" validate:"required"`
}

// CancelResult reports everything a cancellation decided.
type CancelResult struct {
	Enrollment *models.Enrollment       `json:"enrollment"`
	Suspension *models.SuspensionRecord `json:"suspension,omitempty"`
	Promoted   *models.Enrollment       `json:"promoted,omitempty"`
}

// EngineService composes the three ledgers into the public enrollment
// operations. It holds no state of its own: every decision runs as one atomic
// scope against the backing store, and only after the scope commits are
// notification intents emitted.
type EngineService struct {
	runner      atomicRunner
	enrollments enrollmentRepository
	sessions    sessionReader
	suspensions suspensionLedger
	promoter    waitlistPromoter
	policy      *PenaltyPolicy
	notifier    Notifier
	metrics     engineMetrics
	clock       Clock
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEngineService constructs the orchestrator.
func NewEngineService(
	runner atomicRunner,
	enrollments enrollmentRepository,
	sessions sessionReader,
	suspensions suspensionLedger,
	promoter waitlistPromoter,
	policy *PenaltyPolicy,
	notifier Notifier,
	metrics engineMetrics,
	clock Clock,
	validate *validator.Validate,
	logger *zap.Logger,
) *EngineService {
	if validate == nil {
		validate = validator.New()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngineService{
		runner:      runner,
		enrollments: enrollments,
		sessions:    sessions,
		suspensions: suspensions,
		promoter:    promoter,
		policy:      policy,
		notifier:    notifier,
		metrics:     metrics,
		clock:       clock,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll registers the student, confirming a seat when capacity allows and
// queueing on the waitlist otherwise. The suspension gate, duplicate check,
// capacity check and insert all happen in one atomic scope so two concurrent
// calls can never both take the last seat.
func (s *EngineService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	now := s.clock.Now()

	// Cached gate first so a suspended student fails fast without taking
	// locks. The authoritative check runs again inside the scope.
	suspended, err := s.suspensions.IsSuspended(ctx, req.StudentID, now)
	if err != nil {
		return nil, err
	}
	if suspended {
		return nil, appErrors.Clone(appErrors.ErrSuspended, "")
	}

	var outcome models.EnrollmentOutcome

	err = s.runner.EnrollmentScope(ctx, req.ClassID, req.StudentID, func(ctx context.Context) error {
		session, err := s.loadSession(ctx, req.ClassID)
		if err != nil {
			return err
		}
		if !session.WindowOpen {
			return appErrors.Clone(appErrors.ErrWindowClosed, "")
		}

		suspended, err := s.suspensions.IsSuspendedDirect(ctx, req.StudentID, now)
		if err != nil {
			return err
		}
		if suspended {
			return appErrors.Clone(appErrors.ErrSuspended, "")
		}

		existing, err := s.enrollments.ActiveEnrollment(ctx, req.ClassID, req.StudentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
		}
		if existing != nil {
			return appErrors.Clone(appErrors.ErrDuplicateEnrollment, "")
		}

		confirmed, err := s.enrollments.ConfirmedCount(ctx, req.ClassID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count confirmed seats")
		}

		status := models.EnrollmentStatusConfirmed
		if confirmed >= session.Capacity {
			status = models.EnrollmentStatusWaitlisted
		}

		enrollment := models.Enrollment{
			ClassID:   req.ClassID,
			StudentID: req.StudentID,
			Status:    status,
			CreatedAt: now,
		}
		if err := s.enrollments.Create(ctx, &enrollment); err != nil {
			return err
		}
		outcome.Enrollment = enrollment

		if status == models.EnrollmentStatusWaitlisted {
			position, err := s.waitlistPosition(ctx, req.ClassID, enrollment.ID)
			if err != nil {
				return err
			}
			outcome.Position = position
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := models.NotificationConfirmation
	params := map[string]interface{}{"class_id": req.ClassID}
	if outcome.Enrollment.Status == models.EnrollmentStatusWaitlisted {
		kind = models.NotificationWaitlisted
		params["position"] = outcome.Position
	}
	s.notify(ctx, models.NotificationIntent{StudentID: req.StudentID, Kind: kind, Params: params})
	if s.metrics != nil {
		s.metrics.RecordEnrollment(string(outcome.Enrollment.Status))
	}
	return &outcome, nil
}

// Cancel is the self-service cancellation. The cancellation kind and penalty
// derive from the actual lead time against the class start; a vacated
// confirmed seat triggers exactly one promotion attempt in the same scope.
//
// A non-empty requesterID restricts the operation to the enrollment's owner;
// staff callers pass an empty requester.
func (s *EngineService) Cancel(ctx context.Context, enrollmentID, requesterID string) (*CancelResult, error) {
	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if requesterID != "" && enrollment.StudentID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}

	now := s.clock.Now()
	result := &CancelResult{}

	err = s.runner.EnrollmentScope(ctx, enrollment.ClassID, enrollment.StudentID, func(ctx context.Context) error {
		// Re-read under the locks; the pre-scope row only supplied the lock
		// keys and may be stale by the time the scope is entered.
		current, err := s.loadEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}

		session, err := s.loadSession(ctx, current.ClassID)
		if err != nil {
			return err
		}

		reason := s.policy.ClassifyCancel(session.StartsAt, now)

		cancelled, err := s.enrollments.Cancel(ctx, enrollmentID, now, reason)
		if err != nil {
			return err
		}
		result.Enrollment = cancelled

		record, err := s.suspensions.Impose(ctx, current.StudentID, reason, now)
		if err != nil {
			return err
		}
		result.Suspension = record

		// Only a confirmed seat frees capacity; a waitlist cancel promotes nobody.
		if current.Status == models.EnrollmentStatusConfirmed {
			promoted, err := s.promoter.PromoteIfSeatAvailable(ctx, current.ClassID)
			if err != nil {
				return err
			}
			result.Promoted = promoted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitCancelIntents(ctx, enrollment.ClassID, result)
	return result, nil
}

// ReportAbsence is the staff-entered no-show: attendance is recorded, the
// enrollment is cancelled with the no-show reason, the heaviest suspension is
// imposed and the vacated seat is offered to the waitlist.
func (s *EngineService) ReportAbsence(ctx context.Context, enrollmentID string) (*CancelResult, error) {
	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := &CancelResult{}

	err = s.runner.EnrollmentScope(ctx, enrollment.ClassID, enrollment.StudentID, func(ctx context.Context) error {
		current, err := s.loadEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if current.Status != models.EnrollmentStatusConfirmed {
			return appErrors.Clone(appErrors.ErrInvalidState, "absence requires a confirmed enrollment")
		}
		if current.Attendance != models.AttendanceUnset {
			return appErrors.Clone(appErrors.ErrInvalidState, "attendance already recorded")
		}

		if err := s.enrollments.SetAttendance(ctx, enrollmentID, models.AttendanceAbsent); err != nil {
			return err
		}

		cancelled, err := s.enrollments.Cancel(ctx, enrollmentID, now, models.CancelReasonNoShow)
		if err != nil {
			return err
		}
		result.Enrollment = cancelled

		record, err := s.suspensions.Impose(ctx, enrollment.StudentID, models.CancelReasonNoShow, now)
		if err != nil {
			return err
		}
		result.Suspension = record

		promoted, err := s.promoter.PromoteIfSeatAvailable(ctx, enrollment.ClassID)
		if err != nil {
			return err
		}
		result.Promoted = promoted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitCancelIntents(ctx, enrollment.ClassID, result)
	return result, nil
}

// ReportPresence records attendance for a confirmed enrollment. No capacity
// or penalty consequences.
func (s *EngineService) ReportPresence(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	err = s.runner.ClassScope(ctx, enrollment.ClassID, func(ctx context.Context) error {
		current, err := s.loadEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if current.Status != models.EnrollmentStatusConfirmed {
			return appErrors.Clone(appErrors.ErrInvalidState, "presence requires a confirmed enrollment")
		}
		if current.Attendance != models.AttendanceUnset {
			return appErrors.Clone(appErrors.ErrInvalidState, "attendance already recorded")
		}
		return s.enrollments.SetAttendance(ctx, enrollmentID, models.AttendancePresent)
	})
	if err != nil {
		return nil, err
	}

	enrollment.Attendance = models.AttendancePresent
	return enrollment, nil
}

// ReviewCancel is the staff cancel-with-notice-review: the reviewer selects
// the reason kind (and thereby the penalty) explicitly. Reason NONE cancels
// without imposing anything.
func (s *EngineService) ReviewCancel(ctx context.Context, enrollmentID string, req ReviewCancelRequest) (*CancelResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if !req.Reason.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown cancellation reason")
	}

	enrollment, err := s.loadEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := &CancelResult{}

	err = s.runner.EnrollmentScope(ctx, enrollment.ClassID, enrollment.StudentID, func(ctx context.Context) error {
		// Same re-read as Cancel: the promotion decision follows the status
		// as it stands under the locks.
		current, err := s.loadEnrollment(ctx, enrollmentID)
		if err != nil {
			return err
		}

		cancelled, err := s.enrollments.Cancel(ctx, enrollmentID, now, req.Reason)
		if err != nil {
			return err
		}
		result.Enrollment = cancelled

		if req.Reason != models.CancelReasonNone {
			record, err := s.suspensions.Impose(ctx, current.StudentID, req.Reason, now)
			if err != nil {
				return err
			}
			result.Suspension = record
		}

		if current.Status == models.EnrollmentStatusConfirmed {
			promoted, err := s.promoter.PromoteIfSeatAvailable(ctx, current.ClassID)
			if err != nil {
				return err
			}
			result.Promoted = promoted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitCancelIntents(ctx, enrollment.ClassID, result)
	return result, nil
}

// Roster returns the staff view of a class: session, confirmed seats and the
// ordered waitlist.
func (s *EngineService) Roster(ctx context.Context, classID string) (*models.Roster, error) {
	session, err := s.loadSession(ctx, classID)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.enrollments.ListConfirmed(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list confirmed seats")
	}
	waitlist, err := s.enrollments.WaitlistOrdered(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list waitlist")
	}
	return &models.Roster{Session: *session, Confirmed: confirmed, Waitlist: waitlist}, nil
}

func (s *EngineService) loadSession(ctx context.Context, classID string) (*models.ClassSession, error) {
	session, err := s.sessions.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class session")
	}
	return session, nil
}

func (s *EngineService) loadEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

func (s *EngineService) waitlistPosition(ctx context.Context, classID, enrollmentID string) (int, error) {
	waitlist, err := s.enrollments.WaitlistOrdered(ctx, classID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist")
	}
	for i, e := range waitlist {
		if e.ID == enrollmentID {
			return i + 1, nil
		}
	}
	return 0, appErrors.Clone(appErrors.ErrInternal, "created enrollment missing from waitlist")
}

func (s *EngineService) emitCancelIntents(ctx context.Context, classID string, result *CancelResult) {
	if result.Enrollment != nil {
		s.notify(ctx, models.NotificationIntent{
			StudentID: result.Enrollment.StudentID,
			Kind:      models.NotificationCancelled,
			Params:    map[string]interface{}{"class_id": classID},
		})
	}
	if result.Suspension != nil {
		s.notify(ctx, models.NotificationIntent{
			StudentID: result.Suspension.StudentID,
			Kind:      models.NotificationSuspended,
			Params: map[string]interface{}{
				"reason": result.Suspension.Reason,
				"end_at": result.Suspension.EndAt,
			},
		})
		if s.metrics != nil {
			s.metrics.RecordSuspension(string(result.Suspension.Reason))
		}
	}
	if result.Promoted != nil {
		s.notify(ctx, models.NotificationIntent{
			StudentID: result.Promoted.StudentID,
			Kind:      models.NotificationPromoted,
			Params:    map[string]interface{}{"class_id": classID},
		})
		if s.metrics != nil {
			s.metrics.RecordPromotion()
		}
	}
}

func (s *EngineService) notify(ctx context.Context, intent models.NotificationIntent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, intent)
}
