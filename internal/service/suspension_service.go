package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classreg-api/internal/models"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

type suspensionRepository interface {
	FindByID(ctx context.Context, id string) (*models.SuspensionRecord, error)
	ActiveEnd(ctx context.Context, studentID string, now time.Time) (*time.Time, error)
	Create(ctx context.Context, record *models.SuspensionRecord) error
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePeriod(ctx context.Context, id string, endAt time.Time, active bool) error
	ListByStudent(ctx context.Context, studentID string) ([]models.SuspensionRecord, error)
}

type suspensionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SuspensionService is the suspension ledger: it answers the "is suspended
// now" gate and owns penalty record writes.
//
// Repeat violations override rather than stack: every record is inserted with
// its own span measured from the violation time, and the gate takes the max
// end_at among records in force. A later lighter violation therefore never
// shortens an earlier heavier ban.
type SuspensionService struct {
	repo     suspensionRepository
	cache    suspensionCache
	policy   *PenaltyPolicy
	clock    Clock
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSuspensionService constructs the service. Cache may be nil.
func NewSuspensionService(repo suspensionRepository, cache suspensionCache, policy *PenaltyPolicy, clock Clock, cacheTTL time.Duration, logger *zap.Logger) *SuspensionService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &SuspensionService{repo: repo, cache: cache, policy: policy, clock: clock, cacheTTL: cacheTTL, logger: logger}
}

func gateKey(studentID string) string {
	return "suspension:gate:" + studentID
}

// IsSuspended reports whether any active record's end_at lies beyond now.
// Expiry is computed lazily here; nothing ever sweeps expired rows.
func (s *SuspensionService) IsSuspended(ctx context.Context, studentID string, now time.Time) (bool, error) {
	if s.cache != nil {
		var cachedEnd string
		if err := s.cache.Get(ctx, gateKey(studentID), &cachedEnd); err == nil {
			if cachedEnd == "" {
				return false, nil
			}
			if end, parseErr := time.Parse(time.RFC3339Nano, cachedEnd); parseErr == nil {
				return end.After(now), nil
			}
		}
	}

	end, err := s.repo.ActiveEnd(ctx, studentID, now)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check suspension")
	}

	if s.cache != nil {
		cached := ""
		if end != nil {
			cached = end.Format(time.RFC3339Nano)
		}
		if cacheErr := s.cache.Set(ctx, gateKey(studentID), cached, s.cacheTTL); cacheErr != nil {
			s.logger.Warn("suspension gate cache set failed", zap.String("student_id", studentID), zap.Error(cacheErr))
		}
	}

	return end != nil && end.After(now), nil
}

// IsSuspendedDirect answers the gate straight from the store, skipping the
// cache in both directions. Atomic sections use it so no cache round trip
// sits under the advisory locks.
func (s *SuspensionService) IsSuspendedDirect(ctx context.Context, studentID string, now time.Time) (bool, error) {
	end, err := s.repo.ActiveEnd(ctx, studentID, now)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check suspension")
	}
	return end != nil && end.After(now), nil
}

// Impose creates a suspension record for the violation. Returns nil without
// writing when the configured duration for the kind is zero.
func (s *SuspensionService) Impose(ctx context.Context, studentID string, reason models.CancelReason, now time.Time) (*models.SuspensionRecord, error) {
	duration := s.policy.DurationFor(reason)
	if duration <= 0 {
		return nil, nil
	}

	record := &models.SuspensionRecord{
		StudentID: studentID,
		Reason:    reason,
		StartAt:   now,
		EndAt:     now.Add(duration),
		Active:    true,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to impose suspension")
	}
	s.invalidateGate(ctx, studentID)

	s.logger.Info("suspension imposed",
		zap.String("student_id", studentID),
		zap.String("reason", string(reason)),
		zap.Time("end_at", record.EndAt))
	return record, nil
}

// Revoke flips a record inactive. Revoking an already-inactive record is a
// no-op, not an error.
func (s *SuspensionService) Revoke(ctx context.Context, id string) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "suspension not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load suspension")
	}
	if !record.Active {
		return nil
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke suspension")
	}
	s.invalidateGate(ctx, record.StudentID)
	return nil
}

// EditPeriod rewrites a record's end and recomputes active from the new span.
func (s *SuspensionService) EditPeriod(ctx context.Context, id string, newEndAt time.Time) (*models.SuspensionRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "suspension not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load suspension")
	}

	active := newEndAt.After(s.clock.Now())
	if err := s.repo.UpdatePeriod(ctx, id, newEndAt, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update suspension period")
	}
	s.invalidateGate(ctx, record.StudentID)

	record.EndAt = newEndAt
	record.Active = active
	return record, nil
}

// History lists all suspension records for a student, newest first.
func (s *SuspensionService) History(ctx context.Context, studentID string) ([]models.SuspensionRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suspensions")
	}
	return records, nil
}

func (s *SuspensionService) invalidateGate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, gateKey(studentID)); err != nil {
		s.logger.Warn(fmt.Sprintf("suspension gate invalidation failed for %s", studentID), zap.Error(err))
	}
}
