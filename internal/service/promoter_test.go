package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classreg-api/internal/models"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

func newPromoterFixture() (*WaitlistPromoter, *memStore) {
	store := newMemStore()
	return NewWaitlistPromoter(&memEnrollments{store: store}, &memSessions{store: store}, nil), store
}

func seedEnrollment(store *memStore, id, classID, studentID string, status models.EnrollmentStatus, createdAt time.Time) {
	store.seq++
	store.enrollments[id] = &models.Enrollment{
		ID:         id,
		ClassID:    classID,
		StudentID:  studentID,
		Status:     status,
		Attendance: models.AttendanceUnset,
		CreatedAt:  createdAt,
		Seq:        store.seq,
	}
}

func TestPromoterFullClassIsNoOp(t *testing.T) {
	promoter, store := newPromoterFixture()
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	store.sessions["c1"] = &models.ClassSession{ID: "c1", Capacity: 1, StartsAt: now, WindowOpen: true}
	seedEnrollment(store, "e1", "c1", "s1", models.EnrollmentStatusConfirmed, now)
	seedEnrollment(store, "e2", "c1", "s2", models.EnrollmentStatusWaitlisted, now.Add(time.Minute))

	promoted, err := promoter.PromoteIfSeatAvailable(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, promoted)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, store.enrollments["e2"].Status)
}

func TestPromoterEmptyWaitlistIsNoOp(t *testing.T) {
	promoter, store := newPromoterFixture()
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	store.sessions["c1"] = &models.ClassSession{ID: "c1", Capacity: 2, StartsAt: now, WindowOpen: true}
	seedEnrollment(store, "e1", "c1", "s1", models.EnrollmentStatusConfirmed, now)

	promoted, err := promoter.PromoteIfSeatAvailable(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, promoted)
}

func TestPromoterConfirmsEarliestWaiter(t *testing.T) {
	promoter, store := newPromoterFixture()
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	store.sessions["c1"] = &models.ClassSession{ID: "c1", Capacity: 2, StartsAt: now, WindowOpen: true}
	seedEnrollment(store, "e1", "c1", "s1", models.EnrollmentStatusConfirmed, now)
	seedEnrollment(store, "e2", "c1", "s2", models.EnrollmentStatusWaitlisted, now.Add(2*time.Minute))
	seedEnrollment(store, "e3", "c1", "s3", models.EnrollmentStatusWaitlisted, now.Add(time.Minute))

	promoted, err := promoter.PromoteIfSeatAvailable(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, "e3", promoted.ID)
	assert.Equal(t, models.EnrollmentStatusConfirmed, store.enrollments["e3"].Status)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, store.enrollments["e2"].Status)
}

func TestPromoterBreaksTimestampTiesBySeq(t *testing.T) {
	promoter, store := newPromoterFixture()
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	store.sessions["c1"] = &models.ClassSession{ID: "c1", Capacity: 1, StartsAt: now, WindowOpen: true}
	seedEnrollment(store, "e1", "c1", "s1", models.EnrollmentStatusWaitlisted, now)
	seedEnrollment(store, "e2", "c1", "s2", models.EnrollmentStatusWaitlisted, now)

	promoted, err := promoter.PromoteIfSeatAvailable(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, "e1", promoted.ID)
}

func TestPromoterUnknownClass(t *testing.T) {
	promoter, _ := newPromoterFixture()

	_, err := promoter.PromoteIfSeatAvailable(context.Background(), "missing")
	assertErrorCode(t, err, appErrors.ErrNotFound.Code)
}
