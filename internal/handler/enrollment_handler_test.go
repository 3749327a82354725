package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classreg-api/internal/middleware"
	"github.com/noah-isme/classreg-api/internal/models"
	"github.com/noah-isme/classreg-api/internal/service"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

type enrollmentEngineMock struct {
	enrollReq    *service.EnrollRequest
	enrollResp   *models.EnrollmentOutcome
	enrollErr    error
	cancelID     string
	cancelReq    string
	cancelResp   *service.CancelResult
	cancelErr    error
	reviewReason models.CancelReason
	rosterResp   *models.Roster
}

func (m *enrollmentEngineMock) Enroll(_ context.Context, req service.EnrollRequest) (*models.EnrollmentOutcome, error) {
	m.enrollReq = &req
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return m.enrollResp, nil
}

func (m *enrollmentEngineMock) Cancel(_ context.Context, enrollmentID, requesterID string) (*service.CancelResult, error) {
	m.cancelID = enrollmentID
	m.cancelReq = requesterID
	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	return m.cancelResp, nil
}

func (m *enrollmentEngineMock) ReviewCancel(_ context.Context, enrollmentID string, req service.ReviewCancelRequest) (*service.CancelResult, error) {
	m.cancelID = enrollmentID
	m.reviewReason = req.Reason
	return m.cancelResp, nil
}

func (m *enrollmentEngineMock) Roster(_ context.Context, classID string) (*models.Roster, error) {
	return m.rosterResp, nil
}

func newTestContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestEnrollmentHandlerCreateUsesCallerIdentity(t *testing.T) {
	mock := &enrollmentEngineMock{enrollResp: &models.EnrollmentOutcome{
		Enrollment: models.Enrollment{ID: "enr-1", ClassID: "class-1", StudentID: "student-1", Status: models.EnrollmentStatusConfirmed},
	}}
	handler := NewEnrollmentHandler(mock)

	c, w := newTestContext(t, http.MethodPost, "/classes/class-1/enrollments", nil)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SubjectID: "student-1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.enrollReq)
	require.Equal(t, "class-1", mock.enrollReq.ClassID)
	require.Equal(t, "student-1", mock.enrollReq.StudentID)
}

func TestEnrollmentHandlerCreateStaffOverride(t *testing.T) {
	mock := &enrollmentEngineMock{enrollResp: &models.EnrollmentOutcome{
		Enrollment: models.Enrollment{ID: "enr-1", ClassID: "class-1", StudentID: "student-9", Status: models.EnrollmentStatusWaitlisted},
		Position:   1,
	}}
	handler := NewEnrollmentHandler(mock)

	body, _ := json.Marshal(map[string]string{"student_id": "student-9"})
	c, w := newTestContext(t, http.MethodPost, "/classes/class-1/enrollments", body)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SubjectID: "staff-1", Role: models.RoleStaff})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "student-9", mock.enrollReq.StudentID)
}

func TestEnrollmentHandlerCreateIgnoresOverrideFromStudent(t *testing.T) {
	mock := &enrollmentEngineMock{enrollResp: &models.EnrollmentOutcome{
		Enrollment: models.Enrollment{ID: "enr-1"},
	}}
	handler := NewEnrollmentHandler(mock)

	body, _ := json.Marshal(map[string]string{"student_id": "student-9"})
	c, w := newTestContext(t, http.MethodPost, "/classes/class-1/enrollments", body)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SubjectID: "student-1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "student-1", mock.enrollReq.StudentID)
}

func TestEnrollmentHandlerCreateUnauthenticated(t *testing.T) {
	handler := NewEnrollmentHandler(&enrollmentEngineMock{})

	c, w := newTestContext(t, http.MethodPost, "/classes/class-1/enrollments", nil)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentHandlerCreateSuspendedMapsTo403(t *testing.T) {
	mock := &enrollmentEngineMock{enrollErr: appErrors.Clone(appErrors.ErrSuspended, "")}
	handler := NewEnrollmentHandler(mock)

	c, w := newTestContext(t, http.MethodPost, "/classes/class-1/enrollments", nil)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SubjectID: "student-1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestEnrollmentHandlerCancelStudentIsRestrictedToOwnRows(t *testing.T) {
	mock := &enrollmentEngineMock{cancelResp: &service.CancelResult{}}
	handler := NewEnrollmentHandler(mock)

	c, w := newTestContext(t, http.MethodDelete, "/enrollments/enr-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SubjectID: "student-1", Role: models.RoleStudent})

	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "enr-1", mock.cancelID)
	require.Equal(t, "student-1", mock.cancelReq)
}

func TestEnrollmentHandlerCancelStaffBypassesOwnership(t *testing.T) {
	mock := &enrollmentEngineMock{cancelResp: &service.CancelResult{}}
	handler := NewEnrollmentHandler(mock)

	c, w := newTestContext(t, http.MethodDelete, "/enrollments/enr-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{SubjectID: "staff-1", Role: models.RoleStaff})

	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "", mock.cancelReq)
}

func TestEnrollmentHandlerReviewCancelInvalidBody(t *testing.T) {
	handler := NewEnrollmentHandler(&enrollmentEngineMock{})

	c, w := newTestContext(t, http.MethodPost, "/enrollments/enr-1/review-cancel", []byte(`not-json`))
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.ReviewCancel(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerReviewCancelPassesReason(t *testing.T) {
	mock := &enrollmentEngineMock{cancelResp: &service.CancelResult{}}
	handler := NewEnrollmentHandler(mock)

	body, _ := json.Marshal(map[string]string{"reason": "NO_SHOW"})
	c, w := newTestContext(t, http.MethodPost, "/enrollments/enr-1/review-cancel", body)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.ReviewCancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.CancelReasonNoShow, mock.reviewReason)
}
