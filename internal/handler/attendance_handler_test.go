package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classreg-api/internal/models"
	"github.com/noah-isme/classreg-api/internal/service"
)

type attendanceEngineMock struct {
	presenceID string
	absenceID  string
	presence   *models.Enrollment
	absence    *service.CancelResult
}

func (m *attendanceEngineMock) ReportPresence(_ context.Context, enrollmentID string) (*models.Enrollment, error) {
	m.presenceID = enrollmentID
	return m.presence, nil
}

func (m *attendanceEngineMock) ReportAbsence(_ context.Context, enrollmentID string) (*service.CancelResult, error) {
	m.absenceID = enrollmentID
	return m.absence, nil
}

func TestAttendanceHandlerMarkPresent(t *testing.T) {
	mock := &attendanceEngineMock{presence: &models.Enrollment{ID: "enr-1", Attendance: models.AttendancePresent}}
	handler := NewAttendanceHandler(mock)

	body, _ := json.Marshal(map[string]string{"status": "present"})
	c, w := newTestContext(t, http.MethodPost, "/enrollments/enr-1/attendance", body)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Mark(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "enr-1", mock.presenceID)
	require.Empty(t, mock.absenceID)
}

func TestAttendanceHandlerMarkAbsent(t *testing.T) {
	mock := &attendanceEngineMock{absence: &service.CancelResult{}}
	handler := NewAttendanceHandler(mock)

	body, _ := json.Marshal(map[string]string{"status": "Absent"})
	c, w := newTestContext(t, http.MethodPost, "/enrollments/enr-1/attendance", body)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Mark(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "enr-1", mock.absenceID)
}

func TestAttendanceHandlerMarkUnknownStatus(t *testing.T) {
	handler := NewAttendanceHandler(&attendanceEngineMock{})

	body, _ := json.Marshal(map[string]string{"status": "late"})
	c, w := newTestContext(t, http.MethodPost, "/enrollments/enr-1/attendance", body)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Mark(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerMarkMissingStatus(t *testing.T) {
	handler := NewAttendanceHandler(&attendanceEngineMock{})

	c, w := newTestContext(t, http.MethodPost, "/enrollments/enr-1/attendance", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Mark(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
