package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classreg-api/internal/models"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
)

type suspensionAdminMock struct {
	history   []models.SuspensionRecord
	revokedID string
	revokeErr error
	editedID  string
	editedEnd time.Time
	edited    *models.SuspensionRecord
}

func (m *suspensionAdminMock) History(_ context.Context, studentID string) ([]models.SuspensionRecord, error) {
	return m.history, nil
}

func (m *suspensionAdminMock) Revoke(_ context.Context, id string) error {
	m.revokedID = id
	return m.revokeErr
}

func (m *suspensionAdminMock) EditPeriod(_ context.Context, id string, newEndAt time.Time) (*models.SuspensionRecord, error) {
	m.editedID = id
	m.editedEnd = newEndAt
	return m.edited, nil
}

func TestSuspensionHandlerHistory(t *testing.T) {
	mock := &suspensionAdminMock{history: []models.SuspensionRecord{{ID: "susp-1", StudentID: "student-1"}}}
	handler := NewSuspensionHandler(mock)

	c, w := newTestContext(t, http.MethodGet, "/students/student-1/suspensions", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "student-1"}}

	handler.History(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSuspensionHandlerRevoke(t *testing.T) {
	mock := &suspensionAdminMock{}
	handler := NewSuspensionHandler(mock)

	c, w := newTestContext(t, http.MethodPost, "/suspensions/susp-1/revoke", nil)
	c.Params = gin.Params{{Key: "id", Value: "susp-1"}}

	handler.Revoke(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "susp-1", mock.revokedID)
}

func TestSuspensionHandlerRevokeMissing(t *testing.T) {
	mock := &suspensionAdminMock{revokeErr: appErrors.Clone(appErrors.ErrNotFound, "suspension not found")}
	handler := NewSuspensionHandler(mock)

	c, w := newTestContext(t, http.MethodPost, "/suspensions/missing/revoke", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Revoke(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuspensionHandlerEditPeriod(t *testing.T) {
	endAt := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	mock := &suspensionAdminMock{edited: &models.SuspensionRecord{ID: "susp-1", EndAt: endAt, Active: true}}
	handler := NewSuspensionHandler(mock)

	body, _ := json.Marshal(map[string]string{"end_at": endAt.Format(time.RFC3339)})
	c, w := newTestContext(t, http.MethodPut, "/suspensions/susp-1/period", body)
	c.Params = gin.Params{{Key: "id", Value: "susp-1"}}

	handler.EditPeriod(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "susp-1", mock.editedID)
	require.True(t, mock.editedEnd.Equal(endAt))
}

func TestSuspensionHandlerEditPeriodInvalidBody(t *testing.T) {
	handler := NewSuspensionHandler(&suspensionAdminMock{})

	c, w := newTestContext(t, http.MethodPut, "/suspensions/susp-1/period", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "susp-1"}}

	handler.EditPeriod(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
