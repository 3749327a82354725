package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classreg-api/internal/models"
	"github.com/noah-isme/classreg-api/internal/service"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
	"github.com/noah-isme/classreg-api/pkg/response"
)

type attendanceEngine interface {
	ReportPresence(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	ReportAbsence(ctx context.Context, enrollmentID string) (*service.CancelResult, error)
}

// AttendanceHandler records staff-entered attendance.
type AttendanceHandler struct {
	engine attendanceEngine
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(engine attendanceEngine) *AttendanceHandler {
	return &AttendanceHandler{engine: engine}
}

type attendanceBody struct {
	Status string `json:"status" binding:"required"`
}

// Mark godoc
// @Summary Mark presence or absence for a confirmed enrollment
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body attendanceBody true "present or absent"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var body attendanceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	id := c.Param("id")
	switch strings.ToLower(body.Status) {
	case "present":
		enrollment, err := h.engine.ReportPresence(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, enrollment, nil)
	case "absent":
		result, err := h.engine.ReportAbsence(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be present or absent"))
	}
}
