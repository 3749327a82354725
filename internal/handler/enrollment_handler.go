package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classreg-api/internal/middleware"
	"github.com/noah-isme/classreg-api/internal/models"
	"github.com/noah-isme/classreg-api/internal/service"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
	"github.com/noah-isme/classreg-api/pkg/response"
)

type enrollmentEngine interface {
	Enroll(ctx context.Context, req service.EnrollRequest) (*models.EnrollmentOutcome, error)
	Cancel(ctx context.Context, enrollmentID, requesterID string) (*service.CancelResult, error)
	ReviewCancel(ctx context.Context, enrollmentID string, req service.ReviewCancelRequest) (*service.CancelResult, error)
	Roster(ctx context.Context, classID string) (*models.Roster, error)
}

// EnrollmentHandler exposes the enrollment engine endpoints.
type EnrollmentHandler struct {
	engine enrollmentEngine
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(engine enrollmentEngine) *EnrollmentHandler {
	return &EnrollmentHandler{engine: engine}
}

type enrollBody struct {
	StudentID string `json:"student_id"`
}

// Create godoc
// @Summary Enroll a student into a class session
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param classId path string true "Class session ID"
// @Param payload body enrollBody false "Student override (staff only)"
// @Success 201 {object} response.Envelope
// @Router /classes/{classId}/enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var body enrollBody
	if err := c.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	studentID := claims.SubjectID
	if claims.Role == models.RoleStaff && body.StudentID != "" {
		studentID = body.StudentID
	}

	outcome, err := h.engine.Enroll(c.Request.Context(), service.EnrollRequest{
		ClassID:   c.Param("classId"),
		StudentID: studentID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, outcome)
}

// Roster godoc
// @Summary Class roster: confirmed seats and ordered waitlist
// @Tags Enrollments
// @Produce json
// @Param classId path string true "Class session ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/enrollments [get]
func (h *EnrollmentHandler) Roster(c *gin.Context) {
	roster, err := h.engine.Roster(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Cancel godoc
// @Summary Cancel an enrollment (self-service)
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requester := claims.SubjectID
	if claims.Role == models.RoleStaff {
		requester = ""
	}

	result, err := h.engine.Cancel(c.Request.Context(), c.Param("id"), requester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ReviewCancel godoc
// @Summary Staff cancel with explicit notice review
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.ReviewCancelRequest true "Chosen reason kind"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/review-cancel [post]
func (h *EnrollmentHandler) ReviewCancel(c *gin.Context) {
	var req service.ReviewCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.engine.ReviewCancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
