package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classreg-api/internal/models"
	appErrors "github.com/noah-isme/classreg-api/pkg/errors"
	"github.com/noah-isme/classreg-api/pkg/response"
)

type suspensionAdmin interface {
	History(ctx context.Context, studentID string) ([]models.SuspensionRecord, error)
	Revoke(ctx context.Context, id string) error
	EditPeriod(ctx context.Context, id string, newEndAt time.Time) (*models.SuspensionRecord, error)
}

// SuspensionHandler exposes the suspension ledger admin endpoints.
type SuspensionHandler struct {
	suspensions suspensionAdmin
}

// NewSuspensionHandler constructs SuspensionHandler.
func NewSuspensionHandler(suspensions suspensionAdmin) *SuspensionHandler {
	return &SuspensionHandler{suspensions: suspensions}
}

// History godoc
// @Summary Suspension history for a student
// @Tags Suspensions
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/suspensions [get]
func (h *SuspensionHandler) History(c *gin.Context) {
	records, err := h.suspensions.History(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Revoke godoc
// @Summary Revoke a suspension early
// @Tags Suspensions
// @Produce json
// @Param id path string true "Suspension ID"
// @Success 204
// @Router /suspensions/{id}/revoke [post]
func (h *SuspensionHandler) Revoke(c *gin.Context) {
	if err := h.suspensions.Revoke(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type editPeriodBody struct {
	EndAt time.Time `json:"end_at" binding:"required"`
}

// EditPeriod godoc
// @Summary Edit a suspension's end; active is recomputed from the new span
// @Tags Suspensions
// @Accept json
// @Produce json
// @Param id path string true "Suspension ID"
// @Param payload body editPeriodBody true "New end timestamp"
// @Success 200 {object} response.Envelope
// @Router /suspensions/{id}/period [put]
func (h *SuspensionHandler) EditPeriod(c *gin.Context) {
	var body editPeriodBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.suspensions.EditPeriod(c.Request.Context(), c.Param("id"), body.EndAt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
