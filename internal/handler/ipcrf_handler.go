package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/middleware"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
	"github.com/noah-isme/sma-ipcrf-api/pkg/response"
)

type ipcrfService interface {
	Evaluate(ctx context.Context, req dto.RatingRequest) (*dto.EvaluationResult, error)
	Create(ctx context.Context, req dto.RatingRequest, actorID string) (*models.Submission, error)
	Update(ctx context.Context, id string, req dto.RatingRequest, actorID string) (*models.Submission, error)
	Submit(ctx context.Context, id string, req dto.StatusChangeRequest, actorID string) (*models.Submission, error)
	Approve(ctx context.Context, id string, req dto.StatusChangeRequest, actorID string) (*models.Submission, error)
	Delete(ctx context.Context, id, actorID string) error
	Get(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error)
	Summary(ctx context.Context, period string) (*models.PeriodSummary, bool, error)
	FormPDF(ctx context.Context, id string) ([]byte, string, error)
}

// IPCRFHandler exposes rating submissions.
type IPCRFHandler struct {
	service ipcrfService
}

// NewIPCRFHandler constructs an IPCRFHandler.
func NewIPCRFHandler(svc ipcrfService) *IPCRFHandler {
	return &IPCRFHandler{service: svc}
}

// Evaluate godoc
// @Summary Preview a rating without saving it
// @Tags IPCRF
// @Accept json
// @Produce json
// @Param payload body dto.RatingRequest true "Rating payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ipcrf/evaluate [post]
func (h *IPCRFHandler) Evaluate(c *gin.Context) {
	req, ok := bindRating(c)
	if !ok {
		return
	}
	result, err := h.service.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List IPCRF submissions
// @Tags IPCRF
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param rating_period query string false "Rating period, e.g. 2024-2025"
// @Param status query string false "draft, submitted or approved"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (rating_period,numerical_rating,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /ipcrf [get]
func (h *IPCRFHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		TeacherID:    strings.TrimSpace(c.Query("teacher_id")),
		RatingPeriod: strings.TrimSpace(c.Query("rating_period")),
		Status:       rating.Status(strings.ToLower(c.Query("status"))),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Create a draft IPCRF submission
// @Tags IPCRF
// @Accept json
// @Produce json
// @Param payload body dto.RatingRequest true "Rating payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ipcrf [post]
func (h *IPCRFHandler) Create(c *gin.Context) {
	req, ok := bindRating(c)
	if !ok {
		return
	}
	sub, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Get godoc
// @Summary Get IPCRF submission
// @Tags IPCRF
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ipcrf/{id} [get]
func (h *IPCRFHandler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Update godoc
// @Summary Re-rate an IPCRF submission
// @Tags IPCRF
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.RatingRequest true "Rating payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ipcrf/{id} [put]
func (h *IPCRFHandler) Update(c *gin.Context) {
	req, ok := bindRating(c)
	if !ok {
		return
	}
	sub, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Delete godoc
// @Summary Delete a draft submission
// @Tags IPCRF
// @Param id path string true "Submission ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /ipcrf/{id} [delete]
func (h *IPCRFHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit a draft for approval
// @Tags IPCRF
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.StatusChangeRequest false "Remarks"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ipcrf/{id}/submit [post]
func (h *IPCRFHandler) Submit(c *gin.Context) {
	req, ok := bindStatusChange(c)
	if !ok {
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Approve godoc
// @Summary Approve a submitted IPCRF
// @Tags IPCRF
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.StatusChangeRequest false "Remarks"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ipcrf/{id}/approve [post]
func (h *IPCRFHandler) Approve(c *gin.Context) {
	req, ok := bindStatusChange(c)
	if !ok {
		return
	}
	sub, err := h.service.Approve(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// PDF godoc
// @Summary Printable IPCRF form
// @Tags IPCRF
// @Produce application/pdf
// @Param id path string true "Submission ID"
// @Success 200 {file} file
// @Router /ipcrf/{id}/pdf [get]
func (h *IPCRFHandler) PDF(c *gin.Context) {
	body, filename, err := h.service.FormPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "application/pdf", filename, body)
}

// Summary godoc
// @Summary Adjectival distribution of a rating period
// @Tags IPCRF
// @Produce json
// @Param rating_period query string true "Rating period, e.g. 2024-2025"
// @Success 200 {object} response.Envelope
// @Router /ipcrf/summary [get]
func (h *IPCRFHandler) Summary(c *gin.Context) {
	period := strings.TrimSpace(c.Query("rating_period"))
	if period == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rating_period required"))
		return
	}
	summary, cached, err := h.service.Summary(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

func bindRating(c *gin.Context) (dto.RatingRequest, bool) {
	var req dto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid rating payload"))
		return req, false
	}
	return req, true
}

// bindStatusChange accepts an empty body.
func bindStatusChange(c *gin.Context) (dto.StatusChangeRequest, bool) {
	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Invalid(err, "invalid status payload"))
		return req, false
	}
	return req, true
}
