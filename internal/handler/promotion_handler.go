package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/response"
)

type promotionService interface {
	Create(ctx context.Context, req dto.CreatePromotionRequest, actorID string) (*models.Promotion, error)
	Get(ctx context.Context, id string) (*models.Promotion, error)
	List(ctx context.Context, filter models.PromotionFilter) ([]models.Promotion, *models.Pagination, error)
	Approve(ctx context.Context, id, actorID string) (*models.Promotion, error)
	Reject(ctx context.Context, id, actorID string) (*models.Promotion, error)
}

// PromotionHandler exposes promotion requests.
type PromotionHandler struct {
	service promotionService
}

// NewPromotionHandler constructs a PromotionHandler.
func NewPromotionHandler(svc promotionService) *PromotionHandler {
	return &PromotionHandler{service: svc}
}

// List godoc
// @Summary List promotions
// @Tags Promotions
// @Produce json
// @Param teacher_id query string false "Teacher ID"
// @Param status query string false "pending, approved or rejected"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /promotions [get]
func (h *PromotionHandler) List(c *gin.Context) {
	filter := models.PromotionFilter{
		TeacherID: strings.TrimSpace(c.Query("teacher_id")),
		Status:    models.PromotionStatus(strings.ToLower(c.Query("status"))),
	}
	filter.Page, filter.PageSize = pageParams(c)
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get promotion
// @Tags Promotions
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} response.Envelope
// @Router /promotions/{id} [get]
func (h *PromotionHandler) Get(c *gin.Context) {
	promotion, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, promotion, nil)
}

// Create godoc
// @Summary Request a promotion
// @Tags Promotions
// @Accept json
// @Produce json
// @Param payload body dto.CreatePromotionRequest true "Promotion payload"
// @Success 201 {object} response.Envelope
// @Router /promotions [post]
func (h *PromotionHandler) Create(c *gin.Context) {
	var req dto.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid promotion payload"))
		return
	}
	promotion, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, promotion)
}

// Approve godoc
// @Summary Approve a pending promotion
// @Tags Promotions
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /promotions/{id}/approve [post]
func (h *PromotionHandler) Approve(c *gin.Context) {
	promotion, err := h.service.Approve(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, promotion, nil)
}

// Reject godoc
// @Summary Reject a pending promotion
// @Tags Promotions
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /promotions/{id}/reject [post]
func (h *PromotionHandler) Reject(c *gin.Context) {
	promotion, err := h.service.Reject(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, promotion, nil)
}
