package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/response"
)

type kraService interface {
	List(ctx context.Context, includeInactive bool) ([]models.KRA, error)
	Get(ctx context.Context, id string) (*models.KRA, error)
	Create(ctx context.Context, req dto.CreateKRARequest) (*models.KRA, error)
	Update(ctx context.Context, id string, req dto.UpdateKRARequest) (*models.KRA, error)
	Deactivate(ctx context.Context, id string) error
	AddObjective(ctx context.Context, kraID string, req dto.ObjectiveRequest) (*models.Objective, error)
	UpdateObjective(ctx context.Context, id string, req dto.ObjectiveRequest) (*models.Objective, error)
	DeleteObjective(ctx context.Context, id string) error
}

// KRAHandler exposes the KRA configuration.
type KRAHandler struct {
	service kraService
}

// NewKRAHandler constructs a KRAHandler.
func NewKRAHandler(svc kraService) *KRAHandler {
	return &KRAHandler{service: svc}
}

// List godoc
// @Summary List KRAs with their objectives
// @Tags KRAs
// @Produce json
// @Param include_inactive query bool false "Include deactivated KRAs"
// @Success 200 {object} response.Envelope
// @Router /kras [get]
func (h *KRAHandler) List(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	kras, err := h.service.List(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kras, nil)
}

// Get godoc
// @Summary Get KRA detail
// @Tags KRAs
// @Produce json
// @Param id path string true "KRA ID"
// @Success 200 {object} response.Envelope
// @Router /kras/{id} [get]
func (h *KRAHandler) Get(c *gin.Context) {
	kra, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kra, nil)
}

// Create godoc
// @Summary Create KRA with objectives
// @Tags KRAs
// @Accept json
// @Produce json
// @Param payload body dto.CreateKRARequest true "KRA payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /kras [post]
func (h *KRAHandler) Create(c *gin.Context) {
	var req dto.CreateKRARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid kra payload"))
		return
	}
	kra, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, kra)
}

// Update godoc
// @Summary Update KRA
// @Tags KRAs
// @Accept json
// @Produce json
// @Param id path string true "KRA ID"
// @Param payload body dto.UpdateKRARequest true "KRA payload"
// @Success 200 {object} response.Envelope
// @Router /kras/{id} [put]
func (h *KRAHandler) Update(c *gin.Context) {
	var req dto.UpdateKRARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid kra payload"))
		return
	}
	kra, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kra, nil)
}

// Delete godoc
// @Summary Deactivate KRA
// @Tags KRAs
// @Param id path string true "KRA ID"
// @Success 204
// @Router /kras/{id} [delete]
func (h *KRAHandler) Delete(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddObjective godoc
// @Summary Add objective to KRA
// @Tags KRAs
// @Accept json
// @Produce json
// @Param id path string true "KRA ID"
// @Param payload body dto.ObjectiveRequest true "Objective payload"
// @Success 201 {object} response.Envelope
// @Router /kras/{id}/objectives [post]
func (h *KRAHandler) AddObjective(c *gin.Context) {
	var req dto.ObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid objective payload"))
		return
	}
	objective, err := h.service.AddObjective(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, objective)
}

// UpdateObjective godoc
// @Summary Update objective
// @Tags KRAs
// @Accept json
// @Produce json
// @Param id path string true "Objective ID"
// @Param payload body dto.ObjectiveRequest true "Objective payload"
// @Success 200 {object} response.Envelope
// @Router /objectives/{id} [put]
func (h *KRAHandler) UpdateObjective(c *gin.Context) {
	var req dto.ObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid objective payload"))
		return
	}
	objective, err := h.service.UpdateObjective(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, objective, nil)
}

// DeleteObjective godoc
// @Summary Delete an unrated objective
// @Tags KRAs
// @Param id path string true "Objective ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /objectives/{id} [delete]
func (h *KRAHandler) DeleteObjective(c *gin.Context) {
	if err := h.service.DeleteObjective(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
