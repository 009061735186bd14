package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/internal/service"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/response"
)

type movService interface {
	Upload(ctx context.Context, in service.UploadMOVInput, actorID string) (*models.MOV, error)
	List(ctx context.Context, submissionID string) ([]models.MOV, error)
	DownloadURL(ctx context.Context, id string) (*dto.MOVDownloadResponse, error)
	ResolveFile(ctx context.Context, token string) (*service.MOVFile, error)
	Delete(ctx context.Context, id string) error
}

// MOVHandler handles means of verification uploads and downloads.
type MOVHandler struct {
	service movService
}

// NewMOVHandler constructs a MOVHandler.
func NewMOVHandler(svc movService) *MOVHandler {
	return &MOVHandler{service: svc}
}

// Upload godoc
// @Summary Upload evidence for a rated objective
// @Tags MOV
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Submission ID"
// @Param objective_id formData string true "Objective ID"
// @Param file formData file true "Evidence file"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /ipcrf/{id}/movs [post]
func (h *MOVHandler) Upload(c *gin.Context) {
	objectiveID := strings.TrimSpace(c.PostForm("objective_id"))
	if objectiveID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "objective_id required"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "file required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "unreadable file"))
		return
	}
	defer file.Close()

	mov, err := h.service.Upload(c.Request.Context(), service.UploadMOVInput{
		SubmissionID: c.Param("id"),
		ObjectiveID:  objectiveID,
		Filename:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	}, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mov)
}

// List godoc
// @Summary List evidence of a submission
// @Tags MOV
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /ipcrf/{id}/movs [get]
func (h *MOVHandler) List(c *gin.Context) {
	movs, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movs, nil)
}

// Download godoc
// @Summary Signed download link for evidence
// @Tags MOV
// @Produce json
// @Param id path string true "MOV ID"
// @Success 200 {object} response.Envelope
// @Router /movs/{id}/download [get]
func (h *MOVHandler) Download(c *gin.Context) {
	link, err := h.service.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Delete godoc
// @Summary Remove evidence
// @Tags MOV
// @Param id path string true "MOV ID"
// @Success 204
// @Router /movs/{id} [delete]
func (h *MOVHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// File godoc
// @Summary Download evidence through a signed token
// @Tags MOV
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /files/{token} [get]
func (h *MOVHandler) File(c *gin.Context) {
	resolved, err := h.service.ResolveFile(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer resolved.File.Close()

	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, resolved.MOV.SizeBytes, resolved.MOV.ContentType, resolved.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", resolved.MOV.Filename),
	})
}
