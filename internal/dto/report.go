package dto

import "github.com/noah-isme/sma-ipcrf-api/internal/models"

// ReportRequest captures POST /reports/generate payload.
type ReportRequest struct {
	Type         models.ReportType   `json:"type" validate:"required,oneof=teachers ipcrf promotions"`
	Format       models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	RatingPeriod string              `json:"rating_period" validate:"omitempty,schoolyear"`
	Status       string              `json:"status,omitempty"`
	Position     string              `json:"position,omitempty"`
	ActiveOnly   bool                `json:"active_only,omitempty"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
