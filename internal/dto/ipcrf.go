package dto

import (
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

// RatingRequest is the full rating payload for one teacher and period. Ratings
// are matched to the KRA configuration by objective id.
type RatingRequest struct {
	TeacherID    string           `json:"teacher_id" validate:"required,uuid"`
	RatingPeriod string           `json:"rating_period" validate:"required,schoolyear"`
	KRADetails   []KRARatingInput `json:"kra_details" validate:"dive"`
	Remarks      *string          `json:"remarks" validate:"omitempty,max=2000"`
}

// KRARatingInput holds the rated objectives of one KRA. Names and codes are
// informational; the configured values win.
type KRARatingInput struct {
	KRAID      string                 `json:"kra_id" validate:"required"`
	KRAName    string                 `json:"kra_name,omitempty"`
	Objectives []ObjectiveRatingInput `json:"objectives" validate:"dive"`
}

// ObjectiveRatingInput is one objective rating, an integer 1..5.
type ObjectiveRatingInput struct {
	ObjectiveID string `json:"objective_id" validate:"required"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Rating      int    `json:"rating"`
}

// EvaluationResult is the computed outcome of a rating payload.
type EvaluationResult struct {
	KRADetails       []KRAResultView `json:"kra_details"`
	TotalScore       float64         `json:"total_score"`
	NumericalRating  float64         `json:"numerical_rating"`
	AdjectivalRating rating.Label    `json:"adjectival_rating"`
	Status           rating.Status   `json:"status"`
}

// KRAResultView echoes the KRA aggregates.
type KRAResultView struct {
	KRAID         string                `json:"kra_id"`
	KRAName       string                `json:"kra_name"`
	Objectives    []ObjectiveResultView `json:"objectives"`
	AverageRating float64               `json:"average_rating"`
	Score         float64               `json:"score"`
}

// ObjectiveResultView echoes one scored objective.
type ObjectiveResultView struct {
	ObjectiveID string  `json:"objective_id"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Rating      int     `json:"rating"`
	Score       float64 `json:"score"`
}

// StatusChangeRequest carries optional remarks for submit and approve.
type StatusChangeRequest struct {
	Remarks *string `json:"remarks" validate:"omitempty,max=2000"`
}

// MOVDownloadResponse returns a signed link to an uploaded file.
type MOVDownloadResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
