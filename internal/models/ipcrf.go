package models

import (
	"time"

	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

// Submission is one IPCRF rating record of a teacher for a rating period.
type Submission struct {
	ID               string        `db:"id" json:"id"`
	TeacherID        string        `db:"teacher_id" json:"teacher_id"`
	RaterID          *string       `db:"rater_id" json:"rater_id,omitempty"`
	RatingPeriod     string        `db:"rating_period" json:"rating_period"`
	TotalScore       float64       `db:"total_score" json:"total_score"`
	NumericalRating  float64       `db:"numerical_rating" json:"numerical_rating"`
	AdjectivalRating rating.Label  `db:"adjectival_rating" json:"adjectival_rating"`
	Status           rating.Status `db:"status" json:"status"`
	Remarks          *string       `db:"remarks" json:"remarks,omitempty"`
	SubmittedAt      *time.Time    `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy       *string       `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`

	TeacherName string          `db:"teacher_name" json:"teacher_name,omitempty"`
	KRAs        []SubmissionKRA `db:"-" json:"kra_details,omitempty"`
}

// SubmissionKRA is the stored aggregate of one KRA inside a submission.
type SubmissionKRA struct {
	ID            string            `db:"id" json:"id"`
	SubmissionID  string            `db:"submission_id" json:"-"`
	KRAID         string            `db:"kra_id" json:"kra_id"`
	KRAName       string            `db:"kra_name" json:"kra_name"`
	Position      int               `db:"position" json:"-"`
	AverageRating float64           `db:"average_rating" json:"average_rating"`
	Score         float64           `db:"score" json:"score"`
	Objectives    []ObjectiveRating `db:"-" json:"objectives"`
}

// ObjectiveRating is a stored rating of one objective, with the weight used at rating time.
type ObjectiveRating struct {
	ID          string  `db:"id" json:"-"`
	KRAResultID string  `db:"kra_result_id" json:"-"`
	ObjectiveID string  `db:"objective_id" json:"objective_id"`
	Code        string  `db:"code" json:"code"`
	Description string  `db:"description" json:"description"`
	Weight      float64 `db:"weight" json:"weight"`
	Rating      int     `db:"rating" json:"rating"`
	Score       float64 `db:"score" json:"score"`
	Position    int     `db:"position" json:"-"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	TeacherID    string
	RatingPeriod string
	Status       rating.Status
	RaterID      string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// StatusChange describes a lifecycle move persisted by the repository.
type StatusChange struct {
	SubmissionID string
	From         rating.Status
	To           rating.Status
	At           time.Time
	ActorID      string
}

// LabelCount is one row of the per period adjectival distribution.
type LabelCount struct {
	Label rating.Label `db:"adjectival_rating" json:"label"`
	Count int          `db:"count" json:"count"`
}

// PeriodSummary aggregates the submissions of one rating period.
type PeriodSummary struct {
	RatingPeriod  string                `json:"rating_period"`
	Submissions   int                   `json:"submissions"`
	AverageRating float64               `json:"average_rating"`
	Distribution  map[rating.Label]int  `json:"distribution"`
	ByStatus      map[rating.Status]int `json:"by_status"`
}

// RatedTeacher is a row of teacher level results, used by exports and the CLI summary.
type RatedTeacher struct {
	SubmissionID     string        `db:"submission_id" json:"submission_id"`
	TeacherID        string        `db:"teacher_id" json:"teacher_id"`
	EmployeeNo       *string       `db:"employee_no" json:"employee_no,omitempty"`
	FullName         string        `db:"full_name" json:"full_name"`
	Position         string        `db:"position" json:"position"`
	RatingPeriod     string        `db:"rating_period" json:"rating_period"`
	TotalScore       float64       `db:"total_score" json:"total_score"`
	NumericalRating  float64       `db:"numerical_rating" json:"numerical_rating"`
	AdjectivalRating rating.Label  `db:"adjectival_rating" json:"adjectival_rating"`
	Status           rating.Status `db:"status" json:"status"`
}
