package models

import "time"

// PromotionStatus is the decision state of a promotion request.
type PromotionStatus string

const (
	PromotionPending  PromotionStatus = "pending"
	PromotionApproved PromotionStatus = "approved"
	PromotionRejected PromotionStatus = "rejected"
)

// Promotion records a requested change of a teacher's position.
type Promotion struct {
	ID            string          `db:"id" json:"id"`
	TeacherID     string          `db:"teacher_id" json:"teacher_id"`
	FromPosition  string          `db:"from_position" json:"from_position"`
	ToPosition    string          `db:"to_position" json:"to_position"`
	EffectiveDate time.Time       `db:"effective_date" json:"effective_date"`
	Reason        *string         `db:"reason" json:"reason,omitempty"`
	Status        PromotionStatus `db:"status" json:"status"`
	DecidedBy     *string         `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt     *time.Time      `db:"decided_at" json:"decided_at,omitempty"`
	CreatedBy     *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`

	TeacherName string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// PromotionFilter narrows promotion listings.
type PromotionFilter struct {
	TeacherID string
	Status    PromotionStatus
	Page      int
	PageSize  int
}
