package dto

// CreatePromotionRequest requests a change of a teacher's position.
type CreatePromotionRequest struct {
	TeacherID     string  `json:"teacher_id" validate:"required,uuid"`
	ToPosition    string  `json:"to_position" validate:"required,max=128"`
	EffectiveDate string  `json:"effective_date" validate:"required,datetime=2006-01-02"`
	Reason        *string `json:"reason" validate:"omitempty,max=2000"`
}
