package dto

// ObjectiveRequest creates or updates one weighted objective.
type ObjectiveRequest struct {
	Code        string  `json:"code" validate:"required,max=32"`
	Description string  `json:"description" validate:"required,max=2000"`
	Weight      float64 `json:"weight"`
	Position    int     `json:"position" validate:"gte=0"`
}

// CreateKRARequest creates a KRA together with its objectives.
type CreateKRARequest struct {
	Name       string             `json:"name" validate:"required,max=255"`
	Position   int                `json:"position" validate:"gte=0"`
	Objectives []ObjectiveRequest `json:"objectives" validate:"dive"`
}

// UpdateKRARequest modifies the KRA header.
type UpdateKRARequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Position int    `json:"position" validate:"gte=0"`
	Active   *bool  `json:"active"`
}
