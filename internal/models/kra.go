package models

import "time"

// KRA is a configured key result area with its ordered objectives.
type KRA struct {
	ID         string      `db:"id" json:"id"`
	Name       string      `db:"name" json:"name"`
	Position   int         `db:"position" json:"position"`
	Active     bool        `db:"active" json:"active"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
	Objectives []Objective `db:"-" json:"objectives"`
}

// TotalWeight sums the weights of every objective.
func (k KRA) TotalWeight() float64 {
	total := 0.0
	for _, o := range k.Objectives {
		total += o.Weight
	}
	return total
}

// Objective is a weighted performance indicator under one KRA.
type Objective struct {
	ID          string    `db:"id" json:"id"`
	KRAID       string    `db:"kra_id" json:"kra_id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	Weight      float64   `db:"weight" json:"weight"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// KRAFilter narrows KRA listings.
type KRAFilter struct {
	IncludeInactive bool
}
