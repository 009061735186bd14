package models

import "time"

// Teacher is a rated member of the faculty.
type Teacher struct {
	ID         string     `db:"id" json:"id"`
	EmployeeNo *string    `db:"employee_no" json:"employee_no,omitempty"`
	Email      string     `db:"email" json:"email"`
	FullName   string     `db:"full_name" json:"full_name"`
	Position   string     `db:"position" json:"position"`
	Department *string    `db:"department" json:"department,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	DateHired  *time.Time `db:"date_hired" json:"date_hired,omitempty"`
	UserID     *string    `db:"user_id" json:"user_id,omitempty"`
	Active     bool       `db:"active" json:"active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Position  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
