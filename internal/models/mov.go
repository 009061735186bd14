package models

import "time"

// MOV is an uploaded means of verification backing an objective rating.
type MOV struct {
	ID           string    `db:"id" json:"id"`
	SubmissionID string    `db:"submission_id" json:"submission_id"`
	ObjectiveID  string    `db:"objective_id" json:"objective_id"`
	Filename     string    `db:"filename" json:"filename"`
	StoredPath   string    `db:"stored_path" json:"-"`
	ContentType  string    `db:"content_type" json:"content_type"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy   *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
