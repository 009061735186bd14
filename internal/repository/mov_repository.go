package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
)

const movColumns = "id, submission_id, objective_id, filename, stored_path, content_type, size_bytes, uploaded_by, created_at"

// MOVRepository stores metadata of uploaded means of verification.
type MOVRepository struct {
	db *sqlx.DB
}

// NewMOVRepository constructs a MOVRepository.
func NewMOVRepository(db *sqlx.DB) *MOVRepository {
	return &MOVRepository{db: db}
}

// Create inserts MOV metadata.
func (r *MOVRepository) Create(ctx context.Context, mov *models.MOV) error {
	if mov.ID == "" {
		mov.ID = uuid.NewString()
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now().UTC()
	}
	query := "INSERT INTO movs (" + movColumns + ") VALUES (:id, :submission_id, :objective_id, :filename, :stored_path, :content_type, :size_bytes, :uploaded_by, :created_at)"
	if _, err := r.db.NamedExecContext(ctx, query, mov); err != nil {
		return fmt.Errorf("create mov: %w", err)
	}
	return nil
}

// FindByID returns a single MOV.
func (r *MOVRepository) FindByID(ctx context.Context, id string) (*models.MOV, error) {
	var mov models.MOV
	if err := r.db.GetContext(ctx, &mov, "SELECT "+movColumns+" FROM movs WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &mov, nil
}

// ListBySubmission returns every MOV attached to a submission.
func (r *MOVRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.MOV, error) {
	movs := []models.MOV{}
	query := "SELECT " + movColumns + " FROM movs WHERE submission_id = $1 ORDER BY created_at ASC"
	if err := r.db.SelectContext(ctx, &movs, query, submissionID); err != nil {
		return nil, fmt.Errorf("list movs: %w", err)
	}
	return movs, nil
}

// Delete removes MOV metadata.
func (r *MOVRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete mov: %w", err)
	}
	return expectAffected(res)
}
