package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
)

const promotionColumns = "p.id, p.teacher_id, p.from_position, p.to_position, p.effective_date, p.reason, p.status, p.decided_by, p.decided_at, p.created_by, p.created_at, p.updated_at, t.full_name AS teacher_name"

// PromotionRepository stores promotion requests.
type PromotionRepository struct {
	db *sqlx.DB
}

// NewPromotionRepository constructs a PromotionRepository.
func NewPromotionRepository(db *sqlx.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// Create inserts a pending promotion.
func (r *PromotionRepository) Create(ctx context.Context, p *models.Promotion) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.PromotionPending
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	const query = `INSERT INTO promotions (id, teacher_id, from_position, to_position, effective_date, reason, status, created_by, created_at, updated_at)
VALUES (:id, :teacher_id, :from_position, :to_position, :effective_date, :reason, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create promotion: %w", err)
	}
	return nil
}

// FindByID returns a promotion with the teacher name.
func (r *PromotionRepository) FindByID(ctx context.Context, id string) (*models.Promotion, error) {
	query := "SELECT " + promotionColumns + " FROM promotions p JOIN teachers t ON t.id = p.teacher_id WHERE p.id = $1"
	var p models.Promotion
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns promotions newest first.
func (r *PromotionRepository) List(ctx context.Context, filter models.PromotionFilter) ([]models.Promotion, int, error) {
	base := "FROM promotions p JOIN teachers t ON t.id = p.teacher_id WHERE 1=1"
	var args []interface{}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		base += fmt.Sprintf(" AND p.teacher_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		base += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY p.created_at DESC LIMIT %d OFFSET %d", promotionColumns, base, size, (page-1)*size)
	var items []models.Promotion
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list promotions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count promotions: %w", err)
	}
	return items, total, nil
}

// Decide moves a pending promotion to approved or rejected. Approval also
// updates the teacher's position in the same transaction.
func (r *PromotionRepository) Decide(ctx context.Context, id string, status models.PromotionStatus, deciderID string, at time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin promotion tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var target struct {
		TeacherID  string `db:"teacher_id"`
		ToPosition string `db:"to_position"`
	}
	const decide = `UPDATE promotions SET status = $1, decided_by = $2, decided_at = $3, updated_at = $3
WHERE id = $4 AND status = 'pending' RETURNING teacher_id, to_position`
	if err = tx.QueryRowxContext(ctx, decide, status, nullableString(deciderID), at, id).StructScan(&target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStaleState
		}
		return fmt.Errorf("decide promotion: %w", err)
	}

	if status == models.PromotionApproved {
		const promote = `UPDATE teachers SET position = $1, updated_at = $2 WHERE id = $3`
		if _, err = tx.ExecContext(ctx, promote, target.ToPosition, at, target.TeacherID); err != nil {
			return fmt.Errorf("update teacher position: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit promotion tx: %w", err)
	}
	return nil
}
