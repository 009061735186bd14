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

const objectiveColumns = "id, kra_id, code, description, weight, position, created_at, updated_at"

// KRARepository persists the KRA configuration and its objectives.
type KRARepository struct {
	db *sqlx.DB
}

// NewKRARepository constructs a KRARepository.
func NewKRARepository(db *sqlx.DB) *KRARepository {
	return &KRARepository{db: db}
}

// List returns KRAs ordered by position with their objectives attached.
func (r *KRARepository) List(ctx context.Context, filter models.KRAFilter) ([]models.KRA, error) {
	query := "SELECT id, name, position, active, created_at, updated_at FROM kras"
	if !filter.IncludeInactive {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY position ASC, name ASC"

	var kras []models.KRA
	if err := r.db.SelectContext(ctx, &kras, query); err != nil {
		return nil, fmt.Errorf("list kras: %w", err)
	}
	if len(kras) == 0 {
		return kras, nil
	}

	ids := make([]string, len(kras))
	for i, k := range kras {
		ids[i] = k.ID
	}
	objQuery, args, err := sqlx.In("SELECT "+objectiveColumns+" FROM objectives WHERE kra_id IN (?) ORDER BY position ASC, code ASC", ids)
	if err != nil {
		return nil, fmt.Errorf("build objectives query: %w", err)
	}
	var objectives []models.Objective
	if err := r.db.SelectContext(ctx, &objectives, sqlx.Rebind(sqlx.DOLLAR, objQuery), args...); err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}

	index := make(map[string]int, len(kras))
	for i, k := range kras {
		index[k.ID] = i
		kras[i].Objectives = []models.Objective{}
	}
	for _, o := range objectives {
		if i, ok := index[o.KRAID]; ok {
			kras[i].Objectives = append(kras[i].Objectives, o)
		}
	}
	return kras, nil
}

// FindByID returns one KRA with its objectives.
func (r *KRARepository) FindByID(ctx context.Context, id string) (*models.KRA, error) {
	const query = `SELECT id, name, position, active, created_at, updated_at FROM kras WHERE id = $1`
	var kra models.KRA
	if err := r.db.GetContext(ctx, &kra, query, id); err != nil {
		return nil, err
	}
	objectives, err := r.ListObjectives(ctx, id)
	if err != nil {
		return nil, err
	}
	kra.Objectives = objectives
	return &kra, nil
}

// ListObjectives returns the ordered objectives of a KRA.
func (r *KRARepository) ListObjectives(ctx context.Context, kraID string) ([]models.Objective, error) {
	query := "SELECT " + objectiveColumns + " FROM objectives WHERE kra_id = $1 ORDER BY position ASC, code ASC"
	objectives := []models.Objective{}
	if err := r.db.SelectContext(ctx, &objectives, query, kraID); err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}
	return objectives, nil
}

// FindObjective returns a single objective.
func (r *KRARepository) FindObjective(ctx context.Context, id string) (*models.Objective, error) {
	query := "SELECT " + objectiveColumns + " FROM objectives WHERE id = $1"
	var objective models.Objective
	if err := r.db.GetContext(ctx, &objective, query, id); err != nil {
		return nil, err
	}
	return &objective, nil
}

// Create inserts a KRA and its objectives in one transaction.
func (r *KRARepository) Create(ctx context.Context, kra *models.KRA) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin kra tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if kra.ID == "" {
		kra.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	kra.CreatedAt, kra.UpdatedAt = now, now

	const query = `INSERT INTO kras (id, name, position, active, created_at, updated_at) VALUES (:id, :name, :position, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, kra); err != nil {
		return fmt.Errorf("create kra: %w", err)
	}
	for i := range kra.Objectives {
		kra.Objectives[i].KRAID = kra.ID
		if err = insertObjective(ctx, tx, &kra.Objectives[i]); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit kra tx: %w", err)
	}
	return nil
}

// Update modifies the KRA header fields.
func (r *KRARepository) Update(ctx context.Context, kra *models.KRA) error {
	kra.UpdatedAt = time.Now().UTC()
	const query = `UPDATE kras SET name = :name, position = :position, active = :active, updated_at = :updated_at WHERE id = :id`
	return r.execAffecting(ctx, "update kra", query, kra)
}

// Deactivate hides a KRA from new ratings while keeping history intact.
func (r *KRARepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE kras SET active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate kra: %w", err)
	}
	return expectAffected(res)
}

// CreateObjective adds an objective to an existing KRA.
func (r *KRARepository) CreateObjective(ctx context.Context, objective *models.Objective) error {
	return insertObjective(ctx, r.db, objective)
}

// UpdateObjective modifies an objective.
func (r *KRARepository) UpdateObjective(ctx context.Context, objective *models.Objective) error {
	objective.UpdatedAt = time.Now().UTC()
	const query = `UPDATE objectives SET code = :code, description = :description, weight = :weight, position = :position, updated_at = :updated_at WHERE id = :id`
	return r.execAffecting(ctx, "update objective", query, objective)
}

// DeleteObjective removes an objective that was never rated.
func (r *KRARepository) DeleteObjective(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM objectives WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("delete objective: %w", err)
	}
	return expectAffected(res)
}

// ObjectiveInUse reports whether any submission rated the objective or holds
// evidence for it.
func (r *KRARepository) ObjectiveInUse(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM ipcrf_objective_ratings WHERE objective_id = $1
		UNION ALL SELECT 1 FROM movs WHERE objective_id = $1
		LIMIT 1`
	var found int
	err := r.db.GetContext(ctx, &found, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check objective usage: %w", err)
	}
	return true, nil
}

func (r *KRARepository) execAffecting(ctx context.Context, op, query string, arg interface{}) error {
	res, err := r.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(res)
}

func insertObjective(ctx context.Context, exec sqlx.ExtContext, objective *models.Objective) error {
	if objective.ID == "" {
		objective.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	objective.CreatedAt, objective.UpdatedAt = now, now
	const query = `INSERT INTO objectives (id, kra_id, code, description, weight, position, created_at, updated_at) VALUES (:id, :kra_id, :code, :description, :weight, :position, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, objective); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create objective: %w", err)
	}
	return nil
}

// expectAffected maps zero affected rows to sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
