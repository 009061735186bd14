package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

const submissionColumns = "s.id, s.teacher_id, s.rater_id, s.rating_period, s.total_score, s.numerical_rating, s.adjectival_rating, s.status, s.remarks, s.submitted_at, s.approved_at, s.approved_by, s.created_at, s.updated_at, t.full_name AS teacher_name"

const submissionFrom = "FROM ipcrf_submissions s JOIN teachers t ON t.id = s.teacher_id"

// IPCRFRepository persists rating submissions with their KRA and objective breakdown.
type IPCRFRepository struct {
	db *sqlx.DB
}

// NewIPCRFRepository constructs an IPCRFRepository.
func NewIPCRFRepository(db *sqlx.DB) *IPCRFRepository {
	return &IPCRFRepository{db: db}
}

// Create stores a submission and its breakdown atomically. A second rating for
// the same teacher and period yields ErrDuplicate.
func (r *IPCRFRepository) Create(ctx context.Context, sub *models.Submission) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sub.CreatedAt, sub.UpdatedAt = now, now

	const query = `INSERT INTO ipcrf_submissions (id, teacher_id, rater_id, rating_period, total_score, numerical_rating, adjectival_rating, status, remarks, created_at, updated_at)
		VALUES (:id, :teacher_id, :rater_id, :rating_period, :total_score, :numerical_rating, :adjectival_rating, :status, :remarks, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, sub); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create submission: %w", err)
	}
	if err = insertBreakdown(ctx, tx, sub); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit submission tx: %w", err)
	}
	return nil
}

// ReplaceRatings overwrites the derived values and the whole breakdown of a
// submission that is not yet approved.
func (r *IPCRFRepository) ReplaceRatings(ctx context.Context, sub *models.Submission) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rerate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sub.UpdatedAt = time.Now().UTC()
	const update = `UPDATE ipcrf_submissions SET rater_id = :rater_id, total_score = :total_score, numerical_rating = :numerical_rating, adjectival_rating = :adjectival_rating, remarks = :remarks, updated_at = :updated_at WHERE id = :id AND status <> 'approved'`
	res, err := tx.NamedExecContext(ctx, update, sub)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if expectAffected(res) != nil {
		return ErrStaleState
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM ipcrf_kra_results WHERE submission_id = $1`, sub.ID); err != nil {
		return fmt.Errorf("clear kra results: %w", err)
	}
	if err = insertBreakdown(ctx, tx, sub); err != nil {
		return err
	}
	if err = checkEvidenceRated(ctx, tx, sub.ID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit rerate tx: %w", err)
	}
	return nil
}

// UpdateStatus applies a lifecycle move guarded by the expected current status.
func (r *IPCRFRepository) UpdateStatus(ctx context.Context, change models.StatusChange, remarks *string) error {
	set := []string{"status = $1", "updated_at = $2"}
	args := []interface{}{change.To, change.At}
	switch change.To {
	case rating.StatusSubmitted:
		set = append(set, "submitted_at = $2")
	case rating.StatusApproved:
		args = append(args, nullableString(change.ActorID))
		set = append(set, "approved_at = $2", fmt.Sprintf("approved_by = $%d", len(args)))
	}
	if remarks != nil {
		args = append(args, *remarks)
		set = append(set, fmt.Sprintf("remarks = $%d", len(args)))
	}
	args = append(args, change.SubmissionID, change.From)
	query := fmt.Sprintf("UPDATE ipcrf_submissions SET %s WHERE id = $%d AND status = $%d", strings.Join(set, ", "), len(args)-1, len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if expectAffected(res) != nil {
		return ErrStaleState
	}
	return nil
}

// DeleteDraft removes a draft submission; the breakdown cascades.
func (r *IPCRFRepository) DeleteDraft(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ipcrf_submissions WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if expectAffected(res) != nil {
		return ErrStaleState
	}
	return nil
}

// FindByID loads a submission with its ordered breakdown.
func (r *IPCRFRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := "SELECT " + submissionColumns + " " + submissionFrom + " WHERE s.id = $1"
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	kras, err := r.loadBreakdown(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.KRAs = kras
	return &sub, nil
}

// FindByTeacherPeriod returns the submission header for a teacher and period.
func (r *IPCRFRepository) FindByTeacherPeriod(ctx context.Context, teacherID, period string) (*models.Submission, error) {
	query := "SELECT " + submissionColumns + " " + submissionFrom + " WHERE s.teacher_id = $1 AND s.rating_period = $2"
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, teacherID, period); err != nil {
		return nil, err
	}
	return &sub, nil
}

// List returns submission headers matching filter plus the total count.
func (r *IPCRFRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	base := submissionFrom + " WHERE 1=1"
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		base += fmt.Sprintf(" AND "+clause, len(args))
	}
	if filter.TeacherID != "" {
		add("s.teacher_id = $%d", filter.TeacherID)
	}
	if filter.RatingPeriod != "" {
		add("s.rating_period = $%d", filter.RatingPeriod)
	}
	if filter.Status != "" {
		add("s.status = $%d", filter.Status)
	}
	if filter.RaterID != "" {
		add("s.rater_id = $%d", filter.RaterID)
	}

	allowedSorts := map[string]string{
		"rating_period":    "s.rating_period",
		"numerical_rating": "s.numerical_rating",
		"total_score":      "s.total_score",
		"teacher_name":     "t.full_name",
		"created_at":       "s.created_at",
		"updated_at":       "s.updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", submissionColumns, base, column, order, size, (page-1)*size)
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return subs, total, nil
}

// Summary aggregates the label distribution and status counts for a period.
func (r *IPCRFRepository) Summary(ctx context.Context, period string) (*models.PeriodSummary, error) {
	summary := &models.PeriodSummary{
		RatingPeriod: period,
		Distribution: make(map[rating.Label]int, len(rating.Labels())),
		ByStatus:     map[rating.Status]int{},
	}
	for _, label := range rating.Labels() {
		summary.Distribution[label] = 0
	}

	var totals struct {
		Count   int             `db:"count"`
		Average sql.NullFloat64 `db:"average"`
	}
	const totalsQuery = `SELECT COUNT(*) AS count, AVG(numerical_rating) AS average FROM ipcrf_submissions WHERE rating_period = $1`
	if err := r.db.GetContext(ctx, &totals, totalsQuery, period); err != nil {
		return nil, fmt.Errorf("summarise period: %w", err)
	}
	summary.Submissions = totals.Count
	if totals.Average.Valid {
		summary.AverageRating = totals.Average.Float64
	}

	var labels []models.LabelCount
	const labelQuery = `SELECT adjectival_rating, COUNT(*) AS count FROM ipcrf_submissions WHERE rating_period = $1 GROUP BY adjectival_rating`
	if err := r.db.SelectContext(ctx, &labels, labelQuery, period); err != nil {
		return nil, fmt.Errorf("label distribution: %w", err)
	}
	for _, row := range labels {
		summary.Distribution[row.Label] = row.Count
	}

	var statuses []struct {
		Status rating.Status `db:"status"`
		Count  int           `db:"count"`
	}
	const statusQuery = `SELECT status, COUNT(*) AS count FROM ipcrf_submissions WHERE rating_period = $1 GROUP BY status`
	if err := r.db.SelectContext(ctx, &statuses, statusQuery, period); err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	for _, row := range statuses {
		summary.ByStatus[row.Status] = row.Count
	}
	return summary, nil
}

// ListRated returns one row per rated teacher for a period, best first.
func (r *IPCRFRepository) ListRated(ctx context.Context, period string, status rating.Status) ([]models.RatedTeacher, error) {
	query := `SELECT s.id AS submission_id, s.teacher_id, t.employee_no, t.full_name, t.position, s.rating_period, s.total_score, s.numerical_rating, s.adjectival_rating, s.status ` +
		submissionFrom + " WHERE s.rating_period = $1"
	args := []interface{}{period}
	if status != "" {
		query += " AND s.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY s.numerical_rating DESC, t.full_name ASC"

	rows := []models.RatedTeacher{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rated teachers: %w", err)
	}
	return rows, nil
}

func (r *IPCRFRepository) loadBreakdown(ctx context.Context, submissionID string) ([]models.SubmissionKRA, error) {
	const kraQuery = `SELECT id, submission_id, kra_id, kra_name, position, average_rating, score FROM ipcrf_kra_results WHERE submission_id = $1 ORDER BY position ASC`
	kras := []models.SubmissionKRA{}
	if err := r.db.SelectContext(ctx, &kras, kraQuery, submissionID); err != nil {
		return nil, fmt.Errorf("load kra results: %w", err)
	}
	if len(kras) == 0 {
		return kras, nil
	}

	ids := make([]string, len(kras))
	index := make(map[string]int, len(kras))
	for i, k := range kras {
		ids[i] = k.ID
		index[k.ID] = i
		kras[i].Objectives = []models.ObjectiveRating{}
	}
	objQuery, args, err := sqlx.In(`SELECT id, kra_result_id, objective_id, code, description, weight, rating, score, position FROM ipcrf_objective_ratings WHERE kra_result_id IN (?) ORDER BY position ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build objective ratings query: %w", err)
	}
	var ratings []models.ObjectiveRating
	if err := r.db.SelectContext(ctx, &ratings, sqlx.Rebind(sqlx.DOLLAR, objQuery), args...); err != nil {
		return nil, fmt.Errorf("load objective ratings: %w", err)
	}
	for _, o := range ratings {
		if i, ok := index[o.KRAResultID]; ok {
			kras[i].Objectives = append(kras[i].Objectives, o)
		}
	}
	return kras, nil
}

func insertBreakdown(ctx context.Context, tx *sqlx.Tx, sub *models.Submission) error {
	const kraInsert = `INSERT INTO ipcrf_kra_results (id, submission_id, kra_id, kra_name, position, average_rating, score) VALUES (:id, :submission_id, :kra_id, :kra_name, :position, :average_rating, :score)`
	const objInsert = `INSERT INTO ipcrf_objective_ratings (id, kra_result_id, objective_id, code, description, weight, rating, score, position) VALUES (:id, :kra_result_id, :objective_id, :code, :description, :weight, :rating, :score, :position)`

	for i := range sub.KRAs {
		kra := &sub.KRAs[i]
		kra.ID = uuid.NewString()
		kra.SubmissionID = sub.ID
		kra.Position = i + 1
		if _, err := tx.NamedExecContext(ctx, kraInsert, kra); err != nil {
			return fmt.Errorf("create kra result: %w", err)
		}
		for j := range kra.Objectives {
			obj := &kra.Objectives[j]
			obj.ID = uuid.NewString()
			obj.KRAResultID = kra.ID
			obj.Position = j + 1
			if _, err := tx.NamedExecContext(ctx, objInsert, obj); err != nil {
				return fmt.Errorf("create objective rating: %w", err)
			}
		}
	}
	return nil
}

// checkEvidenceRated fails when a MOV of the submission points at an objective
// the new breakdown no longer rates.
func checkEvidenceRated(ctx context.Context, tx *sqlx.Tx, submissionID string) error {
	const query = `SELECT m.objective_id FROM movs m
		WHERE m.submission_id = $1 AND NOT EXISTS (
			SELECT 1 FROM ipcrf_objective_ratings o
			JOIN ipcrf_kra_results k ON k.id = o.kra_result_id
			WHERE k.submission_id = m.submission_id AND o.objective_id = m.objective_id)
		LIMIT 1`
	var objectiveID string
	err := tx.GetContext(ctx, &objectiveID, query, submissionID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("check evidence: %w", err)
	default:
		return &EvidenceAttachedError{ObjectiveID: objectiveID}
	}
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
