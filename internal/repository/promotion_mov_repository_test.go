package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
)

func TestPromotionRepositoryDecideApproveUpdatesTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPromotionRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE promotions SET status = $1")).
		WithArgs("approved", "u1", at, "p1").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "to_position"}).AddRow("t1", "Master Teacher I"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET position = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("Master Teacher I", at, "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Decide(context.Background(), "p1", models.PromotionApproved, "u1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryDecideRejectLeavesTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPromotionRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE promotions SET status = $1")).
		WithArgs("rejected", "u1", at, "p1").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "to_position"}).AddRow("t1", "Master Teacher I"))
	mock.ExpectCommit()

	require.NoError(t, repo.Decide(context.Background(), "p1", models.PromotionRejected, "u1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryDecideAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPromotionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE promotions SET status = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "to_position"}))
	mock.ExpectRollback()

	err := repo.Decide(context.Background(), "p1", models.PromotionApproved, "u1", time.Now())
	assert.ErrorIs(t, err, ErrStaleState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPromotionRepository(db)

	now := time.Now()
	base := "FROM promotions p JOIN teachers t ON t.id = p.teacher_id WHERE 1=1 AND p.status = $1"
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + promotionColumns + " " + base + " ORDER BY p.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "from_position", "to_position", "effective_date", "reason", "status", "decided_by", "decided_at", "created_by", "created_at", "updated_at", "teacher_name"}).
			AddRow("p1", "t1", "Teacher I", "Teacher II", now, nil, "pending", nil, nil, "u1", now, now, "Ana Cruz"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) " + base)).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.PromotionFilter{Status: models.PromotionPending})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Ana Cruz", items[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMOVRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMOVRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movs")).
		WithArgs(sqlmock.AnyArg(), "s1", "o1", "lesson.pdf", "movs/s1/x_lesson.pdf", "application/pdf", int64(1024), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mov := &models.MOV{SubmissionID: "s1", ObjectiveID: "o1", Filename: "lesson.pdf", StoredPath: "movs/s1/x_lesson.pdf", ContentType: "application/pdf", SizeBytes: 1024}
	require.NoError(t, repo.Create(context.Background(), mov))
	assert.NotEmpty(t, mov.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + movColumns + " FROM movs WHERE submission_id = $1 ORDER BY created_at ASC")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "submission_id", "objective_id", "filename", "stored_path", "content_type", "size_bytes", "uploaded_by", "created_at"}).
			AddRow(mov.ID, "s1", "o1", "lesson.pdf", "movs/s1/x_lesson.pdf", "application/pdf", 1024, nil, time.Now()))
	movs, err := repo.ListBySubmission(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "lesson.pdf", movs[0].Filename)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMOVRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMOVRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movs WHERE id = $1")).WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), "m1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
