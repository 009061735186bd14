package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
)

var objectiveRowColumns = []string{"id", "kra_id", "code", "description", "weight", "position", "created_at", "updated_at"}

func TestKRARepositoryListAttachesObjectives(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKRARepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, position, active, created_at, updated_at FROM kras WHERE active = TRUE ORDER BY position ASC, name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "position", "active", "created_at", "updated_at"}).
			AddRow("k1", "Content Knowledge", 1, true, now, now).
			AddRow("k2", "Learning Environment", 2, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + objectiveColumns + " FROM objectives WHERE kra_id IN ($1, $2) ORDER BY position ASC, code ASC")).
		WithArgs("k1", "k2").
		WillReturnRows(sqlmock.NewRows(objectiveRowColumns).
			AddRow("o1", "k1", "1.1", "Applied knowledge", 50.0, 1, now, now).
			AddRow("o2", "k1", "1.2", "Used research", 50.0, 2, now, now))

	kras, err := repo.List(context.Background(), models.KRAFilter{})
	require.NoError(t, err)
	require.Len(t, kras, 2)
	assert.Len(t, kras[0].Objectives, 2)
	assert.NotNil(t, kras[1].Objectives)
	assert.Empty(t, kras[1].Objectives)
	assert.InDelta(t, 100, kras[0].TotalWeight(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKRARepositoryCreateInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKRARepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kras").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO objectives").WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "1.1", "Applied knowledge", 60.0, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO objectives").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	kra := &models.KRA{Name: "Content Knowledge", Active: true, Objectives: []models.Objective{
		{Code: "1.1", Description: "Applied knowledge", Weight: 60, Position: 1},
		{Code: "1.2", Description: "Used research", Weight: 40, Position: 2},
	}}
	require.NoError(t, repo.Create(context.Background(), kra))
	assert.Equal(t, kra.ID, kra.Objectives[0].KRAID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKRARepositoryCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKRARepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kras").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO objectives").WillReturnError(errors.New("duplicate code"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.KRA{Name: "K", Objectives: []models.Objective{{Code: "1"}}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKRARepositoryDeleteObjectiveMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKRARepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM objectives WHERE id = $1")).WithArgs("o9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteObjective(context.Background(), "o9")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKRARepositoryDeleteReferencedObjective(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKRARepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM objectives WHERE id = $1")).WithArgs("o3").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "movs_objective_id_fkey"})

	err := repo.DeleteObjective(context.Background(), "o3")
	assert.ErrorIs(t, err, ErrReferenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKRARepositoryObjectiveInUse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKRARepository(db)

	usage := `(?s)FROM ipcrf_objective_ratings WHERE objective_id = \$1.*UNION ALL SELECT 1 FROM movs WHERE objective_id = \$1`
	mock.ExpectQuery(usage).WithArgs("o1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(usage).WithArgs("o2").WillReturnError(sql.ErrNoRows)

	used, err := repo.ObjectiveInUse(context.Background(), "o1")
	require.NoError(t, err)
	assert.True(t, used)
	used, err = repo.ObjectiveInUse(context.Background(), "o2")
	require.NoError(t, err)
	assert.False(t, used)
	assert.NoError(t, mock.ExpectationsWereMet())
}
