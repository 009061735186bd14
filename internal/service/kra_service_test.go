package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/internal/repository"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
)

type fakeKRARepo struct {
	kras       map[string]*models.KRA
	objectives map[string]*models.Objective
	inUse      map[string]bool
	seq        int
	createErr  error
	deleteErr  error
}

func newFakeKRARepo(kras ...models.KRA) *fakeKRARepo {
	repo := &fakeKRARepo{kras: map[string]*models.KRA{}, objectives: map[string]*models.Objective{}, inUse: map[string]bool{}}
	for i := range kras {
		k := kras[i]
		for j := range k.Objectives {
			o := k.Objectives[j]
			repo.objectives[o.ID] = &o
		}
		repo.kras[k.ID] = &k
	}
	return repo
}

func (f *fakeKRARepo) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeKRARepo) List(ctx context.Context, filter models.KRAFilter) ([]models.KRA, error) {
	out := make([]models.KRA, 0, len(f.kras))
	for _, k := range f.kras {
		if k.Active || filter.IncludeInactive {
			out = append(out, *f.withObjectives(k))
		}
	}
	return out, nil
}

func (f *fakeKRARepo) withObjectives(k *models.KRA) *models.KRA {
	cp := *k
	cp.Objectives = []models.Objective{}
	for _, o := range f.objectives {
		if o.KRAID == k.ID {
			cp.Objectives = append(cp.Objectives, *o)
		}
	}
	return &cp
}

func (f *fakeKRARepo) FindByID(ctx context.Context, id string) (*models.KRA, error) {
	k, ok := f.kras[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f.withObjectives(k), nil
}

func (f *fakeKRARepo) FindObjective(ctx context.Context, id string) (*models.Objective, error) {
	o, ok := f.objectives[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f *fakeKRARepo) Create(ctx context.Context, kra *models.KRA) error {
	if f.createErr != nil {
		return f.createErr
	}
	kra.ID = f.nextID("k")
	for i := range kra.Objectives {
		kra.Objectives[i].ID = f.nextID("o")
		kra.Objectives[i].KRAID = kra.ID
		o := kra.Objectives[i]
		f.objectives[o.ID] = &o
	}
	cp := *kra
	f.kras[kra.ID] = &cp
	return nil
}

func (f *fakeKRARepo) Update(ctx context.Context, kra *models.KRA) error {
	if _, ok := f.kras[kra.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *kra
	f.kras[kra.ID] = &cp
	return nil
}

func (f *fakeKRARepo) Deactivate(ctx context.Context, id string) error {
	k, ok := f.kras[id]
	if !ok {
		return sql.ErrNoRows
	}
	k.Active = false
	return nil
}

func (f *fakeKRARepo) CreateObjective(ctx context.Context, objective *models.Objective) error {
	for _, o := range f.objectives {
		if o.KRAID == objective.KRAID && o.Code == objective.Code {
			return repository.ErrDuplicate
		}
	}
	objective.ID = f.nextID("o")
	cp := *objective
	f.objectives[objective.ID] = &cp
	return nil
}

func (f *fakeKRARepo) UpdateObjective(ctx context.Context, objective *models.Objective) error {
	cp := *objective
	f.objectives[objective.ID] = &cp
	return nil
}

func (f *fakeKRARepo) DeleteObjective(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objectives, id)
	return nil
}

func (f *fakeKRARepo) ObjectiveInUse(ctx context.Context, id string) (bool, error) {
	return f.inUse[id], nil
}

func TestKRAServiceCreateWarnsOnWeightTotal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewKRAService(newFakeKRARepo(), nil, zap.New(core))

	kra, err := svc.Create(context.Background(), dto.CreateKRARequest{
		Name: "Content Knowledge",
		Objectives: []dto.ObjectiveRequest{
			{Code: "1.1", Description: "Applied knowledge", Weight: 50},
			{Code: "1.2", Description: "Used research", Weight: 30},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, kra.Objectives[0].Position)
	assert.Equal(t, 2, kra.Objectives[1].Position)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, 80.0, logs.All()[0].ContextMap()["total_weight"])
}

func TestKRAServiceCreateBalancedWeightsNoWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewKRAService(newFakeKRARepo(), nil, zap.New(core))

	_, err := svc.Create(context.Background(), dto.CreateKRARequest{
		Name: "Learning Environment",
		Objectives: []dto.ObjectiveRequest{
			{Code: "2.1", Description: "Safe environment", Weight: 33.3},
			{Code: "2.2", Description: "Fair environment", Weight: 33.3},
			{Code: "2.3", Description: "Supportive environment", Weight: 33.4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestKRAServiceRejectsBadObjectives(t *testing.T) {
	svc := NewKRAService(newFakeKRARepo(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateKRARequest{
		Name:       "Bad",
		Objectives: []dto.ObjectiveRequest{{Code: "1", Description: "x", Weight: 120}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), dto.CreateKRARequest{
		Name: "Dup",
		Objectives: []dto.ObjectiveRequest{
			{Code: "1", Description: "x", Weight: 50},
			{Code: "1", Description: "y", Weight: 50},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestKRAServiceAddObjectiveDuplicateCode(t *testing.T) {
	repo := newFakeKRARepo(models.KRA{ID: "k1", Name: "Content", Active: true, Objectives: []models.Objective{
		{ID: "o1", KRAID: "k1", Code: "1.1", Weight: 100},
	}})
	svc := NewKRAService(repo, nil, nil)

	_, err := svc.AddObjective(context.Background(), "k1", dto.ObjectiveRequest{Code: "1.1", Description: "again", Weight: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	objective, err := svc.AddObjective(context.Background(), "k1", dto.ObjectiveRequest{Code: "1.2", Description: "new", Weight: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, objective.Position)

	_, err = svc.AddObjective(context.Background(), "missing", dto.ObjectiveRequest{Code: "9", Description: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestKRAServiceDeleteObjectiveInUse(t *testing.T) {
	repo := newFakeKRARepo(models.KRA{ID: "k1", Active: true, Objectives: []models.Objective{
		{ID: "o1", KRAID: "k1", Code: "1.1", Weight: 60},
		{ID: "o2", KRAID: "k1", Code: "1.2", Weight: 40},
	}})
	repo.inUse["o1"] = true
	svc := NewKRAService(repo, nil, nil)

	err := svc.DeleteObjective(context.Background(), "o1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeleteObjective(context.Background(), "o2"))
	_, ok := repo.objectives["o2"]
	assert.False(t, ok)
}

func TestKRAServiceUpdateAndDeactivate(t *testing.T) {
	repo := newFakeKRARepo(models.KRA{ID: "k1", Name: "Old", Active: true})
	svc := NewKRAService(repo, nil, nil)

	kra, err := svc.Update(context.Background(), "k1", dto.UpdateKRARequest{Name: " New ", Position: 3})
	require.NoError(t, err)
	assert.Equal(t, "New", kra.Name)
	assert.Equal(t, 3, kra.Position)

	require.NoError(t, svc.Deactivate(context.Background(), "k1"))
	active, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, active)

	err = svc.Deactivate(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestKRAServiceUpdateObjective(t *testing.T) {
	repo := newFakeKRARepo(models.KRA{ID: "k1", Active: true, Objectives: []models.Objective{
		{ID: "o1", KRAID: "k1", Code: "1.1", Weight: 100, Position: 1},
	}})
	svc := NewKRAService(repo, nil, nil)

	objective, err := svc.UpdateObjective(context.Background(), "o1", dto.ObjectiveRequest{Code: "1.1", Description: "Revised", Weight: 100})
	require.NoError(t, err)
	assert.Equal(t, "Revised", objective.Description)
	assert.Equal(t, 1, objective.Position)

	_, err = svc.UpdateObjective(context.Background(), "o9", dto.ObjectiveRequest{Code: "x", Description: "x"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestKRAServiceRejectsBlankNamesAndCodes(t *testing.T) {
	repo := newFakeKRARepo(models.KRA{ID: "k1", Name: "Content Knowledge", Active: true})
	svc := NewKRAService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateKRARequest{Name: "  "})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, dto.CreateKRARequest{
		Name:       "Learning Environment",
		Objectives: []dto.ObjectiveRequest{{Code: " ", Description: "Safe classroom", Weight: 100}},
	})
	require.Error(t, err)
	details := appErrors.FromError(err).Details
	require.Len(t, details, 1)
	assert.Equal(t, "objectives[0].code", details[0].Field)

	_, err = svc.Update(ctx, "k1", dto.UpdateKRARequest{Name: "\n"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.AddObjective(ctx, "k1", dto.ObjectiveRequest{Code: "1.1", Description: "   ", Weight: 20})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	kra, err := svc.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "Content Knowledge", kra.Name)
	assert.Empty(t, kra.Objectives)
}

func TestKRAServiceDeleteReferencedObjectiveIsConflict(t *testing.T) {
	repo := newFakeKRARepo(models.KRA{ID: "k1", Name: "Content Knowledge", Active: true, Objectives: []models.Objective{
		{ID: "o1", KRAID: "k1", Code: "1.1", Description: "Applies knowledge", Weight: 100},
	}})
	repo.deleteErr = repository.ErrReferenced
	svc := NewKRAService(repo, nil, nil)

	err := svc.DeleteObjective(context.Background(), "o1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	_, ok := repo.objectives["o1"]
	assert.True(t, ok)
}
