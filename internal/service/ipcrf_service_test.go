package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/internal/repository"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/export"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

const (
	testTeacherID = "5f0c7d1e-7a55-4a43-9c59-1a2f3b4c5d6e"
	testPeriod    = "2024-2025"
)

type fakeSubmissionRepo struct {
	mu        sync.Mutex
	items     map[string]*models.Submission
	seq       int
	summary   *models.PeriodSummary
	summaries int
	changes   []models.StatusChange
	staleNext bool
	evidence  map[string][]string
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{items: map[string]*models.Submission{}}
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, sub *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.TeacherID == sub.TeacherID && existing.RatingPeriod == sub.RatingPeriod {
			return repository.ErrDuplicate
		}
	}
	f.seq++
	sub.ID = fmt.Sprintf("sub-%d", f.seq)
	cp := *sub
	f.items[sub.ID] = &cp
	return nil
}

func (f *fakeSubmissionRepo) ReplaceRatings(ctx context.Context, sub *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[sub.ID]
	if !ok || current.Status == rating.StatusApproved || f.staleNext {
		return repository.ErrStaleState
	}
	rated := map[string]bool{}
	for _, kra := range sub.KRAs {
		for _, o := range kra.Objectives {
			rated[o.ObjectiveID] = true
		}
	}
	for _, objectiveID := range f.evidence[sub.ID] {
		if !rated[objectiveID] {
			return &repository.EvidenceAttachedError{ObjectiveID: objectiveID}
		}
	}
	cp := *sub
	f.items[sub.ID] = &cp
	return nil
}

func (f *fakeSubmissionRepo) UpdateStatus(ctx context.Context, change models.StatusChange, remarks *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[change.SubmissionID]
	if !ok || current.Status != change.From || f.staleNext {
		return repository.ErrStaleState
	}
	current.Status = change.To
	if remarks != nil {
		current.Remarks = remarks
	}
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeSubmissionRepo) DeleteDraft(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[id]
	if !ok || current.Status != rating.StatusDraft {
		return repository.ErrStaleState
	}
	delete(f.items, id)
	return nil
}

func (f *fakeSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubmissionRepo) FindByTeacherPeriod(ctx context.Context, teacherID, period string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.items {
		if sub.TeacherID == teacherID && sub.RatingPeriod == period {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Submission{}
	for _, sub := range f.items {
		if filter.TeacherID != "" && sub.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		out = append(out, *sub)
	}
	return out, len(out), nil
}

func (f *fakeSubmissionRepo) Summary(ctx context.Context, period string) (*models.PeriodSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries++
	if f.summary == nil {
		return nil, errors.New("no summary")
	}
	cp := *f.summary
	return &cp, nil
}

func (f *fakeSubmissionRepo) ListRated(ctx context.Context, period string, status rating.Status) ([]models.RatedTeacher, error) {
	return []models.RatedTeacher{{FullName: "Ana Cruz", RatingPeriod: period, NumericalRating: 4}}, nil
}

type fakeTeacherLookup map[string]*models.Teacher

func (f fakeTeacherLookup) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	t, ok := f[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

type fakeKRASource []models.KRA

func (f fakeKRASource) List(ctx context.Context, filter models.KRAFilter) ([]models.KRA, error) {
	return f, nil
}

type fakeUserLookup map[string]*models.User

func (f fakeUserLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

type stubRenderer struct {
	form export.IPCRFForm
}

func (s *stubRenderer) Render(form export.IPCRFForm) ([]byte, error) {
	s.form = form
	return []byte("%PDF-1.3"), nil
}

type ipcrfFixture struct {
	svc      *IPCRFService
	repo     *fakeSubmissionRepo
	audit    *recordingAudit
	cache    *memoryCacheRepo
	renderer *stubRenderer
}

func ratingConfig() fakeKRASource {
	return fakeKRASource{
		{ID: "kra-a", Name: "Content Knowledge", Active: true, Objectives: []models.Objective{
			{ID: "obj-a1", KRAID: "kra-a", Code: "1.1", Description: "Applies knowledge", Weight: 50},
			{ID: "obj-a2", KRAID: "kra-a", Code: "1.2", Description: "Uses research", Weight: 50},
		}},
		{ID: "kra-b", Name: "Learning Environment", Active: true, Objectives: []models.Objective{
			{ID: "obj-b1", KRAID: "kra-b", Code: "2.1", Description: "Safe environment", Weight: 100},
		}},
	}
}

func newIPCRFFixture(t *testing.T, cfg IPCRFConfig) *ipcrfFixture {
	t.Helper()
	f := &ipcrfFixture{
		repo:     newFakeSubmissionRepo(),
		audit:    &recordingAudit{},
		cache:    newMemoryCacheRepo(),
		renderer: &stubRenderer{},
	}
	employeeNo := "EMP-001"
	f.svc = NewIPCRFService(IPCRFServiceDeps{
		Repo: f.repo,
		Teachers: fakeTeacherLookup{
			testTeacherID: {ID: testTeacherID, FullName: "Ana Cruz", Position: "Teacher I", EmployeeNo: &employeeNo, Active: true},
			"inactive":    {ID: "inactive", FullName: "Old Staff", Active: false},
		},
		KRAs:     ratingConfig(),
		Users:    fakeUserLookup{"rater-1": {ID: "rater-1", FullName: "Rita Rater"}},
		Audit:    f.audit,
		Cache:    NewCacheService(f.cache, nil, time.Minute, nil, true),
		Renderer: f.renderer,
		Config:   cfg,
	})
	return f
}

func ratingRequest(kras ...dto.KRARatingInput) dto.RatingRequest {
	return dto.RatingRequest{TeacherID: testTeacherID, RatingPeriod: testPeriod, KRADetails: kras}
}

func objectiveRating(id string, r int) dto.ObjectiveRatingInput {
	return dto.ObjectiveRatingInput{ObjectiveID: id, Rating: r}
}

func TestIPCRFEvaluateSingleKRA(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})

	result, err := f.svc.Evaluate(context.Background(), ratingRequest(dto.KRARatingInput{
		KRAID:      "kra-a",
		KRAName:    "ignored name",
		Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a1", 5), objectiveRating("obj-a2", 3)},
	}))
	require.NoError(t, err)

	require.Len(t, result.KRADetails, 1)
	kra := result.KRADetails[0]
	assert.Equal(t, "Content Knowledge", kra.KRAName)
	assert.Equal(t, 50.0, kra.Objectives[0].Score)
	assert.Equal(t, 30.0, kra.Objectives[1].Score)
	assert.Equal(t, "1.2", kra.Objectives[1].Code)
	assert.Equal(t, 4.0, kra.AverageRating)
	assert.Equal(t, 80.0, kra.Score)
	assert.Equal(t, 80.0, result.TotalScore)
	assert.Equal(t, 4.0, result.NumericalRating)
	assert.Equal(t, rating.LabelVerySatisfactory, result.AdjectivalRating)
	assert.Equal(t, rating.StatusDraft, result.Status)
}

func TestIPCRFEvaluateFlattensAcrossKRAs(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})

	result, err := f.svc.Evaluate(context.Background(), ratingRequest(
		dto.KRARatingInput{KRAID: "kra-a", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a1", 5)}},
		dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 1)}},
	))
	require.NoError(t, err)
	assert.Equal(t, 3.0, result.NumericalRating)
	assert.Equal(t, rating.LabelSatisfactory, result.AdjectivalRating)
	assert.Equal(t, 70.0, result.TotalScore)
}

func TestIPCRFEvaluateSkipsEmptyKRA(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})

	result, err := f.svc.Evaluate(context.Background(), ratingRequest(
		dto.KRARatingInput{KRAID: "kra-a"},
		dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 4)}},
	))
	require.NoError(t, err)
	require.Len(t, result.KRADetails, 1)
	assert.Equal(t, "kra-b", result.KRADetails[0].KRAID)
	assert.Equal(t, 4.0, result.NumericalRating)
}

func TestIPCRFEvaluateRejects(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})

	cases := []struct {
		name string
		req  dto.RatingRequest
		code string
	}{
		{"no kras", ratingRequest(), appErrors.ErrEmptyRatings.Code},
		{"only empty kras", ratingRequest(dto.KRARatingInput{KRAID: "kra-a"}), appErrors.ErrEmptyRatings.Code},
		{"rating out of range", ratingRequest(dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 6)}}), appErrors.ErrInvalidRating.Code},
		{"rating zero", ratingRequest(dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 0)}}), appErrors.ErrInvalidRating.Code},
		{"unknown kra", ratingRequest(dto.KRARatingInput{KRAID: "kra-x", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 3)}}), appErrors.ErrValidation.Code},
		{"unknown objective", ratingRequest(dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-zz", 3)}}), appErrors.ErrValidation.Code},
		{"objective under wrong kra", ratingRequest(dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a1", 3)}}), appErrors.ErrValidation.Code},
		{"duplicate objective", ratingRequest(dto.KRARatingInput{KRAID: "kra-a", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a1", 3), objectiveRating("obj-a1", 4)}}), appErrors.ErrValidation.Code},
		{"duplicate kra", ratingRequest(
			dto.KRARatingInput{KRAID: "kra-a", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a1", 3)}},
			dto.KRARatingInput{KRAID: "kra-a", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a2", 3)}},
		), appErrors.ErrValidation.Code},
		{"bad period", dto.RatingRequest{TeacherID: testTeacherID, RatingPeriod: "2024-2026"}, appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Evaluate(context.Background(), tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}

func TestIPCRFRequireComplete(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{RequireComplete: true})

	_, err := f.svc.Evaluate(context.Background(), ratingRequest(
		dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 4)}},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1.1")
}

func fullRequest() dto.RatingRequest {
	return ratingRequest(
		dto.KRARatingInput{KRAID: "kra-a", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a1", 5), objectiveRating("obj-a2", 4)}},
		dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 5)}},
	)
}

func TestIPCRFCreateStoresDraft(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})

	sub, err := f.svc.Create(context.Background(), fullRequest(), "rater-1")
	require.NoError(t, err)
	assert.Equal(t, rating.StatusDraft, sub.Status)
	assert.Equal(t, "Ana Cruz", sub.TeacherName)
	require.NotNil(t, sub.RaterID)
	assert.Equal(t, "rater-1", *sub.RaterID)
	assert.Equal(t, 4.67, sub.NumericalRating)
	assert.Equal(t, rating.LabelOutstanding, sub.AdjectivalRating)
	assert.Equal(t, 190.0, sub.TotalScore)
	assert.Equal(t, []string{summaryCachePattern}, f.cache.deletes)

	_, err = f.svc.Create(context.Background(), fullRequest(), "rater-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestIPCRFCreateTeacherChecks(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})

	req := fullRequest()
	req.TeacherID = "7c4a1c52-1111-4e4e-8888-000000000000"
	_, err := f.svc.Create(context.Background(), req, "rater-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestIPCRFLifecycle(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, fullRequest(), "rater-1")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, sub.ID, dto.StatusChangeRequest{}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	submitted, err := f.svc.Submit(ctx, sub.ID, dto.StatusChangeRequest{}, "rater-1")
	require.NoError(t, err)
	assert.Equal(t, rating.StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	rerate := fullRequest()
	rerate.KRADetails[1].Objectives[0].Rating = 3
	updated, err := f.svc.Update(ctx, sub.ID, rerate, "rater-1")
	require.NoError(t, err)
	assert.Equal(t, rating.StatusSubmitted, updated.Status)
	assert.Equal(t, 4.0, updated.NumericalRating)

	remarks := "Well documented"
	approved, err := f.svc.Approve(ctx, sub.ID, dto.StatusChangeRequest{Remarks: &remarks}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, rating.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "admin-1", *approved.ApprovedBy)
	assert.Equal(t, "Well documented", *approved.Remarks)

	_, err = f.svc.Update(ctx, sub.ID, fullRequest(), "rater-1")
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Submit(ctx, sub.ID, dto.StatusChangeRequest{}, "rater-1")
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	err = f.svc.Delete(ctx, sub.ID, "admin-1")
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)

	assert.Equal(t, []string{
		models.AuditActionIPCRFSubmit,
		models.AuditActionIPCRFRerate,
		models.AuditActionIPCRFApprove,
	}, f.audit.actions())
	require.Len(t, f.repo.changes, 2)
	assert.Equal(t, rating.StatusDraft, f.repo.changes[0].From)
	assert.Equal(t, rating.StatusSubmitted, f.repo.changes[1].From)
}

func TestIPCRFUpdateRejectsIdentityChange(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})
	sub, err := f.svc.Create(context.Background(), fullRequest(), "rater-1")
	require.NoError(t, err)

	req := fullRequest()
	req.RatingPeriod = "2025-2026"
	_, err = f.svc.Update(context.Background(), sub.ID, req, "rater-1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestIPCRFUpdateKeepsObjectivesWithEvidence(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})
	ctx := context.Background()
	sub, err := f.svc.Create(ctx, fullRequest(), "rater-1")
	require.NoError(t, err)
	f.repo.evidence = map[string][]string{sub.ID: {"obj-a2"}}

	narrowed := ratingRequest(
		dto.KRARatingInput{KRAID: "kra-a", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-a1", 5)}},
		dto.KRARatingInput{KRAID: "kra-b", Objectives: []dto.ObjectiveRatingInput{objectiveRating("obj-b1", 5)}},
	)
	_, err = f.svc.Update(ctx, sub.ID, narrowed, "rater-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "obj-a2")
	assert.Empty(t, f.audit.actions())

	rerate := fullRequest()
	rerate.KRADetails[0].Objectives[1].Rating = 3
	_, err = f.svc.Update(ctx, sub.ID, rerate, "rater-1")
	require.NoError(t, err)
}

func TestIPCRFConcurrentStatusChangeIsConflict(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})
	sub, err := f.svc.Create(context.Background(), fullRequest(), "rater-1")
	require.NoError(t, err)

	f.repo.staleNext = true
	_, err = f.svc.Submit(context.Background(), sub.ID, dto.StatusChangeRequest{}, "rater-1")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestIPCRFDeleteDraft(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})
	sub, err := f.svc.Create(context.Background(), fullRequest(), "rater-1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), sub.ID, "admin-1"))
	_, err = f.svc.Get(context.Background(), sub.ID)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestIPCRFSummaryIsCached(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})
	f.repo.summary = &models.PeriodSummary{
		RatingPeriod:  testPeriod,
		Submissions:   3,
		AverageRating: 3.666666,
		Distribution:  map[rating.Label]int{rating.LabelOutstanding: 1, rating.LabelSatisfactory: 2},
	}
	ctx := context.Background()

	first, hit, err := f.svc.Summary(ctx, testPeriod)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3.67, first.AverageRating)

	second, hit, err := f.svc.Summary(ctx, testPeriod)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, second.Distribution[rating.LabelSatisfactory])
	assert.Equal(t, 1, f.repo.summaries)

	_, err = f.svc.Create(ctx, fullRequest(), "rater-1")
	require.NoError(t, err)
	_, _, err = f.svc.Summary(ctx, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.summaries)

	_, _, err = f.svc.Summary(ctx, "2024")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestIPCRFListValidatesFilters(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{})

	_, _, err := f.svc.List(context.Background(), models.SubmissionFilter{Status: "archived"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Create(context.Background(), fullRequest(), "rater-1")
	require.NoError(t, err)
	subs, pagination, err := f.svc.History(context.Background(), testTeacherID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)

	_, _, err = f.svc.History(context.Background(), "missing", 1, 10)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestIPCRFFormPDF(t *testing.T) {
	f := newIPCRFFixture(t, IPCRFConfig{SchoolName: "Rizal High School"})
	sub, err := f.svc.Create(context.Background(), fullRequest(), "rater-1")
	require.NoError(t, err)

	data, filename, err := f.svc.FormPDF(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))
	assert.Equal(t, "ipcrf_ana_cruz_2024-2025.pdf", filename)

	form := f.renderer.form
	assert.Equal(t, "Rizal High School", form.SchoolName)
	assert.Equal(t, "EMP-001", form.EmployeeNo)
	assert.Equal(t, "Rita Rater", form.RaterName)
	assert.Empty(t, form.ApproverName)
	require.Len(t, form.KRAs, 2)
	assert.Len(t, form.KRAs[0].Objectives, 2)
}

func TestStoredRatingLabelsRoundedValue(t *testing.T) {
	cases := []struct {
		raw       float64
		numerical float64
		label     rating.Label
	}{
		{670.0 / 149, 4.5, rating.LabelOutstanding},
		{4.494, 4.49, rating.LabelVerySatisfactory},
		{1.497, 1.5, rating.LabelUnsatisfactory},
		{1.4949, 1.49, rating.LabelPoor},
	}
	for _, tc := range cases {
		numerical, label, err := storedRating(tc.raw)
		require.NoError(t, err)
		assert.Equal(t, tc.numerical, numerical, "raw %v", tc.raw)
		assert.Equal(t, tc.label, label, "raw %v", tc.raw)
	}
}
