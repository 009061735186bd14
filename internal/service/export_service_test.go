package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/pkg/export"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
	"github.com/noah-isme/sma-ipcrf-api/pkg/storage"
)

type pagedTeacherStub struct {
	teachers []models.Teacher
	filters  []models.TeacherFilter
}

func (p *pagedTeacherStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	p.filters = append(p.filters, filter)
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(p.teachers) {
		return nil, len(p.teachers), nil
	}
	end := start + filter.PageSize
	if end > len(p.teachers) {
		end = len(p.teachers)
	}
	return p.teachers[start:end], len(p.teachers), nil
}

type ratedStub struct {
	period string
	status rating.Status
}

func (r *ratedStub) ListRated(ctx context.Context, period string, status rating.Status) ([]models.RatedTeacher, error) {
	r.period, r.status = period, status
	employeeNo := "EMP-7"
	return []models.RatedTeacher{{
		EmployeeNo:       &employeeNo,
		FullName:         "Ana Cruz",
		Position:         "Teacher I",
		RatingPeriod:     period,
		TotalScore:       190,
		NumericalRating:  4.67,
		AdjectivalRating: rating.LabelOutstanding,
		Status:           rating.StatusApproved,
	}}, nil
}

type promotionListStub struct{}

func (promotionListStub) List(ctx context.Context, filter models.PromotionFilter) ([]models.Promotion, int, error) {
	decided := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)
	return []models.Promotion{{
		TeacherName:   "Ana Cruz",
		FromPosition:  "Teacher I",
		ToPosition:    "Teacher II",
		EffectiveDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:        models.PromotionApproved,
		DecidedAt:     &decided,
	}}, 1, nil
}

type exportFixture struct {
	svc      *ExportService
	store    *storage.LocalStorage
	teachers *pagedTeacherStub
	rated    *ratedStub
}

func newExportServiceForTest(t *testing.T) *exportFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f := &exportFixture{store: store, teachers: &pagedTeacherStub{}, rated: &ratedStub{}}
	for i := 0; i < 150; i++ {
		f.teachers.teachers = append(f.teachers.teachers, models.Teacher{FullName: "Teacher", Email: "t@school.test", Position: "Teacher I", Active: true})
	}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	f.svc = NewExportService(ExportSources{Teachers: f.teachers, Ratings: f.rated, Promotions: promotionListStub{}},
		store, signer, ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}, zap.NewNop(),
		export.NewCSVExporter(), export.NewPDFExporter())
	return f
}

func readStored(t *testing.T, store *storage.LocalStorage, rel string) string {
	t.Helper()
	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	return string(data)
}

func TestExportServiceGenerateIPCRFCSV(t *testing.T) {
	f := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeIPCRF,
		Params: models.ReportJobParams{RatingPeriod: "2024-2025", Status: "approved", Format: models.ReportFormatCSV},
	}
	result, err := f.svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RelativePath, "reports/ipcrf_2024-2025_"))
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.Equal(t, rating.StatusApproved, f.rated.status)

	content := readStored(t, f.store, result.RelativePath)
	assert.Contains(t, content, "Adjectival Rating")
	assert.Contains(t, content, "Ana Cruz")
	assert.Contains(t, content, "4.67")

	jobID, relPath, _, err := f.svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportServiceTeachersWalksPages(t *testing.T) {
	f := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeTeachers,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, ActiveOnly: true},
	}
	result, err := f.svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, f.teachers.filters, 2)
	require.NotNil(t, f.teachers.filters[0].Active)

	lines := strings.Split(strings.TrimSpace(readStored(t, f.store, result.RelativePath)), "\n")
	assert.Len(t, lines, 151)
}

func TestExportServiceGeneratePromotionsPDF(t *testing.T) {
	f := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypePromotions,
		Params: models.ReportJobParams{Format: models.ReportFormatPDF},
	}
	result, err := f.svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatPDF, result.Format)
	assert.True(t, strings.HasPrefix(readStored(t, f.store, result.RelativePath), "%PDF"))
}

func TestExportServiceRejectsIPCRFWithoutPeriod(t *testing.T) {
	f := newExportServiceForTest(t)
	_, err := f.svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportTypeIPCRF,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	})
	require.Error(t, err)

	_, err = f.svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-5",
		Type:   models.ReportType("grades"),
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	})
	require.Error(t, err)
}
