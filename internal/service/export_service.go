package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/pkg/export"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
	"github.com/noah-isme/sma-ipcrf-api/pkg/storage"
)

// exportPrefix is the storage directory holding generated exports.
const exportPrefix = "reports"

// exportPageSize is the batch size used when walking paged listings.
const exportPageSize = 100

type teacherLister interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type ratedLister interface {
	ListRated(ctx context.Context, period string, status rating.Status) ([]models.RatedTeacher, error)
}

type promotionLister interface {
	List(ctx context.Context, filter models.PromotionFilter) ([]models.Promotion, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportSources are the repositories datasets are built from.
type ExportSources struct {
	Teachers   teacherLister
	Ratings    ratedLister
	Promotions promotionLister
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	sources ExportSources
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(sources ExportSources, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		sources: sources,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Generate builds the dataset a job asks for and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("export generated",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes exports older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(exportPrefix, ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	scope := job.Params.RatingPeriod
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf("%s/%s_%s_%s.%s", exportPrefix, job.Type, storage.SanitizeFilename(scope), timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeTeachers:
		return s.buildTeacherDataset(ctx, job.Params)
	case models.ReportTypeIPCRF:
		return s.buildIPCRFDataset(ctx, job.Params)
	case models.ReportTypePromotions:
		return s.buildPromotionDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildTeacherDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.TeacherFilter{Position: params.Position, PageSize: exportPageSize, SortBy: "full_name", SortOrder: "asc"}
	if params.ActiveOnly {
		active := true
		filter.Active = &active
	}
	var teachers []models.Teacher
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.sources.Teachers.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		teachers = append(teachers, batch...)
		if len(batch) == 0 || len(teachers) >= total {
			break
		}
	}

	headers := []string{"Employee No", "Full Name", "Email", "Position", "Department", "Active"}
	rows := make([]map[string]string, 0, len(teachers))
	for _, t := range teachers {
		rows = append(rows, map[string]string{
			"Employee No": deref(t.EmployeeNo),
			"Full Name":   t.FullName,
			"Email":       t.Email,
			"Position":    t.Position,
			"Department":  deref(t.Department),
			"Active":      strconv.FormatBool(t.Active),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Teacher Roster", nil
}

func (s *ExportService) buildIPCRFDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	if params.RatingPeriod == "" {
		return export.Dataset{}, "", fmt.Errorf("rating period required for ipcrf export")
	}
	rated, err := s.sources.Ratings.ListRated(ctx, params.RatingPeriod, rating.Status(params.Status))
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Employee No", "Teacher", "Position", "Rating Period", "Total Score", "Numerical Rating", "Adjectival Rating", "Status"}
	rows := make([]map[string]string, 0, len(rated))
	for _, r := range rated {
		rows = append(rows, map[string]string{
			"Employee No":       deref(r.EmployeeNo),
			"Teacher":           r.FullName,
			"Position":          r.Position,
			"Rating Period":     r.RatingPeriod,
			"Total Score":       fmt.Sprintf("%.2f", r.TotalScore),
			"Numerical Rating":  fmt.Sprintf("%.2f", r.NumericalRating),
			"Adjectival Rating": string(r.AdjectivalRating),
			"Status":            string(r.Status),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, fmt.Sprintf("IPCRF Results %s", params.RatingPeriod), nil
}

func (s *ExportService) buildPromotionDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.PromotionFilter{Status: models.PromotionStatus(params.Status), PageSize: exportPageSize}
	var promotions []models.Promotion
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.sources.Promotions.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		promotions = append(promotions, batch...)
		if len(batch) == 0 || len(promotions) >= total {
			break
		}
	}

	headers := []string{"Teacher", "From Position", "To Position", "Effective Date", "Status", "Decided At"}
	rows := make([]map[string]string, 0, len(promotions))
	for _, p := range promotions {
		rows = append(rows, map[string]string{
			"Teacher":        p.TeacherName,
			"From Position":  p.FromPosition,
			"To Position":    p.ToPosition,
			"Effective Date": p.EffectiveDate.Format("2006-01-02"),
			"Status":         string(p.Status),
			"Decided At":     formatReportTime(p.DecidedAt),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Promotions", nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
