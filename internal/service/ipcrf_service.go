package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/internal/repository"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/export"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

const (
	summaryCachePrefix  = "ipcrf:summary:"
	summaryCachePattern = summaryCachePrefix + "*"
)

type ipcrfRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	ReplaceRatings(ctx context.Context, sub *models.Submission) error
	UpdateStatus(ctx context.Context, change models.StatusChange, remarks *string) error
	DeleteDraft(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByTeacherPeriod(ctx context.Context, teacherID, period string) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	Summary(ctx context.Context, period string) (*models.PeriodSummary, error)
	ListRated(ctx context.Context, period string, status rating.Status) ([]models.RatedTeacher, error)
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type kraSource interface {
	List(ctx context.Context, filter models.KRAFilter) ([]models.KRA, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type formRenderer interface {
	Render(form export.IPCRFForm) ([]byte, error)
}

// IPCRFConfig holds rating options of the IPCRF service.
type IPCRFConfig struct {
	SchoolName      string
	RequireComplete bool
}

// IPCRFService scores, stores and moves IPCRF submissions through their lifecycle.
type IPCRFService struct {
	repo      ipcrfRepository
	teachers  teacherLookup
	kras      kraSource
	users     userLookup
	audit     auditWriter
	cache     *CacheService
	metrics   *MetricsService
	renderer  formRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       IPCRFConfig
	now       func() time.Time
}

// IPCRFServiceDeps groups the collaborators of IPCRFService.
type IPCRFServiceDeps struct {
	Repo      ipcrfRepository
	Teachers  teacherLookup
	KRAs      kraSource
	Users     userLookup
	Audit     auditWriter
	Cache     *CacheService
	Metrics   *MetricsService
	Renderer  formRenderer
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    IPCRFConfig
}

// NewIPCRFService constructs an IPCRFService.
func NewIPCRFService(deps IPCRFServiceDeps) *IPCRFService {
	if deps.Validator == nil {
		deps.Validator = NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Renderer == nil {
		deps.Renderer = export.NewFormRenderer()
	}
	return &IPCRFService{
		repo:      deps.Repo,
		teachers:  deps.Teachers,
		kras:      deps.KRAs,
		users:     deps.Users,
		audit:     deps.Audit,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		renderer:  deps.Renderer,
		validator: deps.Validator,
		logger:    deps.Logger,
		cfg:       deps.Config,
		now:       time.Now,
	}
}

// Evaluate scores a rating payload without persisting anything.
func (s *IPCRFService) Evaluate(ctx context.Context, req dto.RatingRequest) (*dto.EvaluationResult, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid rating payload")
	}
	sub, err := s.score(ctx, req)
	if err != nil {
		return nil, err
	}
	sub.Status = rating.StatusDraft
	return evaluationView(sub), nil
}

// Create scores and stores a new draft submission for a teacher and period.
func (s *IPCRFService) Create(ctx context.Context, req dto.RatingRequest, actorID string) (*models.Submission, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid rating payload")
	}
	teacher, err := s.loadTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, err
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is inactive")
	}

	if existing, err := s.repo.FindByTeacherPeriod(ctx, req.TeacherID, req.RatingPeriod); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already has a submission for this rating period")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing submission")
	}

	sub, err := s.score(ctx, req)
	if err != nil {
		return nil, err
	}
	sub.TeacherID = teacher.ID
	sub.TeacherName = teacher.FullName
	sub.RatingPeriod = req.RatingPeriod
	sub.Status = rating.StatusDraft
	sub.Remarks = normalizeOptional(req.Remarks)
	if actorID != "" {
		sub.RaterID = &actorID
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already has a submission for this rating period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	s.metrics.RecordSubmission(rating.StatusDraft, sub.NumericalRating)
	s.invalidateSummaries(ctx)
	return sub, nil
}

// Update re-rates a submission, replacing every stored rating. Approved
// submissions are read only.
func (s *IPCRFService) Update(ctx context.Context, id string, req dto.RatingRequest, actorID string) (*models.Submission, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid rating payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Editable() {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "approved submissions cannot be re-rated")
	}
	if req.TeacherID != current.TeacherID || req.RatingPeriod != current.RatingPeriod {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher and rating period cannot change on re-rate")
	}

	sub, err := s.score(ctx, req)
	if err != nil {
		return nil, err
	}
	sub.ID = current.ID
	sub.TeacherID = current.TeacherID
	sub.TeacherName = current.TeacherName
	sub.RatingPeriod = current.RatingPeriod
	sub.Status = current.Status
	sub.SubmittedAt = current.SubmittedAt
	sub.CreatedAt = current.CreatedAt
	sub.Remarks = normalizeOptional(req.Remarks)
	if actorID != "" {
		sub.RaterID = &actorID
	} else {
		sub.RaterID = current.RaterID
	}

	if err := s.repo.ReplaceRatings(ctx, sub); err != nil {
		var evidence *repository.EvidenceAttachedError
		switch {
		case errors.Is(err, repository.ErrStaleState):
			return nil, appErrors.Clone(appErrors.ErrFinalized, "approved submissions cannot be re-rated")
		case errors.As(err, &evidence):
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
				fmt.Sprintf("objective %s has MOV evidence attached; delete it before dropping the rating", evidence.ObjectiveID))
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
		}
	}

	s.record(ctx, actorID, models.AuditActionIPCRFRerate, sub.ID, summaryValues(current), summaryValues(sub))
	s.invalidateSummaries(ctx)
	return sub, nil
}

// Submit moves a draft to submitted.
func (s *IPCRFService) Submit(ctx context.Context, id string, req dto.StatusChangeRequest, actorID string) (*models.Submission, error) {
	return s.transition(ctx, id, rating.StatusSubmitted, req, actorID, models.AuditActionIPCRFSubmit)
}

// Approve moves a submitted record to approved, locking it.
func (s *IPCRFService) Approve(ctx context.Context, id string, req dto.StatusChangeRequest, actorID string) (*models.Submission, error) {
	return s.transition(ctx, id, rating.StatusApproved, req, actorID, models.AuditActionIPCRFApprove)
}

func (s *IPCRFService) transition(ctx context.Context, id string, to rating.Status, req dto.StatusChangeRequest, actorID, action string) (*models.Submission, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid status payload")
	}
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rating.Transition(sub.Status, to); err != nil {
		return nil, ratingError(err)
	}

	change := models.StatusChange{
		SubmissionID: sub.ID,
		From:         sub.Status,
		To:           to,
		At:           s.now().UTC(),
		ActorID:      actorID,
	}
	remarks := normalizeOptional(req.Remarks)
	if err := s.repo.UpdateStatus(ctx, change, remarks); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission status")
	}

	previous := sub.Status
	sub.Status = to
	sub.UpdatedAt = change.At
	switch to {
	case rating.StatusSubmitted:
		sub.SubmittedAt = &change.At
	case rating.StatusApproved:
		sub.ApprovedAt = &change.At
		if actorID != "" {
			sub.ApprovedBy = &actorID
		}
	}
	if remarks != nil {
		sub.Remarks = remarks
	}

	s.metrics.RecordSubmission(to, sub.NumericalRating)
	s.record(ctx, actorID, action, sub.ID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": to})
	s.invalidateSummaries(ctx)
	return sub, nil
}

// Delete removes a draft submission.
func (s *IPCRFService) Delete(ctx context.Context, id, actorID string) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status != rating.StatusDraft {
		return appErrors.Clone(appErrors.ErrFinalized, "only draft submissions can be deleted")
	}
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return appErrors.Clone(appErrors.ErrConflict, "submission is no longer a draft")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	s.record(ctx, actorID, models.AuditActionDelete, id, summaryValues(sub), nil)
	s.invalidateSummaries(ctx)
	return nil
}

// Get returns a submission with its full breakdown.
func (s *IPCRFService) Get(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

// List returns submission headers plus pagination data.
func (s *IPCRFService) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+string(filter.Status))
	}
	if filter.RatingPeriod != "" && !IsSchoolYear(filter.RatingPeriod) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "rating_period must look like 2024-2025")
	}
	subs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return subs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// History lists every submission of one teacher, newest period first.
func (s *IPCRFService) History(ctx context.Context, teacherID string, page, pageSize int) ([]models.Submission, *models.Pagination, error) {
	if _, err := s.loadTeacher(ctx, teacherID); err != nil {
		return nil, nil, err
	}
	return s.List(ctx, models.SubmissionFilter{
		TeacherID: teacherID,
		Page:      page,
		PageSize:  pageSize,
		SortBy:    "rating_period",
		SortOrder: "desc",
	})
}

// Summary returns the adjectival distribution of a rating period and whether
// it was served from cache.
func (s *IPCRFService) Summary(ctx context.Context, period string) (*models.PeriodSummary, bool, error) {
	if !IsSchoolYear(period) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "rating_period must look like 2024-2025")
	}
	summary, hit, err := Remember(ctx, s.cache, summaryCachePrefix+period, 0, func(ctx context.Context) (*models.PeriodSummary, error) {
		start := time.Now()
		summary, err := s.repo.Summary(ctx, period)
		s.metrics.ObserveDBQuery("ipcrf_summary", time.Since(start))
		if err != nil {
			return nil, err
		}
		summary.AverageRating = rating.Round2(summary.AverageRating)
		return summary, nil
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise rating period")
	}
	return summary, hit, nil
}

// Rated lists teacher level results of a period, used by the admin CLI.
func (s *IPCRFService) Rated(ctx context.Context, period string, status rating.Status) ([]models.RatedTeacher, error) {
	if !IsSchoolYear(period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating_period must look like 2024-2025")
	}
	rows, err := s.repo.ListRated(ctx, period, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rated teachers")
	}
	return rows, nil
}

// FormPDF renders the printable IPCRF form of a submission.
func (s *IPCRFService) FormPDF(ctx context.Context, id string) ([]byte, string, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	teacher, err := s.loadTeacher(ctx, sub.TeacherID)
	if err != nil {
		return nil, "", err
	}

	form := export.IPCRFForm{
		SchoolName:      s.cfg.SchoolName,
		TeacherName:     teacher.FullName,
		Position:        teacher.Position,
		RatingPeriod:    sub.RatingPeriod,
		RaterName:       s.userName(ctx, sub.RaterID),
		ApproverName:    s.userName(ctx, sub.ApprovedBy),
		Status:          string(sub.Status),
		TotalScore:      sub.TotalScore,
		NumericalRating: sub.NumericalRating,
		KRAs:            make([]export.FormKRA, 0, len(sub.KRAs)),
	}
	if teacher.EmployeeNo != nil {
		form.EmployeeNo = *teacher.EmployeeNo
	}
	if sub.Remarks != nil {
		form.Remarks = *sub.Remarks
	}
	for _, k := range sub.KRAs {
		kra := export.FormKRA{Name: k.KRAName, AverageRating: k.AverageRating, Score: k.Score}
		for _, o := range k.Objectives {
			kra.Objectives = append(kra.Objectives, export.FormObjective{
				Code:        o.Code,
				Description: o.Description,
				Weight:      o.Weight,
				Rating:      o.Rating,
				Score:       o.Score,
			})
		}
		form.KRAs = append(form.KRAs, kra)
	}

	data, err := s.renderer.Render(form)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render ipcrf form")
	}
	return data, formFilename(teacher.FullName, sub.RatingPeriod), nil
}

// score resolves a payload against the active KRA configuration and runs the
// rating pipeline. Configured weights, codes and names override the payload.
func (s *IPCRFService) score(ctx context.Context, req dto.RatingRequest) (*models.Submission, error) {
	kras, err := s.kras.List(ctx, models.KRAFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load kra configuration")
	}
	kraByID := make(map[string]models.KRA, len(kras))
	objectiveByID := make(map[string]models.Objective)
	for _, k := range kras {
		kraByID[k.ID] = k
		for _, o := range k.Objectives {
			objectiveByID[o.ID] = o
		}
	}

	inputs := make([]rating.KRAInput, 0, len(req.KRADetails))
	seenKRA := make(map[string]struct{}, len(req.KRADetails))
	seenObjective := make(map[string]struct{})
	for _, in := range req.KRADetails {
		kra, ok := kraByID[in.KRAID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown kra %s", in.KRAID))
		}
		if _, dup := seenKRA[in.KRAID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("kra %s listed more than once", in.KRAID))
		}
		seenKRA[in.KRAID] = struct{}{}

		kraInput := rating.KRAInput{KRAID: kra.ID, Objectives: make([]rating.ObjectiveInput, 0, len(in.Objectives))}
		for _, o := range in.Objectives {
			objective, ok := objectiveByID[o.ObjectiveID]
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown objective %s", o.ObjectiveID))
			}
			if objective.KRAID != kra.ID {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("objective %s does not belong to kra %s", o.ObjectiveID, kra.ID))
			}
			if _, dup := seenObjective[o.ObjectiveID]; dup {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("objective %s rated more than once", o.ObjectiveID))
			}
			seenObjective[o.ObjectiveID] = struct{}{}
			kraInput.Objectives = append(kraInput.Objectives, rating.ObjectiveInput{
				ObjectiveID: objective.ID,
				Rating:      o.Rating,
				Weight:      objective.Weight,
			})
		}
		inputs = append(inputs, kraInput)
	}

	if s.cfg.RequireComplete {
		for _, k := range kras {
			for _, o := range k.Objectives {
				if _, ok := seenObjective[o.ID]; !ok {
					return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("objective %s (%s) is not rated", o.Code, k.Name))
				}
			}
		}
	}

	result, err := rating.Compute(inputs)
	if err != nil {
		return nil, ratingError(err)
	}
	numerical, label, err := storedRating(result.NumericalRating)
	if err != nil {
		return nil, ratingError(err)
	}

	sub := &models.Submission{
		TotalScore:       rating.Round2(result.TotalScore),
		NumericalRating:  numerical,
		AdjectivalRating: label,
		KRAs:             make([]models.SubmissionKRA, 0, len(result.KRAs)),
	}
	for _, k := range result.KRAs {
		if k.Empty {
			continue
		}
		kra := kraByID[k.KRAID]
		row := models.SubmissionKRA{
			KRAID:         kra.ID,
			KRAName:       kra.Name,
			AverageRating: rating.Round2(k.AverageRating),
			Score:         rating.Round2(k.Score),
			Objectives:    make([]models.ObjectiveRating, 0, len(k.Objectives)),
		}
		for _, o := range k.Objectives {
			objective := objectiveByID[o.ObjectiveID]
			row.Objectives = append(row.Objectives, models.ObjectiveRating{
				ObjectiveID: objective.ID,
				Code:        objective.Code,
				Description: objective.Description,
				Weight:      o.Weight,
				Rating:      o.Rating,
				Score:       rating.Round2(o.Score),
			})
		}
		sub.KRAs = append(sub.KRAs, row)
	}
	return sub, nil
}

func (s *IPCRFService) loadTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *IPCRFService) userName(ctx context.Context, id *string) string {
	if id == nil || s.users == nil {
		return ""
	}
	user, err := s.users.FindByID(ctx, *id)
	if err != nil {
		return ""
	}
	return user.FullName
}

func (s *IPCRFService) invalidateSummaries(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, summaryCachePattern); err != nil {
		s.logger.Warn("failed to invalidate ipcrf summary cache", zap.Error(err))
	}
}

func (s *IPCRFService) record(ctx context.Context, actorID, action, submissionID string, oldValues, newValues interface{}) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "ipcrf_submission",
		ResourceID: &submissionID,
		CreatedAt:  s.now().UTC(),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if oldValues != nil {
		entry.OldValues = models.MustJSONB(oldValues)
	}
	if newValues != nil {
		entry.NewValues = models.MustJSONB(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write ipcrf audit log", zap.String("action", action), zap.Error(err))
	}
}

func summaryValues(sub *models.Submission) map[string]interface{} {
	return map[string]interface{}{
		"status":            sub.Status,
		"total_score":       sub.TotalScore,
		"numerical_rating":  sub.NumericalRating,
		"adjectival_rating": sub.AdjectivalRating,
	}
}

func evaluationView(sub *models.Submission) *dto.EvaluationResult {
	view := &dto.EvaluationResult{
		KRADetails:       make([]dto.KRAResultView, 0, len(sub.KRAs)),
		TotalScore:       sub.TotalScore,
		NumericalRating:  sub.NumericalRating,
		AdjectivalRating: sub.AdjectivalRating,
		Status:           sub.Status,
	}
	for _, k := range sub.KRAs {
		kra := dto.KRAResultView{
			KRAID:         k.KRAID,
			KRAName:       k.KRAName,
			AverageRating: k.AverageRating,
			Score:         k.Score,
			Objectives:    make([]dto.ObjectiveResultView, 0, len(k.Objectives)),
		}
		for _, o := range k.Objectives {
			kra.Objectives = append(kra.Objectives, dto.ObjectiveResultView{
				ObjectiveID: o.ObjectiveID,
				Code:        o.Code,
				Description: o.Description,
				Weight:      o.Weight,
				Rating:      o.Rating,
				Score:       o.Score,
			})
		}
		view.KRADetails = append(view.KRADetails, kra)
	}
	return view
}

func formFilename(teacherName, period string) string {
	name := strings.ToLower(strings.Join(strings.Fields(teacherName), "_"))
	if name == "" {
		name = "teacher"
	}
	return fmt.Sprintf("ipcrf_%s_%s.pdf", name, period)
}

// storedRating rounds the numerical rating to the stored precision and labels
// the rounded value, so a 4.4966 mean is kept as 4.50 Outstanding.
func storedRating(raw float64) (float64, rating.Label, error) {
	numerical := rating.Round2(raw)
	label, err := rating.Classify(numerical)
	return numerical, label, err
}
