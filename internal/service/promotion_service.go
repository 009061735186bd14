package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/internal/repository"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
)

type promotionRepository interface {
	Create(ctx context.Context, p *models.Promotion) error
	FindByID(ctx context.Context, id string) (*models.Promotion, error)
	List(ctx context.Context, filter models.PromotionFilter) ([]models.Promotion, int, error)
	Decide(ctx context.Context, id string, status models.PromotionStatus, deciderID string, at time.Time) error
}

// PromotionService handles promotion requests and their decisions.
type PromotionService struct {
	repo      promotionRepository
	teachers  teacherLookup
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPromotionService constructs a PromotionService.
func NewPromotionService(repo promotionRepository, teachers teacherLookup, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *PromotionService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{repo: repo, teachers: teachers, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// Create files a pending promotion for a teacher.
func (s *PromotionService) Create(ctx context.Context, req dto.CreatePromotionRequest, actorID string) (*models.Promotion, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid promotion payload")
	}
	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	toPosition := strings.TrimSpace(req.ToPosition)
	if strings.EqualFold(toPosition, teacher.Position) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_position must differ from the current position")
	}
	effective, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		return nil, appErrors.Invalid(err, "invalid effective_date")
	}

	promotion := &models.Promotion{
		TeacherID:     teacher.ID,
		FromPosition:  teacher.Position,
		ToPosition:    toPosition,
		EffectiveDate: effective,
		Reason:        normalizeOptional(req.Reason),
		Status:        models.PromotionPending,
		TeacherName:   teacher.FullName,
	}
	if actorID != "" {
		promotion.CreatedBy = &actorID
	}
	if err := s.repo.Create(ctx, promotion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create promotion")
	}
	return promotion, nil
}

// Get returns one promotion.
func (s *PromotionService) Get(ctx context.Context, id string) (*models.Promotion, error) {
	promotion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "promotion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load promotion")
	}
	return promotion, nil
}

// List returns promotions plus pagination data.
func (s *PromotionService) List(ctx context.Context, filter models.PromotionFilter) ([]models.Promotion, *models.Pagination, error) {
	switch filter.Status {
	case "", models.PromotionPending, models.PromotionApproved, models.PromotionRejected:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown promotion status "+string(filter.Status))
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list promotions")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Approve accepts a pending promotion and moves the teacher to the new position.
func (s *PromotionService) Approve(ctx context.Context, id, actorID string) (*models.Promotion, error) {
	return s.decide(ctx, id, models.PromotionApproved, actorID, models.AuditActionPromotionApprove)
}

// Reject declines a pending promotion.
func (s *PromotionService) Reject(ctx context.Context, id, actorID string) (*models.Promotion, error) {
	return s.decide(ctx, id, models.PromotionRejected, actorID, models.AuditActionPromotionReject)
}

func (s *PromotionService) decide(ctx context.Context, id string, status models.PromotionStatus, actorID, action string) (*models.Promotion, error) {
	promotion, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if promotion.Status != models.PromotionPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "promotion already decided")
	}
	at := s.now().UTC()
	if err := s.repo.Decide(ctx, id, status, actorID, at); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "promotion already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide promotion")
	}

	promotion.Status = status
	promotion.DecidedAt = &at
	promotion.UpdatedAt = at
	if actorID != "" {
		promotion.DecidedBy = &actorID
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			Action:     action,
			Resource:   "promotion",
			ResourceID: &promotion.ID,
			OldValues:  models.MustJSONB(map[string]interface{}{"status": models.PromotionPending, "position": promotion.FromPosition}),
			NewValues:  models.MustJSONB(map[string]interface{}{"status": status, "position": promotion.ToPosition}),
			CreatedAt:  at,
		}
		if actorID != "" {
			entry.UserID = &actorID
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write promotion audit log", zap.String("promotion_id", id), zap.Error(err))
		}
	}
	return promotion, nil
}
