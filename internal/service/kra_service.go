package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/internal/repository"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

type kraRepository interface {
	List(ctx context.Context, filter models.KRAFilter) ([]models.KRA, error)
	FindByID(ctx context.Context, id string) (*models.KRA, error)
	FindObjective(ctx context.Context, id string) (*models.Objective, error)
	Create(ctx context.Context, kra *models.KRA) error
	Update(ctx context.Context, kra *models.KRA) error
	Deactivate(ctx context.Context, id string) error
	CreateObjective(ctx context.Context, objective *models.Objective) error
	UpdateObjective(ctx context.Context, objective *models.Objective) error
	DeleteObjective(ctx context.Context, id string) error
	ObjectiveInUse(ctx context.Context, id string) (bool, error)
}

// weightTolerance absorbs float noise when checking that weights total 100.
const weightTolerance = 1e-6

// KRAService manages the KRA and objective configuration used for rating.
type KRAService struct {
	repo      kraRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewKRAService constructs a KRAService.
func NewKRAService(repo kraRepository, validate *validator.Validate, logger *zap.Logger) *KRAService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KRAService{repo: repo, validator: validate, logger: logger}
}

// List returns the configured KRAs in display order.
func (s *KRAService) List(ctx context.Context, includeInactive bool) ([]models.KRA, error) {
	kras, err := s.repo.List(ctx, models.KRAFilter{IncludeInactive: includeInactive})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list kras")
	}
	return kras, nil
}

// Get returns one KRA with its objectives.
func (s *KRAService) Get(ctx context.Context, id string) (*models.KRA, error) {
	kra, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kra not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load kra")
	}
	return kra, nil
}

// Create stores a KRA and its objectives.
func (s *KRAService) Create(ctx context.Context, req dto.CreateKRARequest) (*models.KRA, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid kra payload")
	}
	kra := &models.KRA{
		Name:       strings.TrimSpace(req.Name),
		Position:   req.Position,
		Active:     true,
		Objectives: make([]models.Objective, 0, len(req.Objectives)),
	}
	seen := make(map[string]struct{}, len(req.Objectives))
	for i, o := range req.Objectives {
		code := strings.TrimSpace(o.Code)
		if _, dup := seen[code]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate objective code "+code)
		}
		seen[code] = struct{}{}
		objective, err := newObjective(o)
		if err != nil {
			return nil, err
		}
		if objective.Position == 0 {
			objective.Position = i + 1
		}
		kra.Objectives = append(kra.Objectives, objective)
	}

	if err := s.repo.Create(ctx, kra); err != nil {
		return nil, s.writeError(err, "failed to create kra")
	}
	s.warnWeights(kra)
	return kra, nil
}

// Update modifies the KRA header.
func (s *KRAService) Update(ctx context.Context, id string, req dto.UpdateKRARequest) (*models.KRA, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid kra payload")
	}
	kra, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	kra.Name = strings.TrimSpace(req.Name)
	kra.Position = req.Position
	if req.Active != nil {
		kra.Active = *req.Active
	}
	if err := s.repo.Update(ctx, kra); err != nil {
		return nil, s.writeError(err, "failed to update kra")
	}
	return kra, nil
}

// Deactivate hides a KRA from new ratings.
func (s *KRAService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "kra not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate kra")
	}
	return nil
}

// AddObjective appends an objective to a KRA.
func (s *KRAService) AddObjective(ctx context.Context, kraID string, req dto.ObjectiveRequest) (*models.Objective, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid objective payload")
	}
	kra, err := s.Get(ctx, kraID)
	if err != nil {
		return nil, err
	}
	objective, err := newObjective(req)
	if err != nil {
		return nil, err
	}
	objective.KRAID = kra.ID
	if objective.Position == 0 {
		objective.Position = len(kra.Objectives) + 1
	}
	if err := s.repo.CreateObjective(ctx, &objective); err != nil {
		return nil, s.writeError(err, "failed to create objective")
	}
	kra.Objectives = append(kra.Objectives, objective)
	s.warnWeights(kra)
	return &objective, nil
}

// UpdateObjective changes an objective. Weights already stored on past
// submissions are not touched.
func (s *KRAService) UpdateObjective(ctx context.Context, id string, req dto.ObjectiveRequest) (*models.Objective, error) {
	if err := validateTrimmed(s.validator, &req); err != nil {
		return nil, appErrors.Invalid(err, "invalid objective payload")
	}
	objective, err := s.findObjective(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := newObjective(req)
	if err != nil {
		return nil, err
	}
	objective.Code = updated.Code
	objective.Description = updated.Description
	objective.Weight = updated.Weight
	if updated.Position > 0 {
		objective.Position = updated.Position
	}
	if err := s.repo.UpdateObjective(ctx, objective); err != nil {
		return nil, s.writeError(err, "failed to update objective")
	}
	if kra, err := s.repo.FindByID(ctx, objective.KRAID); err == nil {
		s.warnWeights(kra)
	}
	return objective, nil
}

// DeleteObjective removes an objective that no submission has rated.
func (s *KRAService) DeleteObjective(ctx context.Context, id string) error {
	if _, err := s.findObjective(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.ObjectiveInUse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check objective usage")
	}
	if inUse {
		return appErrors.Clone(appErrors.ErrConflict, "objective has recorded ratings or evidence")
	}
	if err := s.repo.DeleteObjective(ctx, id); err != nil {
		return s.writeError(err, "failed to delete objective")
	}
	return nil
}

func (s *KRAService) findObjective(ctx context.Context, id string) (*models.Objective, error) {
	objective, err := s.repo.FindObjective(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "objective not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load objective")
	}
	return objective, nil
}

func (s *KRAService) writeError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "objective code already used in this kra")
	case errors.Is(err, repository.ErrReferenced):
		return appErrors.Clone(appErrors.ErrConflict, "objective has recorded ratings or evidence")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "record not found")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

// warnWeights logs KRAs whose objective weights do not total 100.
func (s *KRAService) warnWeights(kra *models.KRA) {
	if len(kra.Objectives) == 0 {
		return
	}
	total := kra.TotalWeight()
	if math.Abs(total-rating.MaxWeight) > weightTolerance {
		s.logger.Warn("kra objective weights do not sum to 100",
			zap.String("kra_id", kra.ID),
			zap.String("kra", kra.Name),
			zap.Float64("total_weight", total))
	}
}

func newObjective(req dto.ObjectiveRequest) (models.Objective, error) {
	if math.IsNaN(req.Weight) || req.Weight < 0 || req.Weight > rating.MaxWeight {
		return models.Objective{}, ratingError(&rating.InvalidWeightError{Weight: req.Weight})
	}
	return models.Objective{
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Weight:      req.Weight,
		Position:    req.Position,
	}, nil
}
