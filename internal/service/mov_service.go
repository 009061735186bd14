package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-ipcrf-api/internal/dto"
	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
	"github.com/noah-isme/sma-ipcrf-api/pkg/storage"
)

type movRepository interface {
	Create(ctx context.Context, mov *models.MOV) error
	FindByID(ctx context.Context, id string) (*models.MOV, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]models.MOV, error)
	Delete(ctx context.Context, id string) error
}

type submissionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
}

type streamStorage interface {
	SaveStream(name string, r io.Reader, limit int64) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// MOVConfig limits uploaded evidence.
type MOVConfig struct {
	APIPrefix    string
	MaxFileSize  int64
	AllowedMIMEs []string
}

// UploadMOVInput describes one uploaded file.
type UploadMOVInput struct {
	SubmissionID string
	ObjectiveID  string
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// MOVFile is a resolved download.
type MOVFile struct {
	MOV  *models.MOV
	File *os.File
}

// MOVService stores means of verification attached to rated objectives.
type MOVService struct {
	repo        movRepository
	submissions submissionLookup
	storage     streamStorage
	signer      *storage.SignedURLSigner
	audit       auditWriter
	logger      *zap.Logger
	cfg         MOVConfig
	allowed     map[string]struct{}
}

// NewMOVService constructs a MOVService.
func NewMOVService(repo movRepository, submissions submissionLookup, store streamStorage, signer *storage.SignedURLSigner, audit auditWriter, logger *zap.Logger, cfg MOVConfig) *MOVService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, m := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &MOVService{
		repo:        repo,
		submissions: submissions,
		storage:     store,
		signer:      signer,
		audit:       audit,
		logger:      logger,
		cfg:         cfg,
		allowed:     allowed,
	}
}

// Upload validates and stores a file for an objective of a submission.
func (s *MOVService) Upload(ctx context.Context, in UploadMOVInput, actorID string) (*models.MOV, error) {
	sub, err := s.loadSubmission(ctx, in.SubmissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == rating.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "approved submissions do not accept new evidence")
	}
	if !hasObjective(sub, in.ObjectiveID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "objective is not rated in this submission")
	}
	if s.cfg.MaxFileSize > 0 && in.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}
	contentType, err := s.checkContentType(in.ContentType)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	filename := storage.SanitizeFilename(in.Filename)
	stored := fmt.Sprintf("movs/%s/%s_%s", sub.ID, id, filename)
	written, err := s.storage.SaveStream(stored, in.Body, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	mov := &models.MOV{
		ID:           id,
		SubmissionID: sub.ID,
		ObjectiveID:  in.ObjectiveID,
		Filename:     filename,
		StoredPath:   stored,
		ContentType:  contentType,
		SizeBytes:    written,
		CreatedAt:    time.Now().UTC(),
	}
	if actorID != "" {
		mov.UploadedBy = &actorID
	}
	if err := s.repo.Create(ctx, mov); err != nil {
		if delErr := s.storage.Delete(stored); delErr != nil {
			s.logger.Warn("failed to remove orphaned mov file", zap.String("path", stored), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save mov")
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			UserID:     mov.UploadedBy,
			Action:     models.AuditActionMOVUpload,
			Resource:   "mov",
			ResourceID: &mov.ID,
			NewValues: models.MustJSONB(map[string]interface{}{
				"submission_id": mov.SubmissionID,
				"objective_id":  mov.ObjectiveID,
				"filename":      mov.Filename,
				"size_bytes":    mov.SizeBytes,
			}),
			CreatedAt: mov.CreatedAt,
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write mov audit log", zap.String("mov_id", mov.ID), zap.Error(err))
		}
	}
	return mov, nil
}

// List returns the evidence attached to a submission.
func (s *MOVService) List(ctx context.Context, submissionID string) ([]models.MOV, error) {
	if _, err := s.loadSubmission(ctx, submissionID); err != nil {
		return nil, err
	}
	movs, err := s.repo.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list movs")
	}
	return movs, nil
}

// DownloadURL returns a signed, expiring link to a stored file.
func (s *MOVService) DownloadURL(ctx context.Context, id string) (*dto.MOVDownloadResponse, error) {
	mov, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(mov.ID, mov.StoredPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &dto.MOVDownloadResponse{
		URL:       fmt.Sprintf("%s/files/%s", prefix, token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// ResolveFile validates a download token and opens the file it points to.
func (s *MOVService) ResolveFile(ctx context.Context, token string) (*MOVFile, error) {
	movID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	mov, err := s.get(ctx, movID)
	if err != nil {
		return nil, err
	}
	if mov.StoredPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return &MOVFile{MOV: mov, File: file}, nil
}

// Delete removes evidence from a submission that is not yet approved.
func (s *MOVService) Delete(ctx context.Context, id string) error {
	mov, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	sub, err := s.loadSubmission(ctx, mov.SubmissionID)
	if err != nil {
		return err
	}
	if sub.Status == rating.StatusApproved {
		return appErrors.Clone(appErrors.ErrFinalized, "evidence of approved submissions cannot be removed")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mov")
	}
	if err := s.storage.Delete(mov.StoredPath); err != nil {
		s.logger.Warn("failed to delete mov file", zap.String("path", mov.StoredPath), zap.Error(err))
	}
	return nil
}

func (s *MOVService) checkContentType(raw string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnsupportedMedia, "missing or malformed content type")
	}
	mediaType = strings.ToLower(mediaType)
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[mediaType]; !ok {
			return "", appErrors.Clone(appErrors.ErrUnsupportedMedia, "content type "+mediaType+" is not allowed")
		}
	}
	return mediaType, nil
}

func (s *MOVService) get(ctx context.Context, id string) (*models.MOV, error) {
	mov, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mov not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mov")
	}
	return mov, nil
}

func (s *MOVService) loadSubmission(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

func hasObjective(sub *models.Submission, objectiveID string) bool {
	for _, k := range sub.KRAs {
		for _, o := range k.Objectives {
			if o.ObjectiveID == objectiveID {
				return true
			}
		}
	}
	return false
}
