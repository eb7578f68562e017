package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timify-bridge/internal/dto"
	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
	"github.com/noah-isme/timify-bridge/pkg/timify"
)

type blockRepository interface {
	Find(ctx context.Context, courseID, blockID string) (*models.BlockSettings, error)
	Upsert(ctx context.Context, settings *models.BlockSettings) error
}

type blockSettingsReader interface {
	Find(ctx context.Context, courseID, blockID string) (*models.BlockSettings, error)
}

type blockAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type formLister interface {
	ListForms(ctx context.Context, cred timify.Credential) ([]timify.Form, error)
}

type credentialProvider interface {
	Get(ctx context.Context, courseID string) (*models.CourseCredential, bool)
	Invalidate(ctx context.Context, courseID string)
}

// BlockService manages the instructor-editable configuration of a block.
type BlockService struct {
	repo      blockRepository
	audit     blockAuditLogger
	creds     credentialProvider
	forms     formLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlockService constructs a BlockService.
func NewBlockService(repo blockRepository, audit blockAuditLogger, creds credentialProvider, forms formLister, validate *validator.Validate, logger *zap.Logger) *BlockService {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterCustomTypeFunc(optionalIntValue, dto.OptionalInt{})
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockService{repo: repo, audit: audit, creds: creds, forms: forms, validator: validate, logger: logger}
}

// GetSettings returns the stored settings or the defaults of an unedited block.
func (s *BlockService) GetSettings(ctx context.Context, courseID, blockID string) (*models.BlockSettings, error) {
	settings, err := loadSettings(ctx, s.repo, courseID, blockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block settings")
	}
	return settings, nil
}

// UpdateSettings applies the studio form. Invalid values fall back to the defaults.
// An omitted schedule field keeps the stored value and an explicit null clears it.
func (s *BlockService) UpdateSettings(ctx context.Context, courseID, blockID string, req dto.UpdateBlockSettingsRequest, actor *models.JWTClaims) (*dto.ActionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block settings")
	}

	prev, err := loadSettings(ctx, s.repo, courseID, blockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block settings")
	}

	next := models.DefaultBlockSettings(courseID, blockID)
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		next.DisplayName = name
	}
	if req.Duration.Valid && req.Duration.Value > 0 {
		next.Duration = req.Duration.Value
	}
	switch autoclose := strings.TrimSpace(req.Autoclose); autoclose {
	case models.AutocloseYes, models.AutocloseNo:
		next.Autoclose = autoclose
	}
	next.IDForm = strings.TrimSpace(req.IDForm)
	next.DueAt = prev.DueAt
	if req.Due.Set {
		next.DueAt = nil
		if req.Due.Value != nil {
			due := req.Due.Value.UTC()
			next.DueAt = &due
		}
	}
	next.GracePeriodSeconds = prev.GracePeriodSeconds
	if req.GracePeriodSeconds.Set {
		next.GracePeriodSeconds = req.GracePeriodSeconds.Value
	}

	if err := s.repo.Upsert(ctx, &next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save block settings")
	}

	s.emitAudit(ctx, actor, prev, &next)
	return &dto.ActionResult{Result: dto.ResultSuccess}, nil
}

// AvailableForms lists the remote forms for the studio picker. It degrades to an empty list.
func (s *BlockService) AvailableForms(ctx context.Context, courseID string) []dto.FormOption {
	options := []dto.FormOption{}
	if s.creds == nil || s.forms == nil {
		return options
	}
	cred, ok := s.creds.Get(ctx, courseID)
	if !ok {
		return options
	}
	forms, err := s.forms.ListForms(ctx, toRemoteCredential(cred))
	if err != nil {
		s.logger.Warn("list timify forms failed", zap.String("course_id", courseID), zap.Error(err))
		invalidateOnAuthFailure(ctx, s.creds, courseID, err)
		return options
	}
	for _, form := range forms {
		options = append(options, dto.FormOption{DisplayName: form.Label, Value: form.ID})
	}
	return options
}

func (s *BlockService) emitAudit(ctx context.Context, actor *models.JWTClaims, prev, next *models.BlockSettings) {
	if s.audit == nil {
		return
	}
	oldBytes, _ := json.Marshal(prev)
	newBytes, _ := json.Marshal(next)
	resourceID := next.CourseID + "/" + next.BlockID
	log := &models.AuditLog{
		UserID:     actorID(actor),
		Action:     models.AuditActionBlockSettingsUpdate,
		Resource:   "block",
		ResourceID: &resourceID,
		OldValues:  oldBytes,
		NewValues:  newBytes,
		IPAddress:  "system",
		UserAgent:  "block-service",
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record block settings audit", zap.Error(err))
	}
}

// loadSettings returns the stored settings or defaults when the block was never saved.
func loadSettings(ctx context.Context, repo blockSettingsReader, courseID, blockID string) (*models.BlockSettings, error) {
	settings, err := repo.Find(ctx, courseID, blockID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := models.DefaultBlockSettings(courseID, blockID)
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

// optionalIntValue lets validator tags apply to the wrapped value; null and omitted validate as empty.
func optionalIntValue(field reflect.Value) interface{} {
	if opt, ok := field.Interface().(dto.OptionalInt); ok && opt.Value != nil {
		return *opt.Value
	}
	return nil
}

func actorID(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	id := actor.UserID
	return &id
}
