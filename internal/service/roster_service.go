package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timify-bridge/internal/models"
	"github.com/noah-isme/timify-bridge/pkg/timify"
)

type enrollmentReader interface {
	ListActiveStudents(ctx context.Context, courseID string) ([]models.EnrolledStudent, error)
}

type formLinksFetcher interface {
	FormLinks(ctx context.Context, cred timify.Credential, formID string) ([]timify.LinkStatus, error)
}

// RosterService joins a form's remote links against every enrolled student's stored link.
type RosterService struct {
	blocks      blockSettingsReader
	store       linkStateStore
	enrollments enrollmentReader
	creds       credentialProvider
	client      formLinksFetcher
	policy      DueDatePolicy
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// NewRosterService constructs a RosterService.
func NewRosterService(blocks blockSettingsReader, store linkStateStore, enrollments enrollmentReader, creds credentialProvider, client formLinksFetcher, policy DueDatePolicy, metrics *MetricsService, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		blocks:      blocks,
		store:       store,
		enrollments: enrollments,
		creds:       creds,
		client:      client,
		policy:      policy,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// ShowScore resolves the block settings and credential, then aggregates the roster.
func (s *RosterService) ShowScore(ctx context.Context, courseID, blockID string) models.RosterResult {
	start := time.Now()
	result := s.showScore(ctx, courseID, blockID)
	result.GeneratedAt = s.now().UTC()
	s.metrics.ObserveRoster(string(result.Code), time.Since(start))
	return result
}

func (s *RosterService) showScore(ctx context.Context, courseID, blockID string) models.RosterResult {
	log := s.logger.With(zap.String("course_id", courseID), zap.String("block_id", blockID))

	settings, err := loadSettings(ctx, s.blocks, courseID, blockID)
	if err != nil {
		log.Warn("load block settings failed", zap.Error(err))
		return models.RosterResult{Code: models.RosterError}
	}
	if !settings.FormConfigured() {
		return models.RosterResult{Code: models.RosterError}
	}

	cred, ok := s.creds.Get(ctx, courseID)
	if !ok {
		return models.RosterResult{Code: models.RosterError}
	}

	result, err := s.Aggregate(ctx, *settings, toRemoteCredential(cred))
	if err != nil {
		log.Warn("roster aggregation failed", zap.Error(err))
		invalidateOnAuthFailure(ctx, s.creds, courseID, err)
	}
	return result
}

// Aggregate fetches the form's links once and emits one row per enrolled
// student, persisting refreshed scores for students whose link was found.
func (s *RosterService) Aggregate(ctx context.Context, settings models.BlockSettings, cred timify.Credential) (models.RosterResult, error) {
	statuses, err := s.client.FormLinks(ctx, cred, settings.IDForm)
	if err != nil {
		return models.RosterResult{Code: models.RosterError}, err
	}
	if len(statuses) == 0 {
		return models.RosterResult{Code: models.RosterNoLinks}, nil
	}

	byID := make(map[string]timify.LinkStatus, len(statuses))
	for _, status := range statuses {
		byID[status.ID] = status
	}

	students, err := s.enrollments.ListActiveStudents(ctx, settings.CourseID)
	if err != nil {
		return models.RosterResult{Code: models.RosterError}, err
	}

	closeAt := s.policy.EffectiveClose(settings)
	rows := make([]models.RosterRow, 0, len(students))
	for _, student := range students {
		row := models.RosterRow{
			UserID:   student.ID,
			Username: student.Username,
			Email:    student.Email,
			Label:    models.NoData,
			Score:    models.NoData,
			Late:     models.LatenessUnknown,
		}

		record, err := s.store.GetOrCreate(ctx, settings.CourseID, settings.BlockID, student.ID)
		if err != nil {
			s.logger.Warn("get or create link state failed", zap.String("course_id", settings.CourseID), zap.String("student_id", student.ID), zap.Error(err))
			rows = append(rows, row)
			continue
		}
		if record.State.IsEmpty() {
			rows = append(rows, row)
			continue
		}

		row.Label = record.State.NameLink
		status, found := byID[record.State.IDLink]
		if !found {
			row.Score = record.State.Score.String()
			rows = append(rows, row)
			continue
		}

		row.Late = s.policy.Lateness(status.FinishedAt, closeAt)
		if mergeRemoteStatus(&record.State, status) {
			if err := s.store.Save(ctx, record); err != nil {
				s.logger.Warn("save roster link state failed", zap.String("course_id", settings.CourseID), zap.String("student_id", student.ID), zap.Error(err))
			}
		}
		row.Score = record.State.Score.String()
		rows = append(rows, row)
	}

	return models.RosterResult{Code: models.RosterSuccess, Rows: rows}, nil
}
