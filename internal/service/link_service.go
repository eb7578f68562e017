package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/timify-bridge/internal/dto"
	"github.com/noah-isme/timify-bridge/internal/models"
	"github.com/noah-isme/timify-bridge/pkg/timify"
)

type linkStateStore interface {
	GetOrCreate(ctx context.Context, courseID, blockID, studentID string) (*models.StudentLinkRecord, error)
	Find(ctx context.Context, courseID, blockID, studentID string) (*models.StudentLinkRecord, error)
	Save(ctx context.Context, record *models.StudentLinkRecord) error
}

type linkClient interface {
	CreateLinks(ctx context.Context, cred timify.Credential, req timify.CreateLinksRequest) ([]timify.Link, error)
	FormLinks(ctx context.Context, cred timify.Credential, formID string) ([]timify.LinkStatus, error)
}

// LinkServiceConfig tunes link rendering.
type LinkServiceConfig struct {
	LinkBaseURL string
}

// LinkService reconciles a student's stored link with the configured form and the remote service.
type LinkService struct {
	blocks  blockSettingsReader
	store   linkStateStore
	creds   credentialProvider
	client  linkClient
	policy  DueDatePolicy
	metrics *MetricsService
	cfg     LinkServiceConfig
	logger  *zap.Logger
}

// NewLinkService constructs a LinkService.
func NewLinkService(blocks blockSettingsReader, store linkStateStore, creds credentialProvider, client linkClient, policy DueDatePolicy, metrics *MetricsService, cfg LinkServiceConfig, logger *zap.Logger) *LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LinkBaseURL == "" {
		cfg.LinkBaseURL = "https://timify.me/link/"
	}
	return &LinkService{
		blocks:  blocks,
		store:   store,
		creds:   creds,
		client:  client,
		policy:  policy,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

// StudentView builds the render context of a block for the viewer. Every
// failure degrades the view; nothing is returned as an error.
func (s *LinkService) StudentView(ctx context.Context, courseID, blockID string, viewer models.Viewer) *dto.StudentView {
	log := s.logger.With(zap.String("course_id", courseID), zap.String("block_id", blockID), zap.String("student_id", viewer.UserID))

	settings, err := loadSettings(ctx, s.blocks, courseID, blockID)
	if err != nil {
		log.Warn("load block settings failed", zap.Error(err))
		defaults := models.DefaultBlockSettings(courseID, blockID)
		view := newStudentView(defaults)
		view.Degraded = true
		return view
	}

	view := newStudentView(*settings)
	if viewer.ShowsStaffInterface() {
		view.IsCourseStaff = true
		return view
	}
	if !settings.FormConfigured() {
		return view
	}
	// Studio previews and tokens without a user carry no per-student state.
	if viewer.UserID == "" {
		return view
	}

	if s.policy.IsPastDue(*settings) {
		view.Expired = true
		record, err := s.store.Find(ctx, courseID, blockID, viewer.UserID)
		if err != nil {
			log.Warn("read link state failed", zap.Error(err))
			return view
		}
		if !record.State.IsEmpty() {
			view.Score = record.State.Score.String()
		}
		return view
	}

	cred, ok := s.creds.Get(ctx, courseID)
	if !ok {
		view.Degraded = true
		return view
	}

	record, err := s.store.GetOrCreate(ctx, courseID, blockID, viewer.UserID)
	if err != nil {
		log.Warn("get or create link state failed", zap.Error(err))
		view.Degraded = true
		return view
	}

	if !record.State.MatchesForm(settings.IDForm) {
		s.createLink(ctx, log, view, *settings, record, cred, viewer)
		return view
	}
	s.pollLink(ctx, log, view, *settings, record, cred)
	return view
}

func (s *LinkService) createLink(ctx context.Context, log *zap.Logger, view *dto.StudentView, settings models.BlockSettings, record *models.StudentLinkRecord, cred *models.CourseCredential, viewer models.Viewer) {
	if viewer.Username == "" {
		log.Warn("viewer has no username to label the link")
		return
	}
	links, err := s.client.CreateLinks(ctx, toRemoteCredential(cred), timify.CreateLinksRequest{
		Labels:     []string{viewer.Username},
		ExpiresIn:  settings.ExpiresInSeconds(),
		ForceClose: settings.ForceClose(),
		FormID:     settings.IDForm,
	})
	if err != nil {
		log.Warn("create timify link failed", zap.Error(err))
		invalidateOnAuthFailure(ctx, s.creds, settings.CourseID, err)
		return
	}
	if len(links) == 0 {
		log.Warn("timify returned no links for create")
		return
	}

	created := links[0]
	record.State = models.LinkState{
		IDForm:   settings.IDForm,
		IDLink:   created.ID,
		Link:     created.Hash,
		NameLink: created.Label,
	}
	if err := s.store.Save(ctx, record); err != nil {
		log.Warn("save link state failed", zap.Error(err))
		return
	}
	s.metrics.RecordLinkCreated()

	s.fillLinked(view, record.State)
	view.Done = false
	view.Late = string(models.LatenessUnknown)
}

func (s *LinkService) pollLink(ctx context.Context, log *zap.Logger, view *dto.StudentView, settings models.BlockSettings, record *models.StudentLinkRecord, cred *models.CourseCredential) {
	statuses, err := s.client.FormLinks(ctx, toRemoteCredential(cred), settings.IDForm)
	if err != nil {
		log.Warn("poll timify link failed", zap.Error(err))
		invalidateOnAuthFailure(ctx, s.creds, settings.CourseID, err)
	} else {
		for _, status := range statuses {
			if status.ID != record.State.IDLink {
				continue
			}
			view.Done = status.Finished()
			if mergeRemoteStatus(&record.State, status) {
				if err := s.store.Save(ctx, record); err != nil {
					log.Warn("save polled link state failed", zap.Error(err))
				}
			}
			break
		}
	}

	s.fillLinked(view, record.State)
	view.Late = string(s.policy.Lateness(record.State.Expired, s.policy.EffectiveClose(settings)))
}

func (s *LinkService) fillLinked(view *dto.StudentView, state models.LinkState) {
	view.Linked = true
	view.Link = timify.LinkURL(s.cfg.LinkBaseURL, state.Link)
	view.NameLink = state.NameLink
	view.FormID = state.IDForm
	view.Score = state.Score.String()
}

// mergeRemoteStatus copies the remote score and finish time into state and reports whether anything changed.
func mergeRemoteStatus(state *models.LinkState, status timify.LinkStatus) bool {
	score := models.ScoreFromRemote(status.Score)
	changed := score != state.Score || !sameTimestamp(state.Expired, status.FinishedAt)
	state.Score = score
	state.Expired = copyString(status.FinishedAt)
	return changed
}

func newStudentView(settings models.BlockSettings) *dto.StudentView {
	return &dto.StudentView{
		DisplayName: settings.DisplayName,
		Configured:  settings.FormConfigured(),
		FormID:      settings.IDForm,
		Score:       models.NoData,
	}
}

func sameTimestamp(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
