package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
	"github.com/noah-isme/timify-bridge/pkg/timify"
)

type credentialStore interface {
	Get(ctx context.Context, courseID string) (*models.CourseCredential, error)
	Set(ctx context.Context, cred *models.CourseCredential, ttl time.Duration) error
	Delete(ctx context.Context, courseID string) error
}

type sessionAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	FetchSession(ctx context.Context, sessionToken string) (string, error)
}

// CredentialServiceConfig carries the service account and cache TTL.
type CredentialServiceConfig struct {
	Username string
	Password string
	TTL      time.Duration
}

// CredentialService resolves the per-course session shared by every student of a course.
type CredentialService struct {
	store   credentialStore
	client  sessionAuthenticator
	metrics *MetricsService
	cfg     CredentialServiceConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(store credentialStore, client sessionAuthenticator, metrics *MetricsService, cfg CredentialServiceConfig, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &CredentialService{store: store, client: client, metrics: metrics, cfg: cfg, logger: logger, now: time.Now}
}

// Get returns the course credential, authenticating on a miss. The boolean is
// false when no credential could be obtained; callers degrade instead of failing.
func (s *CredentialService) Get(ctx context.Context, courseID string) (*models.CourseCredential, bool) {
	start := time.Now()
	cached, err := s.store.Get(ctx, courseID)
	if err == nil && cached != nil {
		s.metrics.RecordCredentialLookup(true, time.Since(start))
		return cached, true
	}
	s.metrics.RecordCredentialLookup(false, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("credential cache lookup failed", zap.String("course_id", courseID), zap.Error(err))
	}

	if s.cfg.Username == "" || s.cfg.Password == "" {
		s.logger.Warn("timify service account not configured", zap.String("course_id", courseID))
		return nil, false
	}

	sessionToken, err := s.client.Authenticate(ctx, s.cfg.Username, s.cfg.Password)
	if err != nil {
		s.logger.Warn("timify authentication failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, false
	}
	apiKey, err := s.client.FetchSession(ctx, sessionToken)
	if err != nil {
		s.logger.Warn("timify session lookup failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, false
	}

	cred := &models.CourseCredential{
		CourseID:     courseID,
		SessionToken: sessionToken,
		APIKey:       apiKey,
		ObtainedAt:   s.now().UTC(),
	}
	if err := s.store.Set(ctx, cred, s.cfg.TTL); err != nil {
		s.logger.Warn("credential cache write failed", zap.String("course_id", courseID), zap.Error(err))
	}
	return cred, true
}

// Invalidate drops the cached credential so the next request re-authenticates.
func (s *CredentialService) Invalidate(ctx context.Context, courseID string) {
	if err := s.store.Delete(ctx, courseID); err != nil {
		s.logger.Warn("credential cache delete failed", zap.String("course_id", courseID), zap.Error(err))
	}
}

// invalidateOnAuthFailure drops the course credential when err is a 401/403 from the remote service.
func invalidateOnAuthFailure(ctx context.Context, creds credentialProvider, courseID string, err error) {
	if creds != nil && timify.IsUnauthorized(err) {
		creds.Invalidate(ctx, courseID)
	}
}

func toRemoteCredential(cred *models.CourseCredential) timify.Credential {
	return timify.Credential{SessionToken: cred.SessionToken, APIKey: cred.APIKey}
}
