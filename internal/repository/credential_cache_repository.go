package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
)

// CredentialKey returns the cache key of a course's shared credential.
func CredentialKey(courseID string) string {
	return fmt.Sprintf("timify:course:%s:credential", courseID)
}

// CredentialCacheRepository keeps course credentials in Redis so every API
// replica shares one slot per course.
type CredentialCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCredentialCacheRepository constructs a Redis-backed credential store.
func NewCredentialCacheRepository(client *redis.Client, logger *zap.Logger) *CredentialCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialCacheRepository{client: client, logger: logger}
}

// Get returns the cached credential or appErrors.ErrCacheMiss.
func (r *CredentialCacheRepository) Get(ctx context.Context, courseID string) (*models.CourseCredential, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	key := CredentialKey(courseID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var cred models.CourseCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		r.logger.Warn("dropping undecodable credential", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, appErrors.ErrCacheMiss
	}
	return &cred, nil
}

// Set stores the credential with the given TTL, replacing whatever was there.
func (r *CredentialCacheRepository) Set(ctx context.Context, cred *models.CourseCredential, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential for %s: %w", cred.CourseID, err)
	}
	key := CredentialKey(cred.CourseID)
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete evicts the course's credential.
func (r *CredentialCacheRepository) Delete(ctx context.Context, courseID string) error {
	if r.client == nil {
		return nil
	}
	key := CredentialKey(courseID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CredentialCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
