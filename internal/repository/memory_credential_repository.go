package repository

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
)

type credentialEntry struct {
	credential models.CourseCredential
	expiresAt  time.Time
}

// MemoryCredentialRepository is a process-local credential store with TTL eviction.
// Writers replace the whole slot, so the last writer wins.
type MemoryCredentialRepository struct {
	mu      sync.RWMutex
	entries map[string]credentialEntry
	now     func() time.Time
}

// NewMemoryCredentialRepository constructs an empty store.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{entries: make(map[string]credentialEntry), now: time.Now}
}

// Get returns the live credential or appErrors.ErrCacheMiss.
func (r *MemoryCredentialRepository) Get(ctx context.Context, courseID string) (*models.CourseCredential, error) {
	r.mu.RLock()
	entry, ok := r.entries[courseID]
	r.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	if !r.now().Before(entry.expiresAt) {
		r.mu.Lock()
		if current, still := r.entries[courseID]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(r.entries, courseID)
		}
		r.mu.Unlock()
		return nil, appErrors.ErrCacheMiss
	}
	cred := entry.credential
	return &cred, nil
}

// Set stores the credential for ttl.
func (r *MemoryCredentialRepository) Set(ctx context.Context, cred *models.CourseCredential, ttl time.Duration) error {
	r.mu.Lock()
	r.entries[cred.CourseID] = credentialEntry{credential: *cred, expiresAt: r.now().Add(ttl)}
	r.mu.Unlock()
	return nil
}

// Delete evicts the course's credential.
func (r *MemoryCredentialRepository) Delete(ctx context.Context, courseID string) error {
	r.mu.Lock()
	delete(r.entries, courseID)
	r.mu.Unlock()
	return nil
}
