package service

import (
	"time"

	"github.com/noah-isme/timify-bridge/internal/models"
)

// DueDatePolicy gates the block on its close time and classifies submissions as late.
type DueDatePolicy struct {
	now func() time.Time
}

// NewDueDatePolicy constructs a policy; a nil clock uses time.Now.
func NewDueDatePolicy(now func() time.Time) DueDatePolicy {
	if now == nil {
		now = time.Now
	}
	return DueDatePolicy{now: now}
}

// EffectiveClose is the due date plus grace period, the due date alone, or nil when the block never closes.
func (p DueDatePolicy) EffectiveClose(settings models.BlockSettings) *time.Time {
	if settings.DueAt == nil {
		return nil
	}
	closeAt := *settings.DueAt
	if grace := settings.GracePeriod(); grace != nil {
		closeAt = closeAt.Add(*grace)
	}
	return &closeAt
}

// IsPastDue reports whether the current time is after the effective close time.
func (p DueDatePolicy) IsPastDue(settings models.BlockSettings) bool {
	closeAt := p.EffectiveClose(settings)
	if closeAt == nil {
		return false
	}
	return p.clock().After(*closeAt)
}

// Lateness compares a remote finish timestamp to the close time. Either side
// missing or unparseable yields LatenessUnknown.
func (p DueDatePolicy) Lateness(finishedAt *string, closeAt *time.Time) models.Lateness {
	if closeAt == nil {
		return models.LatenessUnknown
	}
	finished, ok := models.ParseRemoteTime(finishedAt)
	if !ok {
		return models.LatenessUnknown
	}
	if finished.After(*closeAt) {
		return models.LatenessYes
	}
	return models.LatenessNo
}

func (p DueDatePolicy) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}
