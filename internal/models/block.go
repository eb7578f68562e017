package models

import "time"

// Block defaults applied when a block has never been configured.
const (
	DefaultDisplayName = "Eol Timify XBlock"
	DefaultDuration    = 120
	AutocloseYes       = "Si"
	AutocloseNo        = "No"
)

// BlockSettings is the instructor-editable configuration of one block instance
// together with the schedule the hosting platform assigns to it.
type BlockSettings struct {
	CourseID           string     `db:"course_id" json:"course_id"`
	BlockID            string     `db:"block_id" json:"block_id"`
	DisplayName        string     `db:"display_name" json:"display_name"`
	Duration           int        `db:"duration" json:"duration"`
	Autoclose          string     `db:"autoclose" json:"autoclose"`
	IDForm             string     `db:"idform" json:"idform"`
	DueAt              *time.Time `db:"due_at" json:"due,omitempty"`
	GracePeriodSeconds *int       `db:"grace_period_seconds" json:"grace_period_seconds,omitempty"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// DefaultBlockSettings returns the settings of a block nobody has edited yet.
func DefaultBlockSettings(courseID, blockID string) BlockSettings {
	return BlockSettings{
		CourseID:    courseID,
		BlockID:     blockID,
		DisplayName: DefaultDisplayName,
		Duration:    DefaultDuration,
		Autoclose:   AutocloseYes,
	}
}

// FormConfigured reports whether an assessment form has been picked.
func (b BlockSettings) FormConfigured() bool {
	return b.IDForm != ""
}

// ForceClose mirrors the auto-close setting as the remote service expects it.
func (b BlockSettings) ForceClose() bool {
	return b.Autoclose == AutocloseYes
}

// ExpiresInSeconds is the link lifetime; invalid stored values fall back to the default.
func (b BlockSettings) ExpiresInSeconds() int {
	if b.Duration <= 0 {
		return DefaultDuration
	}
	return b.Duration
}

// GracePeriod returns the configured grace period, if any.
func (b BlockSettings) GracePeriod() *time.Duration {
	if b.GracePeriodSeconds == nil {
		return nil
	}
	d := time.Duration(*b.GracePeriodSeconds) * time.Second
	return &d
}
