package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NoData is the placeholder shown, and persisted as a score, when nothing has been recorded.
const NoData = "Sin Registros"

// Score is either unset or a value reported by the assessment service.
type Score struct {
	value string
	set   bool
}

// RecordedScore wraps a reported score.
func RecordedScore(value string) Score {
	return Score{value: value, set: true}
}

// ScoreFromRemote maps a nullable remote score to a Score.
func ScoreFromRemote(value *string) Score {
	if value == nil {
		return Score{}
	}
	return RecordedScore(*value)
}

// IsSet reports whether a score was recorded.
func (s Score) IsSet() bool {
	return s.set
}

// String renders the score, using NoData when unset.
func (s Score) String() string {
	if !s.set {
		return NoData
	}
	return s.value
}

// MarshalJSON writes the placeholder for unset scores to stay compatible with stored records.
func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts strings, numbers and null.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Score{}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		var number json.Number
		if numErr := json.Unmarshal(data, &number); numErr != nil {
			return fmt.Errorf("score: %w", err)
		}
		text = number.String()
	}
	if text == NoData {
		*s = Score{}
		return nil
	}
	*s = RecordedScore(text)
	return nil
}

// LinkState is the per-student, per-block record of the student's assessment link.
// The zero value means the student was never linked.
type LinkState struct {
	IDForm   string  `json:"id_form"`
	IDLink   string  `json:"id_link"`
	Link     string  `json:"link"`
	NameLink string  `json:"name_link"`
	Score    Score   `json:"score"`
	Expired  *string `json:"expired"`
}

// IsEmpty reports whether the state holds no link.
func (s LinkState) IsEmpty() bool {
	return s.IDForm == "" && s.IDLink == "" && s.Link == "" && s.NameLink == "" && !s.Score.IsSet() && s.Expired == nil
}

// MatchesForm reports whether the state was created against the given form.
func (s LinkState) MatchesForm(formID string) bool {
	return !s.IsEmpty() && s.IDForm == formID
}

// Completed reports whether the remote service recorded a finish time.
func (s LinkState) Completed() bool {
	return s.Expired != nil
}

// FinishedAt parses the stored completion time.
func (s LinkState) FinishedAt() (time.Time, bool) {
	return ParseRemoteTime(s.Expired)
}

// MarshalJSON writes "{}" for an empty state and every key otherwise.
func (s LinkState) MarshalJSON() ([]byte, error) {
	if s.IsEmpty() {
		return []byte("{}"), nil
	}
	type plain LinkState
	return json.Marshal(plain(s))
}

// Value implements driver.Valuer so the state is stored as JSON text.
func (s LinkState) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (s *LinkState) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = LinkState{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("link state: unsupported type %T", src)
	}
	if len(data) == 0 {
		*s = LinkState{}
		return nil
	}
	var decoded LinkState
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("link state: %w", err)
	}
	*s = decoded
	return nil
}

// StudentLinkRecord is the durable row holding one student's LinkState for a block.
type StudentLinkRecord struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	BlockID   string    `db:"block_id"`
	StudentID string    `db:"student_id"`
	State     LinkState `db:"state"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ParseRemoteTime parses an ISO-8601 timestamp reported by the assessment service.
func ParseRemoteTime(raw *string) (time.Time, bool) {
	if raw == nil || *raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999Z07:00"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
