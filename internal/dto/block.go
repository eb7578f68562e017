package dto

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexibleInt accepts a JSON number or a numeric string. Anything else decodes as unset.
type FlexibleInt struct {
	Value int
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	*f = FlexibleInt{}
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if fl, ferr := strconv.ParseFloat(raw, 64); ferr == nil {
			n = int(fl)
		} else {
			return nil
		}
	}
	f.Value = n
	f.Valid = true
	return nil
}

// OptionalTime tells an omitted key apart from an explicit null. Set is true
// whenever the key was present; Value is nil for null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	*o = OptionalTime{Set: true}
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// OptionalInt tells an omitted key apart from an explicit null.
type OptionalInt struct {
	Set   bool
	Value *int
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	*o = OptionalInt{Set: true}
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	o.Value = &n
	return nil
}

// UpdateBlockSettingsRequest is the studio "save configuration" payload.
type UpdateBlockSettingsRequest struct {
	DisplayName        string       `json:"display_name" validate:"max=255"`
	Duration           FlexibleInt  `json:"duration"`
	Autoclose          string       `json:"autoclose" validate:"max=8"`
	IDForm             string       `json:"idform" validate:"max=64"`
	Due                OptionalTime `json:"due"`
	GracePeriodSeconds OptionalInt  `json:"grace_period_seconds" validate:"omitempty,min=0"`
}

// ResultSuccess is the result value of a completed block action.
const ResultSuccess = "success"

// ActionResult is the bare result body block actions answer with.
type ActionResult struct {
	Result string `json:"result"`
}

// FormOption is one entry of the studio form picker.
type FormOption struct {
	DisplayName string `json:"display_name"`
	Value       string `json:"value"`
}
