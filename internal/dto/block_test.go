package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleIntDecoding(t *testing.T) {
	tests := []struct {
		raw   string
		value int
		valid bool
	}{
		{raw: `{"duration":"200"}`, value: 200, valid: true},
		{raw: `{"duration":90}`, value: 90, valid: true},
		{raw: `{"duration":"abc"}`, valid: false},
		{raw: `{"duration":null}`, valid: false},
		{raw: `{}`, valid: false},
	}
	for _, tt := range tests {
		var req UpdateBlockSettingsRequest
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &req))
		assert.Equal(t, tt.valid, req.Duration.Valid, tt.raw)
		assert.Equal(t, tt.value, req.Duration.Value, tt.raw)
	}
}

func TestOptionalScheduleFields(t *testing.T) {
	var omitted UpdateBlockSettingsRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &omitted))
	assert.False(t, omitted.Due.Set)
	assert.False(t, omitted.GracePeriodSeconds.Set)

	var cleared UpdateBlockSettingsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"due":null,"grace_period_seconds":null}`), &cleared))
	assert.True(t, cleared.Due.Set)
	assert.Nil(t, cleared.Due.Value)
	assert.True(t, cleared.GracePeriodSeconds.Set)
	assert.Nil(t, cleared.GracePeriodSeconds.Value)

	var set UpdateBlockSettingsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-06-01T00:00:00Z","grace_period_seconds":30}`), &set))
	require.NotNil(t, set.Due.Value)
	assert.Equal(t, 2024, set.Due.Value.Year())
	require.NotNil(t, set.GracePeriodSeconds.Value)
	assert.Equal(t, 30, *set.GracePeriodSeconds.Value)

	var bad UpdateBlockSettingsRequest
	assert.Error(t, json.Unmarshal([]byte(`{"due":"tomorrow"}`), &bad))
}
