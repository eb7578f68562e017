package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
)

type rosterStub struct {
	result models.RosterResult
	calls  int
}

func (s *rosterStub) ShowScore(ctx context.Context, courseID, blockID string) models.RosterResult {
	s.calls++
	return s.result
}

func sampleRoster() models.RosterResult {
	return models.RosterResult{
		Code:        models.RosterSuccess,
		GeneratedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		Rows: []models.RosterRow{
			{UserID: "10", Username: "ana", Email: "ana@example.com", Label: "ana", Score: "7", Late: models.LatenessNo},
		},
	}
}

func TestExportServiceRosterCSV(t *testing.T) {
	svc := NewExportService(&rosterStub{result: sampleRoster()}, nil, nil, nil)

	file, err := svc.RosterExport(context.Background(), "course-1", "block+1", "")
	require.NoError(t, err)
	assert.Equal(t, "roster-block_1-20240310-120000.csv", file.Filename)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/csv"))
	assert.Contains(t, string(file.Payload), "user_id,username,email,label,score,late")
	assert.Contains(t, string(file.Payload), "10,ana,ana@example.com,ana,7,No")
}

func TestExportServiceRosterPDF(t *testing.T) {
	svc := NewExportService(&rosterStub{result: sampleRoster()}, nil, nil, nil)

	file, err := svc.RosterExport(context.Background(), "course-1", "block-1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Payload), "%PDF"))
}

func TestExportServiceRosterFailures(t *testing.T) {
	roster := &rosterStub{result: models.RosterResult{Code: models.RosterNoLinks}}
	svc := NewExportService(roster, nil, nil, nil)

	_, err := svc.RosterExport(context.Background(), "course-1", "block-1", "csv")
	require.ErrorIs(t, err, appErrors.ErrPreconditionFailed)

	roster.result = models.RosterResult{Code: models.RosterError}
	_, err = svc.RosterExport(context.Background(), "course-1", "block-1", "csv")
	require.ErrorIs(t, err, appErrors.ErrBadGateway)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	roster := &rosterStub{result: sampleRoster()}
	svc := NewExportService(roster, nil, nil, nil)

	_, err := svc.RosterExport(context.Background(), "course-1", "block-1", "xlsx")
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, roster.calls)
}
