package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
	"github.com/noah-isme/timify-bridge/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var rosterHeaders = []string{"user_id", "username", "email", "label", "score", "late"}

type rosterAggregator interface {
	ShowScore(ctx context.Context, courseID, blockID string) models.RosterResult
}

type datasetRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered roster ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders roster aggregations as downloadable documents.
type ExportService struct {
	roster    rosterAggregator
	renderers map[string]datasetRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService; nil renderers use the pkg/export defaults.
func NewExportService(roster rosterAggregator, csv, pdf datasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		roster:    roster,
		renderers: map[string]datasetRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:    logger,
	}
}

// RosterExport aggregates the block roster and renders it in the requested format.
func (s *ExportService) RosterExport(ctx context.Context, courseID, blockID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	result := s.roster.ShowScore(ctx, courseID, blockID)
	switch result.Code {
	case models.RosterSuccess:
	case models.RosterNoLinks:
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "form has no links yet")
	default:
		return nil, appErrors.ErrBadGateway
	}

	generatedAt := result.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	dataset := export.Dataset{
		Title:   fmt.Sprintf("Roster %s %s (%s)", courseID, blockID, generatedAt.Format(time.RFC3339)),
		Headers: rosterHeaders,
		Rows:    make([][]string, 0, len(result.Rows)),
	}
	for _, row := range result.Rows {
		dataset.Rows = append(dataset.Rows, row.Cells())
	}

	payload, err := renderer.Render(dataset)
	if err != nil {
		s.logger.Error("render roster export failed", zap.String("course_id", courseID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("roster-%s-%s.%s", sanitizeFilename(blockID), generatedAt.Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func sanitizeFilename(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "block"
	}
	return b.String()
}
