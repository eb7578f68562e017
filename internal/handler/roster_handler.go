package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timify-bridge/internal/dto"
	"github.com/noah-isme/timify-bridge/internal/models"
	"github.com/noah-isme/timify-bridge/internal/service"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
	"github.com/noah-isme/timify-bridge/pkg/response"
)

type rosterService interface {
	ShowScore(ctx context.Context, courseID, blockID string) models.RosterResult
}

type rosterExporter interface {
	RosterExport(ctx context.Context, courseID, blockID, format string) (*service.ExportFile, error)
}

// RosterHandler exposes the instructor roster.
type RosterHandler struct {
	roster  rosterService
	exports rosterExporter
}

// NewRosterHandler builds a new handler.
func NewRosterHandler(roster rosterService, exports rosterExporter) *RosterHandler {
	return &RosterHandler{roster: roster, exports: exports}
}

// ShowScore godoc
// @Summary Aggregate scores and lateness of every enrolled student
// @Tags Roster
// @Produce json
// @Param courseId path string true "Course ID"
// @Param blockId path string true "Block ID"
// @Success 200 {object} dto.ShowScoreResponse
// @Router /courses/{courseId}/blocks/{blockId}/show_score [post]
func (h *RosterHandler) ShowScore(c *gin.Context) {
	result := h.roster.ShowScore(c.Request.Context(), c.Param("courseId"), c.Param("blockId"))
	body := dto.ShowScoreResponse{Result: string(result.Code)}
	if result.Code == models.RosterSuccess {
		body.ListStudent = result.Rows
		if body.ListStudent == nil {
			body.ListStudent = []models.RosterRow{}
		}
	}
	response.Legacy(c, body)
}

// Export godoc
// @Summary Download the roster as CSV or PDF
// @Tags Roster
// @Produce octet-stream
// @Param courseId path string true "Course ID"
// @Param blockId path string true "Block ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /courses/{courseId}/blocks/{blockId}/roster/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	var query dto.RosterExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.exports.RosterExport(c.Request.Context(), c.Param("courseId"), c.Param("blockId"), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}
