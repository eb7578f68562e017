package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timify-bridge/internal/dto"
	"github.com/noah-isme/timify-bridge/internal/middleware"
	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
	"github.com/noah-isme/timify-bridge/pkg/response"
)

type studentViewService interface {
	StudentView(ctx context.Context, courseID, blockID string, viewer models.Viewer) *dto.StudentView
}

type blockSettingsService interface {
	GetSettings(ctx context.Context, courseID, blockID string) (*models.BlockSettings, error)
	UpdateSettings(ctx context.Context, courseID, blockID string, req dto.UpdateBlockSettingsRequest, actor *models.JWTClaims) (*dto.ActionResult, error)
	AvailableForms(ctx context.Context, courseID string) []dto.FormOption
}

// BlockHandler exposes the block view and its studio actions.
type BlockHandler struct {
	links  studentViewService
	blocks blockSettingsService
}

// NewBlockHandler builds a new handler.
func NewBlockHandler(links studentViewService, blocks blockSettingsService) *BlockHandler {
	return &BlockHandler{links: links, blocks: blocks}
}

// View godoc
// @Summary Render context of a block for the caller
// @Tags Blocks
// @Produce json
// @Param courseId path string true "Course ID"
// @Param blockId path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/blocks/{blockId}/view [get]
func (h *BlockHandler) View(c *gin.Context) {
	view := h.links.StudentView(c.Request.Context(), c.Param("courseId"), c.Param("blockId"), viewerFromContext(c))
	if view.Degraded {
		middleware.SetMeta(c, "degraded", true)
	}
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// Settings godoc
// @Summary Get block settings
// @Tags Blocks
// @Produce json
// @Param courseId path string true "Course ID"
// @Param blockId path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/blocks/{blockId}/settings [get]
func (h *BlockHandler) Settings(c *gin.Context) {
	settings, err := h.blocks.GetSettings(c.Request.Context(), c.Param("courseId"), c.Param("blockId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, middleware.ExtractMeta(c))
}

// StudioSubmit godoc
// @Summary Save block configuration
// @Tags Blocks
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param blockId path string true "Block ID"
// @Param payload body dto.UpdateBlockSettingsRequest true "Block settings"
// @Success 200 {object} dto.ActionResult
// @Router /courses/{courseId}/blocks/{blockId}/studio_submit [post]
func (h *BlockHandler) StudioSubmit(c *gin.Context) {
	var req dto.UpdateBlockSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid block settings payload"))
		return
	}
	result, err := h.blocks.UpdateSettings(c.Request.Context(), c.Param("courseId"), c.Param("blockId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Legacy(c, result)
}

// Forms godoc
// @Summary List assessment forms for the studio picker
// @Tags Blocks
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/forms [get]
func (h *BlockHandler) Forms(c *gin.Context) {
	forms := h.blocks.AvailableForms(c.Request.Context(), c.Param("courseId"))
	response.JSON(c, http.StatusOK, forms, middleware.ExtractMeta(c))
}
