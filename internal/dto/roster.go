package dto

import "github.com/noah-isme/timify-bridge/internal/models"

// ShowScoreResponse is the body of the show_score block action.
type ShowScoreResponse struct {
	Result      string             `json:"result"`
	ListStudent []models.RosterRow `json:"list_student,omitempty"`
}

// RosterExportQuery selects the export format.
type RosterExportQuery struct {
	Format string `form:"format"`
}
