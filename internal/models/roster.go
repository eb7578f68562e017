package models

import (
	"encoding/json"
	"time"
)

// Lateness is the three-valued result of comparing a finish time to the close time.
type Lateness string

const (
	LatenessYes     Lateness = "Yes"
	LatenessNo      Lateness = "No"
	LatenessUnknown Lateness = NoData
)

// RosterResultCode is the outcome of a roster aggregation.
type RosterResultCode string

const (
	RosterSuccess RosterResultCode = "success"
	// RosterError covers credential and transport failures.
	RosterError RosterResultCode = "error"
	// RosterNoLinks means the form exists remotely but has no links yet.
	RosterNoLinks RosterResultCode = "error2"
)

// RosterRow is one enrolled student's line in the instructor roster.
type RosterRow struct {
	UserID   string
	Username string
	Email    string
	Label    string
	Score    string
	Late     Lateness
}

// Cells returns the row in column order.
func (r RosterRow) Cells() []string {
	return []string{r.UserID, r.Username, r.Email, r.Label, r.Score, string(r.Late)}
}

// MarshalJSON encodes the row as a positional array, the shape the block UI reads.
func (r RosterRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Cells())
}

// RosterResult is the outcome of aggregating a form's links against the enrolled students.
type RosterResult struct {
	Code        RosterResultCode
	Rows        []RosterRow
	GeneratedAt time.Time
}
