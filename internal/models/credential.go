package models

import "time"

// CourseCredential is the service session shared by every student of a course.
type CourseCredential struct {
	CourseID     string    `json:"course_id"`
	SessionToken string    `json:"session_token"`
	APIKey       string    `json:"api_key"`
	ObtainedAt   time.Time `json:"obtained_at"`
}
