package dto

// StudentView is the render context of a block for the current viewer.
type StudentView struct {
	DisplayName   string `json:"display_name"`
	IsCourseStaff bool   `json:"is_course_staff"`
	Configured    bool   `json:"configured"`
	FormID        string `json:"id_form,omitempty"`
	Degraded      bool   `json:"degraded"`
	Linked        bool   `json:"timify"`
	Expired       bool   `json:"expired"`
	Done          bool   `json:"done"`
	Link          string `json:"link,omitempty"`
	NameLink      string `json:"name_link,omitempty"`
	Score         string `json:"score"`
	Late          string `json:"late,omitempty"`
}
