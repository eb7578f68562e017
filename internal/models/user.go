package models

// UserRole is the caller's role within the course, as asserted by the hosting platform.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleStaff      UserRole = "staff"
	RoleInstructor UserRole = "instructor"
)

// IsCourseStaff reports whether the role may see the roster and edit the block.
func (r UserRole) IsCourseStaff() bool {
	return r == RoleStaff || r == RoleInstructor
}

// EnrolledStudent is an active member of a course.
type EnrolledStudent struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
}

// Viewer is the person rendering a block.
type Viewer struct {
	UserID   string
	Username string
	Email    string
	Role     UserRole
}

// ShowsStaffInterface reports whether the staff grading view applies. Studio previews carry no user id.
func (v Viewer) ShowsStaffInterface() bool {
	return v.Role.IsCourseStaff() && v.UserID != ""
}
