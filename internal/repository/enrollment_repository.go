package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timify-bridge/internal/models"
)

// EnrollmentRepository reads the hosting platform's course membership.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListActiveStudents returns every active member of the course ordered by username.
func (r *EnrollmentRepository) ListActiveStudents(ctx context.Context, courseID string) ([]models.EnrolledStudent, error) {
	const query = `SELECT u.id, u.username, u.email
FROM users u
JOIN course_enrollments e ON e.user_id = u.id
WHERE e.course_id = $1 AND e.is_active = TRUE
ORDER BY u.username ASC`
	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}
