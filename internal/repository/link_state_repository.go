package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timify-bridge/internal/models"
)

// LinkStateRepository is the durable per-(student, block) store of link states.
type LinkStateRepository struct {
	db *sqlx.DB
}

// NewLinkStateRepository constructs the repository.
func NewLinkStateRepository(db *sqlx.DB) *LinkStateRepository {
	return &LinkStateRepository{db: db}
}

// GetOrCreate returns the student's record, creating an empty one on first use.
// Concurrent calls for the same student converge on a single row.
func (r *LinkStateRepository) GetOrCreate(ctx context.Context, courseID, blockID, studentID string) (*models.StudentLinkRecord, error) {
	const query = `INSERT INTO student_link_states (id, course_id, block_id, student_id, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, '{}', $5, $5)
ON CONFLICT (course_id, block_id, student_id)
DO UPDATE SET student_id = EXCLUDED.student_id
RETURNING id, course_id, block_id, student_id, state, created_at, updated_at`
	var record models.StudentLinkRecord
	if err := r.db.GetContext(ctx, &record, query, uuid.NewString(), courseID, blockID, studentID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("get or create link state: %w", err)
	}
	return &record, nil
}

// Find returns the student's record without creating it; a missing record yields an empty state.
func (r *LinkStateRepository) Find(ctx context.Context, courseID, blockID, studentID string) (*models.StudentLinkRecord, error) {
	const query = `SELECT id, course_id, block_id, student_id, state, created_at, updated_at
FROM student_link_states WHERE course_id = $1 AND block_id = $2 AND student_id = $3`
	var record models.StudentLinkRecord
	if err := r.db.GetContext(ctx, &record, query, courseID, blockID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.StudentLinkRecord{CourseID: courseID, BlockID: blockID, StudentID: studentID}, nil
		}
		return nil, fmt.Errorf("find link state: %w", err)
	}
	return &record, nil
}

// Save overwrites the stored state of an existing record.
func (r *LinkStateRepository) Save(ctx context.Context, record *models.StudentLinkRecord) error {
	const query = `UPDATE student_link_states SET state = $1, updated_at = $2 WHERE id = $3`
	record.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, record.State, record.UpdatedAt, record.ID)
	if err != nil {
		return fmt.Errorf("save link state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("save link state %s: %w", record.ID, sql.ErrNoRows)
	}
	return nil
}
