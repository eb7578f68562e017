package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timify-bridge/internal/models"
)

// BlockRepository persists block settings.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository constructs the repository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// Find returns the settings of a block or sql.ErrNoRows when it was never saved.
func (r *BlockRepository) Find(ctx context.Context, courseID, blockID string) (*models.BlockSettings, error) {
	const query = `SELECT course_id, block_id, display_name, duration, autoclose, idform, due_at, grace_period_seconds, updated_at
FROM blocks WHERE course_id = $1 AND block_id = $2`
	var settings models.BlockSettings
	if err := r.db.GetContext(ctx, &settings, query, courseID, blockID); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert stores the settings, replacing any previous version.
func (r *BlockRepository) Upsert(ctx context.Context, settings *models.BlockSettings) error {
	const query = `INSERT INTO blocks (course_id, block_id, display_name, duration, autoclose, idform, due_at, grace_period_seconds, updated_at)
VALUES (:course_id, :block_id, :display_name, :duration, :autoclose, :idform, :due_at, :grace_period_seconds, :updated_at)
ON CONFLICT (course_id, block_id)
DO UPDATE SET display_name = EXCLUDED.display_name, duration = EXCLUDED.duration, autoclose = EXCLUDED.autoclose,
              idform = EXCLUDED.idform, due_at = EXCLUDED.due_at, grace_period_seconds = EXCLUDED.grace_period_seconds,
              updated_at = EXCLUDED.updated_at`
	settings.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert block settings: %w", err)
	}
	return nil
}
