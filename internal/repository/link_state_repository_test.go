package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timify-bridge/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var linkStateColumns = []string{"id", "course_id", "block_id", "student_id", "state", "created_at", "updated_at"}

func TestLinkStateRepositoryGetOrCreateReturnsEmptyState(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_link_states")).
		WithArgs(sqlmock.AnyArg(), "course-v1:eol+test+2024", "block-1", "student-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(linkStateColumns).
			AddRow("rec-1", "course-v1:eol+test+2024", "block-1", "student-1", "{}", now, now))

	repo := NewLinkStateRepository(db)
	record, err := repo.GetOrCreate(context.Background(), "course-v1:eol+test+2024", "block-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", record.ID)
	assert.True(t, record.State.IsEmpty())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkStateRepositoryGetOrCreateDecodesExistingState(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	stored := `{"id_form":"11223344","id_link":"1","link":"https://timify.me/link/testhash","name_link":"test","score":"Sin Registros","expired":null}`
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_link_states")).
		WillReturnRows(sqlmock.NewRows(linkStateColumns).
			AddRow("rec-1", "course-1", "block-1", "student-1", []byte(stored), now, now))

	repo := NewLinkStateRepository(db)
	record, err := repo.GetOrCreate(context.Background(), "course-1", "block-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, "11223344", record.State.IDForm)
	assert.Equal(t, "test", record.State.NameLink)
	assert.False(t, record.State.Score.IsSet())
	assert.Nil(t, record.State.Expired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkStateRepositoryFindMissingYieldsEmptyRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, block_id, student_id, state")).
		WithArgs("course-1", "block-1", "student-9").
		WillReturnError(sql.ErrNoRows)

	repo := NewLinkStateRepository(db)
	record, err := repo.Find(context.Background(), "course-1", "block-1", "student-9")
	require.NoError(t, err)
	assert.Empty(t, record.ID)
	assert.Equal(t, "student-9", record.StudentID)
	assert.True(t, record.State.IsEmpty())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkStateRepositorySave(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	record := &models.StudentLinkRecord{
		ID: "rec-1",
		State: models.LinkState{
			IDForm:   "11223344",
			IDLink:   "1",
			Link:     "https://timify.me/link/testhash",
			NameLink: "test",
		},
	}
	expected := `{"id_form":"11223344","id_link":"1","link":"https://timify.me/link/testhash","name_link":"test","score":"Sin Registros","expired":null}`
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_link_states SET state")).
		WithArgs(expected, sqlmock.AnyArg(), "rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewLinkStateRepository(db)
	require.NoError(t, repo.Save(context.Background(), record))
	assert.False(t, record.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkStateRepositorySaveUnknownRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_link_states SET state")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewLinkStateRepository(db)
	err := repo.Save(context.Background(), &models.StudentLinkRecord{ID: "missing"})
	require.ErrorIs(t, err, sql.ErrNoRows)
}
