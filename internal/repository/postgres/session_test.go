package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_Load(t *testing.T) {
	db, smock := newMockDB(t)
	repo := NewSessionRepository(db, discardLogger(), time.Hour)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	smock.ExpectQuery(`SELECT issue_id, version FROM edit_session_versions WHERE session_id = \$1 AND updated_at > \$2`).
		WithArgs("s1", now.Add(-time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"issue_id", "version"}).AddRow(int64(7), 3))

	session, err := repo.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)

	version, ok := session.Seen(7)
	assert.True(t, ok)
	assert.Equal(t, 3, version)
	assert.False(t, session.Modified())
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestSessionRepository_Save(t *testing.T) {
	db, smock := newMockDB(t)
	repo := NewSessionRepository(db, discardLogger(), time.Hour)

	session := concurrency.NewSession("s1", map[int64]int{2: 1})
	session.BeginEdit(1, 4)
	require.NoError(t, session.CheckAndConsume(2, 1))

	smock.ExpectBegin()
	smock.ExpectExec(`INSERT INTO edit_session_versions \(session_id,issue_id,version,updated_at\) VALUES \(\$1,\$2,\$3,\$4\) ON CONFLICT \(session_id, issue_id\) DO UPDATE`).
		WithArgs("s1", int64(1), 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectExec(`DELETE FROM edit_session_versions WHERE issue_id = \$1 AND session_id = \$2`).
		WithArgs(int64(2), "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	smock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), session))
	assert.False(t, session.Modified())

	require.NoError(t, repo.Save(context.Background(), session), "nothing left to write")
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestSessionRepository_SaveRollsBackOnError(t *testing.T) {
	db, smock := newMockDB(t)
	repo := NewSessionRepository(db, discardLogger(), 0)

	session := concurrency.NewSession("s1", nil)
	session.BeginEdit(1, 1)

	smock.ExpectBegin()
	smock.ExpectExec(`INSERT INTO edit_session_versions`).WillReturnError(assert.AnError)
	smock.ExpectRollback()

	err := repo.Save(context.Background(), session)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db, smock := newMockDB(t)
	repo := NewSessionRepository(db, discardLogger(), 12*time.Hour)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	smock.ExpectExec(`DELETE FROM edit_session_versions WHERE updated_at <= \$1`).
		WithArgs(now.Add(-12 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	removed, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)
	assert.NoError(t, smock.ExpectationsWereMet())
}
