package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, func() { db.Close() }
}

func userRows(id wire.UserID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "display_name", "profile_version", "password_hash", "hash_scheme",
		"permission_flags", "admin_permissions", "banned", "locked", "compromised", "created_at",
	}).AddRow(id.String(), "alice", "Alice", 3, "hash", 2, int64(wire.PermAll), int64(0), false, false, false, time.Now())
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	id := wire.UserID(uuid.New())
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(id).
		WillReturnRows(userRows(id))

	user, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, wire.ProfileVersion(3), user.ProfileVersion)
	assert.Equal(t, auth.HashSchemeVersion(2), user.HashSchemeVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	id := wire.UserID(uuid.New())
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresCreateDuplicate(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(assert.AnError)
	_, err := repo.Create(context.Background(), &models.User{ID: wire.UserID(uuid.New()), Username: "alice"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrDuplicate)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&mockPgError{msg: `duplicate key value violates unique constraint "users_username_key"`})
	_, err = repo.Create(context.Background(), &models.User{ID: wire.UserID(uuid.New()), Username: "alice"})
	assert.ErrorIs(t, err, common.ErrDuplicate)
}

type mockPgError struct{ msg string }

func (e *mockPgError) Error() string { return e.msg }

func TestPostgresUpdatePassword(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	id := wire.UserID(uuid.New())
	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs(id, "newhash", auth.LatestScheme).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), id, "newhash", auth.LatestScheme))

	mock.ExpectExec("UPDATE users SET password_hash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdatePassword(context.Background(), id, "newhash", auth.LatestScheme)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresSearchByNameNormalizes(t *testing.T) {
	repo, mock, closeDB := newMockRepo(t)
	defer closeDB()

	id := wire.UserID(uuid.New())
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username LIKE").
		WithArgs("alice").
		WillReturnRows(userRows(id))

	found, err := repo.SearchByName(context.Background(), "ALICE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice", found[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
