package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uok-ict/portal-api/internal/models"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
)

func userRow(id, username string, role models.UserRole) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userTestColumns).AddRow(
		id, username, "ada@example.com", "$2a$10$hash", "Ada Lovelace",
		role, "applicant", true, nil, now, now,
	)
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "REG1234", "ada@example.com", "$2a$10$hash", "Ada Lovelace",
			models.RoleStudent, models.StudentStatusApplicant, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{
		Username:      "REG1234",
		Email:         "ada@example.com",
		PasswordHash:  "$2a$10$hash",
		FullName:      "Ada Lovelace",
		Role:          models.RoleStudent,
		StudentStatus: models.StudentStatusApplicant,
		Active:        true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDuplicateUsernameIsTransient(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Username: "REG1234"})
	require.Error(t, err)
	assert.True(t, appErrors.IsTransient(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)SELECT (.+) FROM users WHERE username = \$1 LIMIT 1`).
		WithArgs("26000001").
		WillReturnRows(userRow("user-1", "26000001", models.RoleStudent))

	user, err := repo.FindByUsername(context.Background(), "26000001")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE username = \$1\)`).
		WithArgs("26000001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := repo.ExistsUsername(context.Background(), "26000001")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpsertStudentTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT INTO users (.+) ON CONFLICT \(username\) DO UPDATE SET`).
		WithArgs(sqlmock.AnyArg(), "26000001", "ada@example.com", "$2a$10$hash", "Ada Lovelace",
			models.RoleStudent, models.StudentStatusEnrolled, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.UpsertStudentTx(context.Background(), tx, &models.User{
		Username:      "26000001",
		Email:         "ada@example.com",
		PasswordHash:  "$2a$10$hash",
		FullName:      "Ada Lovelace",
		Role:          models.RoleStudent,
		StudentStatus: models.StudentStatusEnrolled,
		Active:        true,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryInvalidateWipesCredential(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET active = FALSE, password_hash = '', student_status = \$2`).
		WithArgs("ref-1", models.StudentStatusApplicant, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.InvalidateTx(context.Background(), tx, "ref-1", models.StudentStatusApplicant))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryMaxStudentUsernameTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(username::bigint\), 0\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(26000002))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	highest, err := repo.MaxStudentUsernameTx(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, 26000002, highest)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
