package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return sqlxDB, mock, func() { sqlxDB.Close() }
}

var applicationTestColumns = []string{
	"id", "applicant_id", "reg_number", "reg_password", "student_number", "issued_password",
	"full_name", "email", "phone", "program", "status", "doc_id_verified",
	"doc_transcript_verified", "doc_recommendation_verified", "submitted_at", "created_at",
}

var userTestColumns = []string{
	"id", "username", "email", "password_hash", "full_name", "role", "student_status",
	"active", "last_login", "created_at", "updated_at",
}
