package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uok-ict/portal-api/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, role, student_status, active,
	last_login, created_at, updated_at`

// UserRepository handles persistence of identity accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts an account outside of any workflow transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.create(ctx, r.db, user)
}

// CreateTx inserts an account inside an open workflow transaction.
func (r *UserRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	return r.create(ctx, tx, user)
}

func (r *UserRepository) create(ctx context.Context, q sqlx.ExtContext, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users
		(id, username, email, password_hash, full_name, role, student_status, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FullName,
		user.Role, user.StudentStatus, user.Active, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translateConflict(err)
	}
	return nil
}

// FindByID returns an account by its ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDTx is FindByID inside an open transaction.
func (r *UserRepository) FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := tx.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns an account by its login handle.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernameTx is FindByUsername inside an open transaction.
func (r *UserRepository) FindByUsernameTx(ctx context.Context, tx *sqlx.Tx, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := tx.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsUsername reports whether a handle is already claimed.
func (r *UserRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	return r.existsUsername(ctx, r.db, username)
}

// ExistsUsernameTx is ExistsUsername inside an open transaction.
func (r *UserRepository) ExistsUsernameTx(ctx context.Context, tx *sqlx.Tx, username string) (bool, error) {
	return r.existsUsername(ctx, tx, username)
}

func (r *UserRepository) existsUsername(ctx context.Context, q sqlx.QueryerContext, username string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, username); err != nil {
		return false, translateConflict(err)
	}
	return exists, nil
}

// UpdateLastLogin records the login timestamp.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, ts)
	return err
}

// UpdatePassword replaces the stored credential hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	return err
}

// UpsertStudentTx creates or overwrites the numbered student account during
// issuance. Every field write is deterministic, so a retried transaction
// lands on the same end state.
func (r *UserRepository) UpsertStudentTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users
		(id, username, email, password_hash, full_name, role, student_status, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (username) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			student_status = EXCLUDED.student_status,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at`
	_, err := tx.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FullName,
		user.Role, user.StudentStatus, user.Active, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translateConflict(err)
	}
	return nil
}

// InvalidateTx deactivates an account and wipes its credential so the
// handle can never log in again. Used when a reference-code account is
// retired after promotion to a numbered student account.
func (r *UserRepository) InvalidateTx(ctx context.Context, tx *sqlx.Tx, id string, studentStatus models.StudentStatus) error {
	const query = `UPDATE users SET active = FALSE, password_hash = '', student_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, studentStatus, time.Now().UTC()); err != nil {
		return translateConflict(err)
	}
	return nil
}

// DeactivateTx soft-disables an account, keeping its credential intact.
func (r *UserRepository) DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE users SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return translateConflict(err)
	}
	return nil
}

// MaxStudentUsernameTx returns the highest purely numeric handle, used to
// seed student-number allocation alongside the applications table.
func (r *UserRepository) MaxStudentUsernameTx(ctx context.Context, tx *sqlx.Tx) (int, error) {
	const query = `SELECT COALESCE(MAX(username::bigint), 0) FROM users WHERE username ~ '^[0-9]{8}$'`
	var highest int
	if err := tx.GetContext(ctx, &highest, query); err != nil {
		return 0, translateConflict(err)
	}
	return highest, nil
}

// List returns accounts for the admin user directory.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(username ILIKE $%d OR full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY username ASC LIMIT %d OFFSET %d`,
		userColumns, clause, size, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}
