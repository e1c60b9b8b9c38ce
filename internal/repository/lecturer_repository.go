package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uok-ict/portal-api/internal/models"
)

const lecturerColumns = `id, user_id, lecturer_id, module_code, module_name, issue_year, sequence,
	first_name, surname, last_name, full_name, assigned_password, is_active, deactivated_at, created_at`

// LecturerRepository handles persistence of module-teaching appointments.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs the repository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// FindActiveByModule returns the current lecturer for a module, if any.
func (r *LecturerRepository) FindActiveByModule(ctx context.Context, moduleCode string) (*models.LecturerProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturer_profiles WHERE module_code = $1 AND is_active LIMIT 1`, lecturerColumns)
	var profile models.LecturerProfile
	if err := r.db.GetContext(ctx, &profile, query, moduleCode); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindActiveByModuleTx is FindActiveByModule inside an open transaction.
func (r *LecturerRepository) FindActiveByModuleTx(ctx context.Context, tx *sqlx.Tx, moduleCode string) (*models.LecturerProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturer_profiles WHERE module_code = $1 AND is_active LIMIT 1`, lecturerColumns)
	var profile models.LecturerProfile
	if err := tx.GetContext(ctx, &profile, query, moduleCode); err != nil {
		return nil, err
	}
	return &profile, nil
}

// MaxSequenceTx returns the highest sequence recorded for (module, year).
func (r *LecturerRepository) MaxSequenceTx(ctx context.Context, tx *sqlx.Tx, moduleCode string, year int) (int, error) {
	const query = `SELECT COALESCE(MAX(sequence), 0) FROM lecturer_profiles WHERE module_code = $1 AND issue_year = $2`
	var highest int
	if err := tx.GetContext(ctx, &highest, query, moduleCode, year); err != nil {
		return 0, translateConflict(err)
	}
	return highest, nil
}

// InsertTx creates the sequenced profile row.
func (r *LecturerRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, profile *models.LecturerProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lecturer_profiles
		(id, user_id, lecturer_id, module_code, module_name, issue_year, sequence, first_name,
		 surname, last_name, full_name, assigned_password, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := tx.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.LecturerID, profile.ModuleCode, profile.ModuleName,
		profile.IssueYear, profile.Sequence, profile.FirstName, profile.Surname, profile.LastName,
		profile.FullName, profile.AssignedPassword, profile.IsActive, profile.CreatedAt)
	if err != nil {
		return translateConflict(err)
	}
	return nil
}

// DeactivateTx flips the profile inactive with a deactivation timestamp.
func (r *LecturerRepository) DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string, ts time.Time) error {
	const query = `UPDATE lecturer_profiles SET is_active = FALSE, deactivated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, ts); err != nil {
		return translateConflict(err)
	}
	return nil
}

// ListByModule returns the appointment history for a module, newest first.
func (r *LecturerRepository) ListByModule(ctx context.Context, moduleCode string) ([]models.LecturerProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM lecturer_profiles WHERE module_code = $1 ORDER BY created_at DESC`, lecturerColumns)
	var profiles []models.LecturerProfile
	if err := r.db.SelectContext(ctx, &profiles, query, moduleCode); err != nil {
		return nil, fmt.Errorf("list lecturer profiles: %w", err)
	}
	return profiles, nil
}
