package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/uok-ict/portal-api/internal/models"
)

const staffColumns = `id, user_id, staff_id, office_code, issue_year, sequence, first_name, surname,
	last_name, full_name, assigned_password, is_active, deactivated_at, created_at`

// StaffRepository handles persistence of office-head appointments.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs the repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindActiveByOffice returns the current holder of an office, if any.
func (r *StaffRepository) FindActiveByOffice(ctx context.Context, officeCode string) (*models.StaffProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_profiles WHERE office_code = $1 AND is_active LIMIT 1`, staffColumns)
	var profile models.StaffProfile
	if err := r.db.GetContext(ctx, &profile, query, officeCode); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindActiveByOfficeTx is FindActiveByOffice inside an open transaction.
func (r *StaffRepository) FindActiveByOfficeTx(ctx context.Context, tx *sqlx.Tx, officeCode string) (*models.StaffProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_profiles WHERE office_code = $1 AND is_active LIMIT 1`, staffColumns)
	var profile models.StaffProfile
	if err := tx.GetContext(ctx, &profile, query, officeCode); err != nil {
		return nil, err
	}
	return &profile, nil
}

// MaxSequenceTx returns the highest sequence recorded for (office, year).
// The read is not row-reserved; the unique constraint on
// (office_code, issue_year, sequence) arbitrates concurrent allocations.
func (r *StaffRepository) MaxSequenceTx(ctx context.Context, tx *sqlx.Tx, officeCode string, year int) (int, error) {
	const query = `SELECT COALESCE(MAX(sequence), 0) FROM staff_profiles WHERE office_code = $1 AND issue_year = $2`
	var highest int
	if err := tx.GetContext(ctx, &highest, query, officeCode, year); err != nil {
		return 0, translateConflict(err)
	}
	return highest, nil
}

// InsertTx creates the sequenced profile row.
func (r *StaffRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, profile *models.StaffProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO staff_profiles
		(id, user_id, staff_id, office_code, issue_year, sequence, first_name, surname, last_name,
		 full_name, assigned_password, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := tx.ExecContext(ctx, query,
		profile.ID, profile.UserID, profile.StaffID, profile.OfficeCode, profile.IssueYear,
		profile.Sequence, profile.FirstName, profile.Surname, profile.LastName, profile.FullName,
		profile.AssignedPassword, profile.IsActive, profile.CreatedAt)
	if err != nil {
		return translateConflict(err)
	}
	return nil
}

// DeactivateTx flips the profile inactive with a deactivation timestamp.
func (r *StaffRepository) DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string, ts time.Time) error {
	const query = `UPDATE staff_profiles SET is_active = FALSE, deactivated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, ts); err != nil {
		return translateConflict(err)
	}
	return nil
}

// ListByOffice returns the appointment history for an office, newest first.
func (r *StaffRepository) ListByOffice(ctx context.Context, officeCode string) ([]models.StaffProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_profiles WHERE office_code = $1 ORDER BY created_at DESC`, staffColumns)
	var profiles []models.StaffProfile
	if err := r.db.SelectContext(ctx, &profiles, query, officeCode); err != nil {
		return nil, fmt.Errorf("list staff profiles: %w", err)
	}
	return profiles, nil
}
