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

const applicationColumns = `id, applicant_id, reg_number, reg_password, student_number, issued_password,
	full_name, email, phone, program, status, doc_id_verified, doc_transcript_verified,
	doc_recommendation_verified, submitted_at, created_at`

// ApplicationRepository handles persistence of admission applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// CreateTx inserts a new application inside the apply-flow transaction.
func (r *ApplicationRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO applications
		(id, applicant_id, reg_number, reg_password, full_name, email, phone, program, status,
		 doc_id_verified, doc_transcript_verified, doc_recommendation_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := tx.ExecContext(ctx, query,
		app.ID, app.ApplicantID, app.RegNumber, app.RegPassword, app.FullName, app.Email,
		app.Phone, app.Program, app.Status, app.DocIDVerified, app.DocTranscript,
		app.DocRecommendation, app.CreatedAt)
	if err != nil {
		return translateConflict(err)
	}
	return nil
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByIDForUpdateTx loads an application under a row write-lock. Used by
// issuance and decision paths that mutate several dependent rows.
func (r *ApplicationRepository) FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1 FOR UPDATE`, applicationColumns)
	var app models.Application
	if err := tx.GetContext(ctx, &app, query, id); err != nil {
		return nil, translateConflict(err)
	}
	return &app, nil
}

// FindByRegNumber returns the application issued under a reference code.
func (r *ApplicationRepository) FindByRegNumber(ctx context.Context, regNumber string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE reg_number = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, regNumber); err != nil {
		return nil, err
	}
	return &app, nil
}

// ExistsRegNumber reports whether a reference code is already taken.
func (r *ApplicationRepository) ExistsRegNumber(ctx context.Context, regNumber string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM applications WHERE reg_number = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, regNumber); err != nil {
		return false, err
	}
	return exists, nil
}

// List returns applications filtered for the staff review queue.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d OR reg_number ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "created_at",
		"submitted_at": "submitted_at",
		"full_name":    "full_name",
		"status":       "status",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT %s FROM applications%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		applicationColumns, clause, orderBy, order, size, offset)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM applications%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return apps, total, nil
}

// UpdateDocuments persists the three verification flags.
func (r *ApplicationRepository) UpdateDocuments(ctx context.Context, id string, docID, transcript, recommendation bool) error {
	const query = `UPDATE applications
		SET doc_id_verified = $2, doc_transcript_verified = $3, doc_recommendation_verified = $4
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, docID, transcript, recommendation)
	return err
}

// MarkSubmitted stamps the one-time submission timestamp.
func (r *ApplicationRepository) MarkSubmitted(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE applications SET submitted_at = $2 WHERE id = $1 AND submitted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id, ts)
	return err
}

// UpdateStatus moves an application to a new lifecycle state.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	const query = `UPDATE applications SET status = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status)
	return err
}

// UpdateStatusTx is UpdateStatus inside an open transaction.
func (r *ApplicationRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.ApplicationStatus) error {
	const query = `UPDATE applications SET status = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, status); err != nil {
		return translateConflict(err)
	}
	return nil
}

// AssignStudentNumberTx sets the student number once; the unique constraint
// on student_number is the allocation race arbiter.
func (r *ApplicationRepository) AssignStudentNumberTx(ctx context.Context, tx *sqlx.Tx, id, studentNumber string) error {
	const query = `UPDATE applications SET student_number = $2 WHERE id = $1 AND student_number IS NULL`
	if _, err := tx.ExecContext(ctx, query, id, studentNumber); err != nil {
		return translateConflict(err)
	}
	return nil
}

// SetIssuedSecretTx writes the issued secret to both the primary field and
// the legacy mirror consumed by the reference login screen.
func (r *ApplicationRepository) SetIssuedSecretTx(ctx context.Context, tx *sqlx.Tx, id, secret string) error {
	const query = `UPDATE applications SET issued_password = $2, reg_password = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, secret); err != nil {
		return translateConflict(err)
	}
	return nil
}

// MaxStudentNumberTx returns the highest assigned student number, or zero
// when none has been issued yet.
func (r *ApplicationRepository) MaxStudentNumberTx(ctx context.Context, tx *sqlx.Tx) (int, error) {
	const query = `SELECT COALESCE(MAX(student_number::bigint), 0) FROM applications WHERE student_number IS NOT NULL`
	var highest int
	if err := tx.GetContext(ctx, &highest, query); err != nil {
		return 0, translateConflict(err)
	}
	return highest, nil
}

// Stats aggregates the queue by lifecycle state for the staff dashboard.
func (r *ApplicationRepository) Stats(ctx context.Context) (*models.ApplicationStats, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE status = 'submitted') AS submitted,
		COUNT(*) FILTER (WHERE status = 'under_review') AS under_review,
		COUNT(*) FILTER (WHERE status = 'approved') AS approved,
		COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
		FROM applications`
	var stats models.ApplicationStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("application stats: %w", err)
	}
	return &stats, nil
}
