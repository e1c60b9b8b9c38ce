package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uok-ict/portal-api/internal/models"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
	"github.com/uok-ict/portal-api/pkg/export"
	"github.com/uok-ict/portal-api/pkg/mailer"
	"github.com/uok-ict/portal-api/pkg/retry"
)

const statsCacheKey = "admissions:stats"

type admissionApplicationRepo interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Application, error)
	FindByRegNumber(ctx context.Context, regNumber string) (*models.Application, error)
	ExistsRegNumber(ctx context.Context, regNumber string) (bool, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
	UpdateDocuments(ctx context.Context, id string, docID, transcript, recommendation bool) error
	MarkSubmitted(ctx context.Context, id string, ts time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.ApplicationStatus) error
	AssignStudentNumberTx(ctx context.Context, tx *sqlx.Tx, id, studentNumber string) error
	SetIssuedSecretTx(ctx context.Context, tx *sqlx.Tx, id, secret string) error
	Stats(ctx context.Context) (*models.ApplicationStats, error)
}

type admissionUserRepo interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error
	ExistsUsernameTx(ctx context.Context, tx *sqlx.Tx, username string) (bool, error)
	FindByUsernameTx(ctx context.Context, tx *sqlx.Tx, username string) (*models.User, error)
	InvalidateTx(ctx context.Context, tx *sqlx.Tx, id string, studentStatus models.StudentStatus) error
}

type admissionProgramRepo interface {
	FindByCode(ctx context.Context, code string) (*models.Program, error)
}

type admissionAllocator interface {
	NextStudentNumber(ctx context.Context, tx *sqlx.Tx) (string, error)
	GenerateSecret(length int) string
	NewRegNumber() string
}

// AdmissionConfig tunes the admission workflows.
type AdmissionConfig struct {
	SecretLength  int
	RetryAttempts int
	RetryBackoff  time.Duration
	StatsCacheTTL time.Duration
}

// AdmissionService drives an application from the apply flow through
// document verification, review and decision.
type AdmissionService struct {
	applications admissionApplicationRepo
	users        admissionUserRepo
	programs     admissionProgramRepo
	allocator    admissionAllocator
	tx           txRunner
	cache        *CacheService
	mail         mailer.Mailer
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	config       AdmissionConfig
}

// NewAdmissionService constructs an AdmissionService.
func NewAdmissionService(
	applications admissionApplicationRepo,
	users admissionUserRepo,
	programs admissionProgramRepo,
	allocator admissionAllocator,
	tx txRunner,
	cache *CacheService,
	mail mailer.Mailer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	config AdmissionConfig,
) *AdmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SecretLength <= 0 {
		config.SecretLength = 10
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 100 * time.Millisecond
	}
	return &AdmissionService{
		applications: applications,
		users:        users,
		programs:     programs,
		allocator:    allocator,
		tx:           tx,
		cache:        cache,
		mail:         mail,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		config:       config,
	}
}

// Apply creates an application together with its reference-code account and
// returns the reference credentials for one-time display. The registration
// email is best effort; a delivery failure never rolls the application back.
func (s *AdmissionService) Apply(ctx context.Context, req models.ApplyRequest) (*models.ApplyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	if _, err := s.programs.FindByCode(ctx, req.Program); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown program")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program")
	}

	var app *models.Application
	var regNumber, secret string

	// Reference codes are drawn from a small random space; a collision
	// surfaces as a transient uniqueness conflict and a fresh code is
	// drawn on the next attempt.
	err := retry.BoundedNotify(ctx, s.config.RetryAttempts, s.config.RetryBackoff, appErrors.ErrAllocationFailed, s.metrics.RecordAllocationRetry, func(ctx context.Context) error {
		regNumber = s.allocator.NewRegNumber()
		taken, err := s.applications.ExistsRegNumber(ctx, regNumber)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to probe reference code")
		}
		if taken {
			return appErrors.Clone(appErrors.ErrTransientStorage, "reference code already taken")
		}

		secret = s.allocator.GenerateSecret(s.config.SecretLength)
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash secret")
		}

		return s.tx.Within(ctx, func(tx *sqlx.Tx) error {
			account := &models.User{
				Username:      regNumber,
				Email:         req.Email,
				PasswordHash:  string(hash),
				FullName:      req.FullName,
				Role:          models.RoleStudent,
				StudentStatus: models.StudentStatusApplicant,
				Active:        true,
			}
			if err := s.users.CreateTx(ctx, tx, account); err != nil {
				return err
			}

			app = &models.Application{
				ApplicantID: &account.ID,
				RegNumber:   regNumber,
				RegPassword: &secret,
				FullName:    req.FullName,
				Email:       req.Email,
				Phone:       req.Phone,
				Program:     req.Program,
				Status:      models.ApplicationSubmitted,
			}
			return s.applications.CreateTx(ctx, tx, app)
		})
	})
	if err != nil {
		return nil, err
	}

	sent := s.mail.Send(ctx, mailer.Message{
		ToName:    req.FullName,
		ToAddress: req.Email,
		Subject:   "Your admission application",
		Body: fmt.Sprintf("Your application has been received. Reference code: %s. "+
			"Use it with the password shown on screen to follow your application.", regNumber),
	})
	if !sent {
		s.logger.Warn("registration email not delivered", zap.String("reg_number", regNumber))
	}

	s.invalidateStats(ctx)

	return &models.ApplyResult{Application: app, RegNumber: regNumber, Secret: secret, EmailSent: sent}, nil
}

// Get returns one application.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

// GetByRegNumber returns the application behind a reference code, used by
// applicants tracking their own case.
func (s *AdmissionService) GetByRegNumber(ctx context.Context, regNumber string) (*models.Application, error) {
	app, err := s.applications.FindByRegNumber(ctx, regNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

// List returns the staff review queue.
func (s *AdmissionService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	apps, total, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, total, nil
}

// UpdateDocuments sets the verification flags. Flags are mutable only while
// the application sits in submitted and has not been finally submitted.
func (s *AdmissionService) UpdateDocuments(ctx context.Context, id string, req models.DocumentUpdateRequest) (*models.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationSubmitted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "documents can only be edited before review")
	}
	if app.SubmittedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "documents are locked after submission")
	}

	if err := s.applications.UpdateDocuments(ctx, id, req.IDVerified, req.TranscriptVerified, req.RecommendationVerified); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update documents")
	}

	app.DocIDVerified = req.IDVerified
	app.DocTranscript = req.TranscriptVerified
	app.DocRecommendation = req.RecommendationVerified
	return app, nil
}

// Submit stamps the one-time submission timestamp. All three document flags
// must be verified first.
func (s *AdmissionService) Submit(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationSubmitted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application is no longer editable")
	}
	if app.SubmittedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application already submitted")
	}
	if !app.DocumentsComplete() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "all documents must be verified before submission")
	}

	now := time.Now().UTC()
	if err := s.applications.MarkSubmitted(ctx, id, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit application")
	}
	app.SubmittedAt = &now
	return app, nil
}

// StartReview moves a submitted application into review. Requires a
// submission timestamp and complete documents.
func (s *AdmissionService) StartReview(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationSubmitted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only active review cases can be transitioned")
	}
	if app.SubmittedAt == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application has not been submitted")
	}
	if !app.DocumentsComplete() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "all documents must be verified before review")
	}

	if err := s.applications.UpdateStatus(ctx, id, models.ApplicationUnderReview); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start review")
	}
	app.Status = models.ApplicationUnderReview
	s.invalidateStats(ctx)
	return app, nil
}

// Decide records a staff decision. Approval re-validates document
// completeness and assigns the student number exactly once; it does not
// issue credentials unless the legacy AutoProvision flag is set. Rejection
// is allowed from submitted or under_review and is terminal.
func (s *AdmissionService) Decide(ctx context.Context, id string, req models.DecisionRequest) (*models.Application, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch req.Decision {
	case models.DecisionReject:
		if app.Status != models.ApplicationSubmitted && app.Status != models.ApplicationUnderReview {
			return nil, appErrors.Clone(appErrors.ErrValidation, "only active review cases can be transitioned")
		}
		if err := s.applications.UpdateStatus(ctx, id, models.ApplicationRejected); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject application")
		}
		app.Status = models.ApplicationRejected

	case models.DecisionApprove:
		if app.Status != models.ApplicationUnderReview {
			return nil, appErrors.Clone(appErrors.ErrValidation, "only active review cases can be transitioned")
		}
		if !app.DocumentsComplete() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "all documents must be verified before approval")
		}
		if err := s.approve(ctx, app, req.AutoProvision); err != nil {
			return nil, err
		}
	}

	s.metrics.RecordDecision(req.Decision)
	s.invalidateStats(ctx)
	return app, nil
}

// approve flips the status and assigns a student number when absent. The
// allocation read is not row-reserved; a losing writer retries.
func (s *AdmissionService) approve(ctx context.Context, app *models.Application, autoProvision bool) error {
	return retry.BoundedNotify(ctx, s.config.RetryAttempts, s.config.RetryBackoff, appErrors.ErrAllocationFailed, s.metrics.RecordAllocationRetry, func(ctx context.Context) error {
		return s.tx.Within(ctx, func(tx *sqlx.Tx) error {
			locked, err := s.applications.FindByIDForUpdateTx(ctx, tx, app.ID)
			if err != nil {
				return err
			}

			studentNumber := locked.StudentNumber
			if studentNumber == nil {
				number, err := s.allocator.NextStudentNumber(ctx, tx)
				if err != nil {
					return err
				}
				if err := s.applications.AssignStudentNumberTx(ctx, tx, app.ID, number); err != nil {
					return err
				}
				studentNumber = &number
			}

			if err := s.applications.UpdateStatusTx(ctx, tx, app.ID, models.ApplicationApproved); err != nil {
				return err
			}

			if autoProvision {
				if err := s.autoProvisionTx(ctx, tx, locked, *studentNumber); err != nil {
					return err
				}
				app.IssuedPassword = locked.IssuedPassword
			}

			app.Status = models.ApplicationApproved
			app.StudentNumber = studentNumber
			return nil
		})
	})
}

// autoProvisionTx is the legacy inline mint kept from an older workflow
// branch: the numbered account is created during approval instead of a
// later explicit issuance call. The minted secret is stored on the
// application so staff can re-display it, the same place the issuance call
// keeps it. Guarded against double creation, and the reference-code account
// is always retired when a numbered account appears.
func (s *AdmissionService) autoProvisionTx(ctx context.Context, tx *sqlx.Tx, app *models.Application, studentNumber string) error {
	exists, err := s.users.ExistsUsernameTx(ctx, tx, studentNumber)
	if err != nil {
		return err
	}
	if !exists {
		secret := s.allocator.GenerateSecret(s.config.SecretLength)
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash secret")
		}
		account := &models.User{
			Username:      studentNumber,
			Email:         app.Email,
			PasswordHash:  string(hash),
			FullName:      app.FullName,
			Role:          models.RoleStudent,
			StudentStatus: models.StudentStatusEnrolled,
			Active:        true,
		}
		if err := s.users.CreateTx(ctx, tx, account); err != nil {
			return err
		}
		if err := s.applications.SetIssuedSecretTx(ctx, tx, app.ID, secret); err != nil {
			return err
		}
		app.IssuedPassword = &secret
	}

	reference, err := s.users.FindByUsernameTx(ctx, tx, app.RegNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	return s.users.InvalidateTx(ctx, tx, reference.ID, models.StudentStatusApplicant)
}

// Stats returns review-queue counts for the staff dashboard, cached with a
// short TTL and invalidated whenever the queue changes.
func (s *AdmissionService) Stats(ctx context.Context) (*models.ApplicationStats, error) {
	var cached models.ApplicationStats
	if hit, _ := s.cache.Get(ctx, statsCacheKey, &cached); hit {
		return &cached, nil
	}

	stats, err := s.applications.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate applications")
	}

	if err := s.cache.Set(ctx, statsCacheKey, stats, s.config.StatsCacheTTL); err != nil {
		s.logger.Warn("failed to cache admission stats", zap.Error(err))
	}
	return stats, nil
}

// ExportCSV streams the filtered review queue as CSV, paging through the
// repository to stay within its page-size cap.
func (s *AdmissionService) ExportCSV(ctx context.Context, filter models.ApplicationFilter) ([]byte, error) {
	filter.PageSize = 100
	filter.Page = 1

	var rows []export.ApplicationRow
	for {
		apps, total, err := s.applications.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
		}
		for _, app := range apps {
			row := export.ApplicationRow{
				RegNumber: app.RegNumber,
				FullName:  app.FullName,
				Email:     app.Email,
				Program:   app.Program,
				Status:    string(app.Status),
			}
			if app.StudentNumber != nil {
				row.StudentNumber = *app.StudentNumber
			}
			if app.SubmittedAt != nil {
				row.SubmittedAt = app.SubmittedAt.Format(time.RFC3339)
			}
			rows = append(rows, row)
		}
		if len(rows) >= total || len(apps) == 0 {
			break
		}
		filter.Page++
	}

	return export.ApplicationsCSV(rows)
}

func (s *AdmissionService) invalidateStats(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "admissions:*"); err != nil {
		s.logger.Warn("failed to invalidate admission stats cache", zap.Error(err))
	}
}
