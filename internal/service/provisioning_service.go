package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uok-ict/portal-api/internal/models"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
	"github.com/uok-ict/portal-api/pkg/export"
	"github.com/uok-ict/portal-api/pkg/mailer"
	"github.com/uok-ict/portal-api/pkg/retry"
)

type provisioningApplicationRepo interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Application, error)
	AssignStudentNumberTx(ctx context.Context, tx *sqlx.Tx, id, studentNumber string) error
	SetIssuedSecretTx(ctx context.Context, tx *sqlx.Tx, id, secret string) error
}

type provisioningUserRepo interface {
	FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.User, error)
	UpsertStudentTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error
	InvalidateTx(ctx context.Context, tx *sqlx.Tx, id string, studentStatus models.StudentStatus) error
}

type provisioningAllocator interface {
	NextStudentNumber(ctx context.Context, tx *sqlx.Tx) (string, error)
	GenerateSecret(length int) string
}

// ProvisioningConfig tunes issuance behaviour.
type ProvisioningConfig struct {
	SecretLength  int
	RetryAttempts int
	RetryBackoff  time.Duration
}

// ProvisioningService turns an approved application into an enrolled,
// numbered student account and hands out its login secret.
type ProvisioningService struct {
	applications provisioningApplicationRepo
	users        provisioningUserRepo
	allocator    provisioningAllocator
	tx           txRunner
	mail         mailer.Mailer
	letters      *export.OfferLetterRenderer
	metrics      *MetricsService
	logger       *zap.Logger
	config       ProvisioningConfig
}

// NewProvisioningService constructs a ProvisioningService.
func NewProvisioningService(
	applications provisioningApplicationRepo,
	users provisioningUserRepo,
	allocator provisioningAllocator,
	tx txRunner,
	mail mailer.Mailer,
	letters *export.OfferLetterRenderer,
	metrics *MetricsService,
	logger *zap.Logger,
	config ProvisioningConfig,
) *ProvisioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if letters == nil {
		letters = export.NewOfferLetterRenderer("")
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
	return &ProvisioningService{
		applications: applications,
		users:        users,
		allocator:    allocator,
		tx:           tx,
		mail:         mail,
		letters:      letters,
		metrics:      metrics,
		logger:       logger,
		config:       config,
	}
}

// IssuePortalAccess activates the numbered student account for an approved
// application and returns the plaintext secret for one-time display.
//
// The whole operation runs in one transaction with the application row
// write-locked, because it mutates the application, the numbered account and
// the reference-code account together and must not interleave with a
// concurrent duplicate issuance. Repeat calls without reset re-display the
// same secret; every write overwrites deterministic fields, so a retry after
// partial failure lands on the same end state.
func (s *ProvisioningService) IssuePortalAccess(ctx context.Context, applicationID string, req models.IssueAccessRequest) (*models.IssueAccessResult, error) {
	var result models.IssueAccessResult
	var email, fullName, program, regNumber string

	err := retry.Bounded(ctx, s.config.RetryAttempts, s.config.RetryBackoff, appErrors.ErrProvisioningFailed, func(ctx context.Context) error {
		return s.tx.Within(ctx, func(tx *sqlx.Tx) error {
			app, err := s.applications.FindByIDForUpdateTx(ctx, tx, applicationID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, "application not found")
				}
				return err
			}
			if app.Status != models.ApplicationApproved {
				return appErrors.Clone(appErrors.ErrValidation, "only approved applications can be issued portal access")
			}

			// The reference account is resolved through the applicant link,
			// then its handle is checked against the recorded reference
			// code. A relinked or renamed account fails the issuance.
			if app.ApplicantID == nil {
				return appErrors.Clone(appErrors.ErrValidation, "applicant account missing/mismatched")
			}
			reference, err := s.users.FindByIDTx(ctx, tx, *app.ApplicantID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrValidation, "applicant account missing/mismatched")
				}
				return err
			}
			if reference.Username != app.RegNumber {
				return appErrors.Clone(appErrors.ErrValidation, "applicant account missing/mismatched")
			}

			studentNumber := app.StudentNumber
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

			secret := ""
			if !req.ResetSecret && app.IssuedPassword != nil && len(*app.IssuedPassword) == s.config.SecretLength {
				secret = *app.IssuedPassword
			} else {
				secret = s.allocator.GenerateSecret(s.config.SecretLength)
			}
			if err := s.applications.SetIssuedSecretTx(ctx, tx, app.ID, secret); err != nil {
				return err
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash secret")
			}
			student := &models.User{
				Username:      *studentNumber,
				Email:         app.Email,
				PasswordHash:  string(hash),
				FullName:      app.FullName,
				Role:          models.RoleStudent,
				StudentStatus: models.StudentStatusEnrolled,
				Active:        true,
			}
			if err := s.users.UpsertStudentTx(ctx, tx, student); err != nil {
				return err
			}

			// Retire the reference-code handle: the applicant now logs in
			// with the student number only.
			if reference.Username != *studentNumber {
				if err := s.users.InvalidateTx(ctx, tx, reference.ID, models.StudentStatusApplicant); err != nil {
					return err
				}
			}

			result.StudentNumber = *studentNumber
			result.Secret = secret
			email = app.Email
			fullName = app.FullName
			program = app.Program
			regNumber = app.RegNumber
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordIssuance()
	result.EmailSent = s.sendOfferLetter(ctx, email, fullName, program, regNumber, result.StudentNumber)
	return &result, nil
}

// OfferLetter renders the admission offer letter for an approved
// application.
func (s *ProvisioningService) OfferLetter(ctx context.Context, applicationID string) ([]byte, error) {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.Status != models.ApplicationApproved {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offer letters exist only for approved applications")
	}

	data := export.OfferLetterData{
		FullName:  app.FullName,
		Program:   app.Program,
		RegNumber: app.RegNumber,
		IssuedAt:  time.Now().UTC(),
	}
	if app.StudentNumber != nil {
		data.StudentNumber = *app.StudentNumber
	}
	letter, err := s.letters.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render offer letter")
	}
	return letter, nil
}

func (s *ProvisioningService) sendOfferLetter(ctx context.Context, email, fullName, program, regNumber, studentNumber string) bool {
	letter, err := s.letters.Render(export.OfferLetterData{
		FullName:      fullName,
		Program:       program,
		RegNumber:     regNumber,
		StudentNumber: studentNumber,
		IssuedAt:      time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("offer letter render failed", zap.String("reg_number", regNumber), zap.Error(err))
		return false
	}

	sent := s.mail.Send(ctx, mailer.Message{
		ToName:    fullName,
		ToAddress: email,
		Subject:   "Admission offer and portal access",
		Body: fmt.Sprintf("Congratulations! Your student number is %s. "+
			"Collect your portal password from the admissions office. Your offer letter is attached.", studentNumber),
		Attachments: []mailer.Attachment{{
			Filename:    fmt.Sprintf("offer-letter-%s.pdf", studentNumber),
			ContentType: "application/pdf",
			Content:     letter,
		}},
	})
	if !sent {
		s.logger.Warn("offer letter email not delivered", zap.String("student_number", studentNumber))
	}
	return sent
}
