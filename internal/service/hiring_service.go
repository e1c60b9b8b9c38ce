package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uok-ict/portal-api/internal/models"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
	"github.com/uok-ict/portal-api/pkg/retry"
)

type hiringStaffRepo interface {
	FindActiveByOffice(ctx context.Context, officeCode string) (*models.StaffProfile, error)
	MaxSequenceTx(ctx context.Context, tx *sqlx.Tx, officeCode string, year int) (int, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, profile *models.StaffProfile) error
	DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string, ts time.Time) error
	ListByOffice(ctx context.Context, officeCode string) ([]models.StaffProfile, error)
}

type hiringLecturerRepo interface {
	FindActiveByModule(ctx context.Context, moduleCode string) (*models.LecturerProfile, error)
	MaxSequenceTx(ctx context.Context, tx *sqlx.Tx, moduleCode string, year int) (int, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, profile *models.LecturerProfile) error
	DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string, ts time.Time) error
	ListByModule(ctx context.Context, moduleCode string) ([]models.LecturerProfile, error)
}

type hiringUserRepo interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error
	DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type hiringAllocator interface {
	NextSequence(ctx context.Context, tx *sqlx.Tx, counter SequenceCounter, category string, year int) (int, error)
	GenerateSecret(length int) string
}

// HiringConfig tunes appointment issuance.
type HiringConfig struct {
	SecretLength  int
	RetryAttempts int
	RetryBackoff  time.Duration
}

// HiringService appoints office heads and module lecturers. Both paths share
// the allocate, create account, insert sequenced profile shape; only the
// catalog and handle prefix differ.
type HiringService struct {
	staff     hiringStaffRepo
	lecturers hiringLecturerRepo
	users     hiringUserRepo
	allocator hiringAllocator
	tx        txRunner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    HiringConfig
}

// NewHiringService constructs a HiringService.
func NewHiringService(
	staff hiringStaffRepo,
	lecturers hiringLecturerRepo,
	users hiringUserRepo,
	allocator hiringAllocator,
	tx txRunner,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	config HiringConfig,
) *HiringService {
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
	return &HiringService{
		staff:     staff,
		lecturers: lecturers,
		users:     users,
		allocator: allocator,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// HireStaff appoints an office head and returns the one-time credentials.
func (s *HiringService) HireStaff(ctx context.Context, req models.HireStaffRequest) (*models.HireResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hire payload")
	}
	if !models.IsOffice(req.OfficeCode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown office code")
	}

	if !req.AllowReplace {
		if _, err := s.staff.FindActiveByOffice(ctx, req.OfficeCode); err == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("%s already has an active head; replace or stop access first", req.OfficeCode))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check office")
		}
	}

	fullName := joinName(req.FirstName, req.Surname, req.LastName)
	var result *models.HireResult

	err := retry.BoundedNotify(ctx, s.config.RetryAttempts, s.config.RetryBackoff, appErrors.ErrAllocationFailed, s.metrics.RecordAllocationRetry, func(ctx context.Context) error {
		return s.tx.Within(ctx, func(tx *sqlx.Tx) error {
			year := time.Now().UTC().Year()
			sequence, err := s.allocator.NextSequence(ctx, tx, s.staff, req.OfficeCode, year)
			if err != nil {
				return err
			}
			staffID := FormatSequencedID(req.OfficeCode, year, sequence)
			secret := s.allocator.GenerateSecret(s.config.SecretLength)

			account, err := s.createAccountTx(ctx, tx, staffID, secret, fullName, models.RoleStaff)
			if err != nil {
				return err
			}

			profile := &models.StaffProfile{
				UserID:           account.ID,
				StaffID:          staffID,
				OfficeCode:       req.OfficeCode,
				IssueYear:        year,
				Sequence:         sequence,
				FirstName:        req.FirstName,
				Surname:          req.Surname,
				LastName:         req.LastName,
				FullName:         fullName,
				AssignedPassword: secret,
				IsActive:         true,
			}
			if err := s.staff.InsertTx(ctx, tx, profile); err != nil {
				return err
			}

			result = &models.HireResult{ID: staffID, Secret: secret, FullName: fullName}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordIssuance()
	s.logger.Info("office head appointed",
		zap.String("office", req.OfficeCode), zap.String("staff_id", result.ID))
	return result, nil
}

// HireLecturer appoints a module lecturer and returns the one-time
// credentials.
func (s *HiringService) HireLecturer(ctx context.Context, req models.HireLecturerRequest) (*models.HireResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hire payload")
	}
	if !models.IsModule(req.ModuleCode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown module code")
	}

	if !req.AllowReplace {
		if _, err := s.lecturers.FindActiveByModule(ctx, req.ModuleCode); err == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("%s already has an active lecturer; replace or stop access first", req.ModuleCode))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module")
		}
	}

	fullName := joinName(req.FirstName, req.Surname, req.LastName)
	var result *models.HireResult

	err := retry.BoundedNotify(ctx, s.config.RetryAttempts, s.config.RetryBackoff, appErrors.ErrAllocationFailed, s.metrics.RecordAllocationRetry, func(ctx context.Context) error {
		return s.tx.Within(ctx, func(tx *sqlx.Tx) error {
			year := time.Now().UTC().Year()
			sequence, err := s.allocator.NextSequence(ctx, tx, s.lecturers, req.ModuleCode, year)
			if err != nil {
				return err
			}
			lecturerID := FormatSequencedID(models.LecturerIDPrefix, year, sequence)
			secret := s.allocator.GenerateSecret(s.config.SecretLength)

			account, err := s.createAccountTx(ctx, tx, lecturerID, secret, fullName, models.RoleLecturer)
			if err != nil {
				return err
			}

			profile := &models.LecturerProfile{
				UserID:           account.ID,
				LecturerID:       lecturerID,
				ModuleCode:       req.ModuleCode,
				ModuleName:       models.Modules[req.ModuleCode],
				IssueYear:        year,
				Sequence:         sequence,
				FirstName:        req.FirstName,
				Surname:          req.Surname,
				LastName:         req.LastName,
				FullName:         fullName,
				AssignedPassword: secret,
				IsActive:         true,
			}
			if err := s.lecturers.InsertTx(ctx, tx, profile); err != nil {
				return err
			}

			result = &models.HireResult{ID: lecturerID, Secret: secret, FullName: fullName}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordIssuance()
	s.logger.Info("lecturer appointed",
		zap.String("module", req.ModuleCode), zap.String("lecturer_id", result.ID))
	return result, nil
}

// DeactivateStaff stops access for the active office head.
func (s *HiringService) DeactivateStaff(ctx context.Context, officeCode string) (*models.StaffProfile, error) {
	if !models.IsOffice(officeCode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown office code")
	}
	profile, err := s.staff.FindActiveByOffice(ctx, officeCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no active head to deactivate")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check office")
	}

	now := time.Now().UTC()
	err = s.tx.Within(ctx, func(tx *sqlx.Tx) error {
		if err := s.staff.DeactivateTx(ctx, tx, profile.ID, now); err != nil {
			return err
		}
		return s.users.DeactivateTx(ctx, tx, profile.UserID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate office head")
	}

	profile.IsActive = false
	profile.DeactivatedAt = &now
	return profile, nil
}

// DeactivateLecturer stops access for the active module lecturer.
func (s *HiringService) DeactivateLecturer(ctx context.Context, moduleCode string) (*models.LecturerProfile, error) {
	if !models.IsModule(moduleCode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown module code")
	}
	profile, err := s.lecturers.FindActiveByModule(ctx, moduleCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no active lecturer to deactivate")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module")
	}

	now := time.Now().UTC()
	err = s.tx.Within(ctx, func(tx *sqlx.Tx) error {
		if err := s.lecturers.DeactivateTx(ctx, tx, profile.ID, now); err != nil {
			return err
		}
		return s.users.DeactivateTx(ctx, tx, profile.UserID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate lecturer")
	}

	profile.IsActive = false
	profile.DeactivatedAt = &now
	return profile, nil
}

// ReplaceStaff deactivates the current office head and hires the new one.
// Two sequential calls, not one transaction: the prior holder is always
// deactivated before the successor exists.
func (s *HiringService) ReplaceStaff(ctx context.Context, req models.HireStaffRequest) (*models.HireResult, error) {
	if _, err := s.DeactivateStaff(ctx, req.OfficeCode); err != nil {
		var appErr *appErrors.Error
		if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrValidation.Code {
			return nil, err
		}
		// nothing active to replace, fall through to a plain hire
	}
	req.AllowReplace = true
	return s.HireStaff(ctx, req)
}

// ReplaceLecturer deactivates the current lecturer and hires the new one.
func (s *HiringService) ReplaceLecturer(ctx context.Context, req models.HireLecturerRequest) (*models.HireResult, error) {
	if _, err := s.DeactivateLecturer(ctx, req.ModuleCode); err != nil {
		var appErr *appErrors.Error
		if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrValidation.Code {
			return nil, err
		}
	}
	req.AllowReplace = true
	return s.HireLecturer(ctx, req)
}

// StaffHistory lists the appointment history for an office.
func (s *HiringService) StaffHistory(ctx context.Context, officeCode string) ([]models.StaffProfile, error) {
	if !models.IsOffice(officeCode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown office code")
	}
	profiles, err := s.staff.ListByOffice(ctx, officeCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list office history")
	}
	return profiles, nil
}

// LecturerHistory lists the appointment history for a module.
func (s *HiringService) LecturerHistory(ctx context.Context, moduleCode string) ([]models.LecturerProfile, error) {
	if !models.IsModule(moduleCode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown module code")
	}
	profiles, err := s.lecturers.ListByModule(ctx, moduleCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list module history")
	}
	return profiles, nil
}

func (s *HiringService) createAccountTx(ctx context.Context, tx *sqlx.Tx, handle, secret, fullName string, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash secret")
	}
	account := &models.User{
		Username:     handle,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
		Active:       true,
	}
	if err := s.users.CreateTx(ctx, tx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func joinName(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, " ")
}
