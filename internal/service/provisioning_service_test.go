package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uok-ict/portal-api/internal/models"
	appErrors "github.com/uok-ict/portal-api/pkg/errors"
)

type mockProvisioningApps struct {
	app *models.Application

	assignedNumber string
	issuedSecrets  []string
	assignErr      error
	secretErr      error
}

func (m *mockProvisioningApps) FindByID(context.Context, string) (*models.Application, error) {
	if m.app == nil {
		return nil, sql.ErrNoRows
	}
	return m.app, nil
}

func (m *mockProvisioningApps) FindByIDForUpdateTx(context.Context, *sqlx.Tx, string) (*models.Application, error) {
	if m.app == nil {
		return nil, sql.ErrNoRows
	}
	return m.app, nil
}

func (m *mockProvisioningApps) AssignStudentNumberTx(_ context.Context, _ *sqlx.Tx, _ string, studentNumber string) error {
	if m.assignErr != nil {
		return m.assignErr
	}
	m.assignedNumber = studentNumber
	m.app.StudentNumber = &studentNumber
	return nil
}

func (m *mockProvisioningApps) SetIssuedSecretTx(_ context.Context, _ *sqlx.Tx, _ string, secret string) error {
	if m.secretErr != nil {
		return m.secretErr
	}
	m.issuedSecrets = append(m.issuedSecrets, secret)
	m.app.IssuedPassword = &secret
	return nil
}

type mockProvisioningUsers struct {
	reference *models.User

	upserted      []*models.User
	upsertErrs    []error
	upsertCalls   int
	invalidatedID string
}

func (m *mockProvisioningUsers) FindByIDTx(context.Context, *sqlx.Tx, string) (*models.User, error) {
	if m.reference == nil {
		return nil, sql.ErrNoRows
	}
	return m.reference, nil
}

func (m *mockProvisioningUsers) UpsertStudentTx(_ context.Context, _ *sqlx.Tx, user *models.User) error {
	m.upsertCalls++
	if len(m.upsertErrs) > 0 {
		err := m.upsertErrs[0]
		m.upsertErrs = m.upsertErrs[1:]
		if err != nil {
			return err
		}
	}
	m.upserted = append(m.upserted, user)
	return nil
}

func (m *mockProvisioningUsers) InvalidateTx(_ context.Context, _ *sqlx.Tx, id string, _ models.StudentStatus) error {
	m.invalidatedID = id
	return nil
}

func approvedApplication() *models.Application {
	return &models.Application{
		ID:          "app-1",
		ApplicantID: strPtr("ref-1"),
		RegNumber:   "REG1234",
		FullName:    "Ada Lovelace",
		Email:       "ada@example.com",
		Program:     "CS",
		Status:      models.ApplicationApproved,
	}
}

func newProvisioningService(apps *mockProvisioningApps, users *mockProvisioningUsers, alloc *scriptedAllocator, mail *fakeMailer) *ProvisioningService {
	return NewProvisioningService(apps, users, alloc, &fakeTxRunner{}, mail, nil, nil, nil,
		ProvisioningConfig{SecretLength: 10, RetryAttempts: 3, RetryBackoff: time.Millisecond})
}

func TestIssuePortalAccessActivatesNumberedAccount(t *testing.T) {
	apps := &mockProvisioningApps{app: approvedApplication()}
	users := &mockProvisioningUsers{reference: &models.User{ID: "ref-1", Username: "REG1234"}}
	alloc := &scriptedAllocator{studentNumbers: []string{"26000001"}, secrets: []string{"a1b2c3d4e5"}}
	mail := &fakeMailer{}
	svc := newProvisioningService(apps, users, alloc, mail)

	res, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.NoError(t, err)

	assert.Equal(t, "26000001", res.StudentNumber)
	assert.Equal(t, "a1b2c3d4e5", res.Secret)
	assert.Len(t, res.Secret, 10)
	assert.Equal(t, "26000001", apps.assignedNumber)
	require.Len(t, apps.issuedSecrets, 1)
	assert.Equal(t, "a1b2c3d4e5", apps.issuedSecrets[0])

	require.Len(t, users.upserted, 1)
	student := users.upserted[0]
	assert.Equal(t, "26000001", student.Username)
	assert.Equal(t, models.RoleStudent, student.Role)
	assert.Equal(t, models.StudentStatusEnrolled, student.StudentStatus)
	assert.True(t, student.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(res.Secret)))

	// the reference-code handle can never log in again
	assert.Equal(t, "ref-1", users.invalidatedID)

	assert.True(t, res.EmailSent)
	require.Len(t, mail.sent, 1)
	require.Len(t, mail.sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", mail.sent[0].Attachments[0].ContentType)
}

func TestIssuePortalAccessRejectsUnapproved(t *testing.T) {
	app := approvedApplication()
	app.Status = models.ApplicationSubmitted
	apps := &mockProvisioningApps{app: app}
	svc := newProvisioningService(apps, &mockProvisioningUsers{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, apps.issuedSecrets)
}

func TestIssuePortalAccessUnknownApplication(t *testing.T) {
	svc := newProvisioningService(&mockProvisioningApps{}, &mockProvisioningUsers{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.IssuePortalAccess(context.Background(), "missing", models.IssueAccessRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestIssuePortalAccessMissingReferenceAccount(t *testing.T) {
	apps := &mockProvisioningApps{app: approvedApplication()}
	svc := newProvisioningService(apps, &mockProvisioningUsers{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "applicant account")
}

func TestIssuePortalAccessUnlinkedApplicant(t *testing.T) {
	app := approvedApplication()
	app.ApplicantID = nil
	apps := &mockProvisioningApps{app: app}
	users := &mockProvisioningUsers{reference: &models.User{ID: "ref-1", Username: "REG1234"}}
	svc := newProvisioningService(apps, users, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, users.upsertCalls)
}

func TestIssuePortalAccessRenamedReferenceAccount(t *testing.T) {
	// the linked account no longer carries the recorded reference code
	apps := &mockProvisioningApps{app: approvedApplication()}
	users := &mockProvisioningUsers{reference: &models.User{ID: "ref-1", Username: "REG9999"}}
	svc := newProvisioningService(apps, users, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "mismatched")
	assert.Zero(t, users.upsertCalls)
	assert.Empty(t, apps.issuedSecrets)
}

func TestIssuePortalAccessReissuesSameSecret(t *testing.T) {
	app := approvedApplication()
	app.StudentNumber = strPtr("26000001")
	app.IssuedPassword = strPtr("a1b2c3d4e5")
	apps := &mockProvisioningApps{app: app}
	users := &mockProvisioningUsers{reference: &models.User{ID: "ref-1", Username: "REG1234"}}
	alloc := &scriptedAllocator{}
	svc := newProvisioningService(apps, users, alloc, &fakeMailer{})

	res, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.NoError(t, err)

	assert.Equal(t, "a1b2c3d4e5", res.Secret)
	assert.Equal(t, "26000001", res.StudentNumber)
	assert.Zero(t, alloc.secretCalls)
	assert.Zero(t, alloc.numberCalls)
}

func TestIssuePortalAccessResetGeneratesFreshSecret(t *testing.T) {
	app := approvedApplication()
	app.StudentNumber = strPtr("26000001")
	app.IssuedPassword = strPtr("a1b2c3d4e5")
	apps := &mockProvisioningApps{app: app}
	users := &mockProvisioningUsers{reference: &models.User{ID: "ref-1", Username: "REG1234"}}
	alloc := &scriptedAllocator{secrets: []string{"zzzzzzzzzz"}}
	svc := newProvisioningService(apps, users, alloc, &fakeMailer{})

	res, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{ResetSecret: true})
	require.NoError(t, err)

	assert.Equal(t, "zzzzzzzzzz", res.Secret)
	assert.NotEqual(t, "a1b2c3d4e5", res.Secret)
	assert.Equal(t, 1, alloc.secretCalls)
}

func TestIssuePortalAccessRegeneratesMalformedSecret(t *testing.T) {
	app := approvedApplication()
	app.StudentNumber = strPtr("26000001")
	app.IssuedPassword = strPtr("short")
	apps := &mockProvisioningApps{app: app}
	users := &mockProvisioningUsers{reference: &models.User{ID: "ref-1", Username: "REG1234"}}
	alloc := &scriptedAllocator{secrets: []string{"b2c3d4e5f6"}}
	svc := newProvisioningService(apps, users, alloc, &fakeMailer{})

	res, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.NoError(t, err)

	assert.Equal(t, "b2c3d4e5f6", res.Secret)
	assert.Equal(t, 1, alloc.secretCalls)
}

func TestIssuePortalAccessExhaustsRetries(t *testing.T) {
	conflict := appErrors.Clone(appErrors.ErrTransientStorage, "duplicate student number")
	apps := &mockProvisioningApps{app: approvedApplication()}
	users := &mockProvisioningUsers{
		reference:  &models.User{ID: "ref-1", Username: "REG1234"},
		upsertErrs: []error{conflict, conflict, conflict},
	}
	svc := newProvisioningService(apps, users, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.IssuePortalAccess(context.Background(), "app-1", models.IssueAccessRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrProvisioningFailed.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrProvisioningFailed.Status, appErr.Status)
	assert.Equal(t, 3, users.upsertCalls)
}

func TestOfferLetterOnlyForApproved(t *testing.T) {
	app := approvedApplication()
	app.Status = models.ApplicationSubmitted
	svc := newProvisioningService(&mockProvisioningApps{app: app}, &mockProvisioningUsers{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.OfferLetter(context.Background(), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	app.Status = models.ApplicationApproved
	app.StudentNumber = strPtr("26000001")

	letter, err := svc.OfferLetter(context.Background(), "app-1")
	require.NoError(t, err)
	assert.True(t, len(letter) > 0)
	assert.Equal(t, "%PDF", string(letter[:4]))
}
