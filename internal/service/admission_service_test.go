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

type mockApplicationStore struct {
	app    *models.Application
	locked *models.Application

	regTaken       []bool
	regAlwaysTaken bool
	existsErr      error

	listApps  []models.Application
	listTotal int
	listErr   error

	stats      *models.ApplicationStats
	statsCalls int
	statsErr   error

	created        []*models.Application
	createErr      error
	updatedDocs    *models.DocumentUpdateRequest
	submittedAt    *time.Time
	status         models.ApplicationStatus
	assignedNumber string
	issuedSecret   string

	updateErr error
	markErr   error
	statusErr error
	assignErr error
	lockErr   error
}

func (m *mockApplicationStore) CreateTx(_ context.Context, _ *sqlx.Tx, app *models.Application) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, app)
	return nil
}

func (m *mockApplicationStore) FindByID(context.Context, string) (*models.Application, error) {
	if m.app == nil {
		return nil, sql.ErrNoRows
	}
	return m.app, nil
}

func (m *mockApplicationStore) FindByIDForUpdateTx(context.Context, *sqlx.Tx, string) (*models.Application, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	if m.locked != nil {
		return m.locked, nil
	}
	if m.app == nil {
		return nil, sql.ErrNoRows
	}
	return m.app, nil
}

func (m *mockApplicationStore) FindByRegNumber(context.Context, string) (*models.Application, error) {
	if m.app == nil {
		return nil, sql.ErrNoRows
	}
	return m.app, nil
}

func (m *mockApplicationStore) ExistsRegNumber(context.Context, string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	if m.regAlwaysTaken {
		return true, nil
	}
	if len(m.regTaken) > 0 {
		taken := m.regTaken[0]
		m.regTaken = m.regTaken[1:]
		return taken, nil
	}
	return false, nil
}

func (m *mockApplicationStore) List(context.Context, models.ApplicationFilter) ([]models.Application, int, error) {
	return m.listApps, m.listTotal, m.listErr
}

func (m *mockApplicationStore) UpdateDocuments(_ context.Context, _ string, docID, transcript, recommendation bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedDocs = &models.DocumentUpdateRequest{
		IDVerified:             docID,
		TranscriptVerified:     transcript,
		RecommendationVerified: recommendation,
	}
	return nil
}

func (m *mockApplicationStore) MarkSubmitted(_ context.Context, _ string, ts time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.submittedAt = &ts
	return nil
}

func (m *mockApplicationStore) UpdateStatus(_ context.Context, _ string, status models.ApplicationStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.status = status
	return nil
}

func (m *mockApplicationStore) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, _ string, status models.ApplicationStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.status = status
	return nil
}

func (m *mockApplicationStore) AssignStudentNumberTx(_ context.Context, _ *sqlx.Tx, _ string, studentNumber string) error {
	if m.assignErr != nil {
		return m.assignErr
	}
	m.assignedNumber = studentNumber
	return nil
}

func (m *mockApplicationStore) SetIssuedSecretTx(_ context.Context, _ *sqlx.Tx, _ string, secret string) error {
	m.issuedSecret = secret
	return nil
}

func (m *mockApplicationStore) Stats(context.Context) (*models.ApplicationStats, error) {
	m.statsCalls++
	return m.stats, m.statsErr
}

type mockUserStore struct {
	userByUsername *models.User
	usernameExists bool
	created        []*models.User
	createErr      error
	invalidatedID  string
}

func (m *mockUserStore) CreateTx(_ context.Context, _ *sqlx.Tx, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserStore) ExistsUsernameTx(context.Context, *sqlx.Tx, string) (bool, error) {
	return m.usernameExists, nil
}

func (m *mockUserStore) FindByUsernameTx(context.Context, *sqlx.Tx, string) (*models.User, error) {
	if m.userByUsername == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByUsername, nil
}

func (m *mockUserStore) InvalidateTx(_ context.Context, _ *sqlx.Tx, id string, _ models.StudentStatus) error {
	m.invalidatedID = id
	return nil
}

type mockProgramStore struct {
	program *models.Program
}

func (m *mockProgramStore) FindByCode(context.Context, string) (*models.Program, error) {
	if m.program == nil {
		return nil, sql.ErrNoRows
	}
	return m.program, nil
}

func newAdmissionService(apps *mockApplicationStore, users *mockUserStore, programs *mockProgramStore, alloc *scriptedAllocator, mail *fakeMailer) *AdmissionService {
	return NewAdmissionService(apps, users, programs, alloc, &fakeTxRunner{}, nil, mail, nil, nil, nil,
		AdmissionConfig{SecretLength: 10, RetryAttempts: 3, RetryBackoff: time.Millisecond})
}

func validApplyRequest() models.ApplyRequest {
	return models.ApplyRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+250788000000",
		Program:  "CS",
	}
}

func TestAdmissionApplyIssuesReferenceCredentials(t *testing.T) {
	apps := &mockApplicationStore{}
	users := &mockUserStore{}
	mail := &fakeMailer{}
	alloc := &scriptedAllocator{regNumbers: []string{"REG1234"}}
	svc := newAdmissionService(apps, users, &mockProgramStore{program: &models.Program{Code: "CS"}}, alloc, mail)

	res, err := svc.Apply(context.Background(), validApplyRequest())
	require.NoError(t, err)

	assert.Equal(t, "REG1234", res.RegNumber)
	assert.Len(t, res.Secret, 10)
	assert.True(t, res.EmailSent)
	assert.Len(t, mail.sent, 1)

	require.Len(t, users.created, 1)
	account := users.created[0]
	assert.Equal(t, "REG1234", account.Username)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.Equal(t, models.StudentStatusApplicant, account.StudentStatus)
	assert.True(t, account.Active)
	assert.NotEqual(t, res.Secret, account.PasswordHash)

	require.Len(t, apps.created, 1)
	app := apps.created[0]
	assert.Equal(t, models.ApplicationSubmitted, app.Status)
	require.NotNil(t, app.RegPassword)
	assert.Equal(t, res.Secret, *app.RegPassword)
	assert.Nil(t, app.SubmittedAt)
}

func TestAdmissionApplyUnknownProgram(t *testing.T) {
	svc := newAdmissionService(&mockApplicationStore{}, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.Apply(context.Background(), validApplyRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdmissionApplyRetriesReferenceCollision(t *testing.T) {
	apps := &mockApplicationStore{regTaken: []bool{true, false}}
	alloc := &scriptedAllocator{regNumbers: []string{"REG0001", "REG0002"}}
	metrics := NewMetricsService()
	svc := NewAdmissionService(apps, &mockUserStore{}, &mockProgramStore{program: &models.Program{Code: "CS"}},
		alloc, &fakeTxRunner{}, nil, &fakeMailer{}, metrics, nil, nil,
		AdmissionConfig{SecretLength: 10, RetryAttempts: 3, RetryBackoff: time.Millisecond})

	res, err := svc.Apply(context.Background(), validApplyRequest())
	require.NoError(t, err)

	// first draw collided, second draw went through
	assert.Equal(t, "REG0002", res.RegNumber)
	assert.Equal(t, 2, alloc.regCalls)
	assert.Equal(t, uint64(1), metrics.Snapshot().AllocationRetries)
}

func TestAdmissionApplyExhaustsAllocation(t *testing.T) {
	apps := &mockApplicationStore{regAlwaysTaken: true}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{program: &models.Program{Code: "CS"}}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.Apply(context.Background(), validApplyRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAllocationFailed.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrAllocationFailed.Status, appErr.Status)
	assert.Empty(t, apps.created)
}

func TestAdmissionUpdateDocumentsLockedAfterSubmission(t *testing.T) {
	now := time.Now().UTC()
	apps := &mockApplicationStore{app: &models.Application{
		ID:          "app-1",
		Status:      models.ApplicationSubmitted,
		SubmittedAt: &now,
	}}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.UpdateDocuments(context.Background(), "app-1", models.DocumentUpdateRequest{IDVerified: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, apps.updatedDocs)
}

func TestAdmissionSubmitRequiresCompleteDocuments(t *testing.T) {
	apps := &mockApplicationStore{app: &models.Application{
		ID:            "app-1",
		Status:        models.ApplicationSubmitted,
		DocIDVerified: true,
	}}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.Submit(context.Background(), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, apps.submittedAt)

	apps.app.DocTranscript = true
	apps.app.DocRecommendation = true

	res, err := svc.Submit(context.Background(), "app-1")
	require.NoError(t, err)
	assert.NotNil(t, res.SubmittedAt)
	assert.NotNil(t, apps.submittedAt)
}

func TestAdmissionStartReviewRequiresSubmission(t *testing.T) {
	apps := &mockApplicationStore{app: &models.Application{
		ID:                "app-1",
		Status:            models.ApplicationSubmitted,
		DocIDVerified:     true,
		DocTranscript:     true,
		DocRecommendation: true,
	}}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

	// documents are verified but the application was never finalized
	_, err := svc.StartReview(context.Background(), "app-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	apps.app.SubmittedAt = timePtr(time.Now().UTC())

	res, err := svc.StartReview(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationUnderReview, res.Status)
	assert.Equal(t, models.ApplicationUnderReview, apps.status)
}

func TestAdmissionApproveAssignsStudentNumber(t *testing.T) {
	apps := &mockApplicationStore{app: &models.Application{
		ID:                "app-1",
		RegNumber:         "REG1234",
		Status:            models.ApplicationUnderReview,
		DocIDVerified:     true,
		DocTranscript:     true,
		DocRecommendation: true,
		SubmittedAt:       timePtr(time.Now().UTC()),
	}}
	alloc := &scriptedAllocator{studentNumbers: []string{"26000001"}}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, alloc, &fakeMailer{})

	res, err := svc.Decide(context.Background(), "app-1", models.DecisionRequest{Decision: models.DecisionApprove})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationApproved, res.Status)
	require.NotNil(t, res.StudentNumber)
	assert.Equal(t, "26000001", *res.StudentNumber)
	assert.Regexp(t, `^\d{8}$`, *res.StudentNumber)
	assert.Equal(t, "26000001", apps.assignedNumber)
}

func TestAdmissionApproveKeepsExistingStudentNumber(t *testing.T) {
	apps := &mockApplicationStore{
		app: &models.Application{
			ID:                "app-1",
			Status:            models.ApplicationUnderReview,
			DocIDVerified:     true,
			DocTranscript:     true,
			DocRecommendation: true,
		},
		locked: &models.Application{
			ID:            "app-1",
			Status:        models.ApplicationUnderReview,
			StudentNumber: strPtr("26000007"),
		},
	}
	alloc := &scriptedAllocator{}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, alloc, &fakeMailer{})

	res, err := svc.Decide(context.Background(), "app-1", models.DecisionRequest{Decision: models.DecisionApprove})
	require.NoError(t, err)

	require.NotNil(t, res.StudentNumber)
	assert.Equal(t, "26000007", *res.StudentNumber)
	assert.Zero(t, alloc.numberCalls)
	assert.Empty(t, apps.assignedNumber)
}

func TestAdmissionApproveRejectsIncompleteDocuments(t *testing.T) {
	apps := &mockApplicationStore{app: &models.Application{
		ID:            "app-1",
		Status:        models.ApplicationUnderReview,
		DocIDVerified: true,
	}}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

	_, err := svc.Decide(context.Background(), "app-1", models.DecisionRequest{Decision: models.DecisionApprove})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, apps.status)
	assert.Empty(t, apps.assignedNumber)
}

func TestAdmissionRejectAllowedBeforeAndDuringReview(t *testing.T) {
	for _, status := range []models.ApplicationStatus{models.ApplicationSubmitted, models.ApplicationUnderReview} {
		apps := &mockApplicationStore{app: &models.Application{ID: "app-1", Status: status}}
		svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

		res, err := svc.Decide(context.Background(), "app-1", models.DecisionRequest{Decision: models.DecisionReject})
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, models.ApplicationRejected, res.Status)
	}
}

func TestAdmissionDecisionsAreTerminal(t *testing.T) {
	for _, status := range []models.ApplicationStatus{models.ApplicationApproved, models.ApplicationRejected} {
		apps := &mockApplicationStore{app: &models.Application{ID: "app-1", Status: status}}
		svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

		_, err := svc.Decide(context.Background(), "app-1", models.DecisionRequest{Decision: models.DecisionReject})
		require.Error(t, err, "reject from %s", status)

		_, err = svc.Decide(context.Background(), "app-1", models.DecisionRequest{Decision: models.DecisionApprove})
		require.Error(t, err, "approve from %s", status)
	}
}

func TestAdmissionAutoProvisionRetiresReferenceAccount(t *testing.T) {
	apps := &mockApplicationStore{app: &models.Application{
		ID:                "app-1",
		RegNumber:         "REG1234",
		Email:             "ada@example.com",
		FullName:          "Ada Lovelace",
		Status:            models.ApplicationUnderReview,
		DocIDVerified:     true,
		DocTranscript:     true,
		DocRecommendation: true,
	}}
	users := &mockUserStore{userByUsername: &models.User{ID: "ref-1", Username: "REG1234"}}
	alloc := &scriptedAllocator{studentNumbers: []string{"26000001"}}
	svc := newAdmissionService(apps, users, &mockProgramStore{}, alloc, &fakeMailer{})

	_, err := svc.Decide(context.Background(), "app-1", models.DecisionRequest{
		Decision:      models.DecisionApprove,
		AutoProvision: true,
	})
	require.NoError(t, err)

	require.Len(t, users.created, 1)
	account := users.created[0]
	assert.Equal(t, "26000001", account.Username)
	assert.Equal(t, models.StudentStatusEnrolled, account.StudentStatus)
	assert.True(t, account.Active)
	assert.Equal(t, "ref-1", users.invalidatedID)
}

func TestAdmissionAutoProvisionStoresIssuedSecret(t *testing.T) {
	apps := &mockApplicationStore{app: &models.Application{
		ID:                "app-1",
		RegNumber:         "REG1234",
		Email:             "ada@example.com",
		FullName:          "Ada Lovelace",
		Status:            models.ApplicationUnderReview,
		DocIDVerified:     true,
		DocTranscript:     true,
		DocRecommendation: true,
	}}
	users := &mockUserStore{userByUsername: &models.User{ID: "ref-1", Username: "REG1234"}}
	alloc := &scriptedAllocator{studentNumbers: []string{"26000001"}, secrets: []string{"s3cr3tAB12"}}
	svc := newAdmissionService(apps, users, &mockProgramStore{}, alloc, &fakeMailer{})

	res, err := svc.Decide(context.Background(), "app-1", models.DecisionRequest{
		Decision:      models.DecisionApprove,
		AutoProvision: true,
	})
	require.NoError(t, err)

	// the minted secret is stored on the application and surfaced on the
	// decision result, so staff can hand it out later
	assert.Equal(t, "s3cr3tAB12", apps.issuedSecret)
	require.NotNil(t, res.IssuedPassword)
	assert.Equal(t, "s3cr3tAB12", *res.IssuedPassword)

	require.Len(t, users.created, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.created[0].PasswordHash), []byte("s3cr3tAB12")))
}

func TestAdmissionStatsServedFromCacheUntilInvalidated(t *testing.T) {
	apps := &mockApplicationStore{
		app: &models.Application{
			ID:                "app-1",
			Status:            models.ApplicationSubmitted,
			DocIDVerified:     true,
			DocTranscript:     true,
			DocRecommendation: true,
			SubmittedAt:       timePtr(time.Now().UTC()),
		},
		stats: &models.ApplicationStats{Submitted: 3, UnderReview: 1},
	}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeTxRunner{},
		cache, &fakeMailer{}, nil, nil, nil, AdmissionConfig{})

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Submitted)
	assert.Equal(t, 1, apps.statsCalls)

	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, second.Submitted)
	assert.Equal(t, 1, apps.statsCalls)

	// a lifecycle transition invalidates the cached counts
	_, err = svc.StartReview(context.Background(), "app-1")
	require.NoError(t, err)

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, apps.statsCalls)
}

func TestAdmissionExportCSV(t *testing.T) {
	apps := &mockApplicationStore{
		listApps: []models.Application{
			{RegNumber: "REG0001", FullName: "Ada Lovelace", Email: "ada@example.com", Program: "CS", Status: models.ApplicationApproved, StudentNumber: strPtr("26000001")},
			{RegNumber: "REG0002", FullName: "Alan Turing", Email: "alan@example.com", Program: "CS", Status: models.ApplicationSubmitted},
		},
		listTotal: 2,
	}
	svc := newAdmissionService(apps, &mockUserStore{}, &mockProgramStore{}, &scriptedAllocator{}, &fakeMailer{})

	out, err := svc.ExportCSV(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)

	csv := string(out)
	assert.Contains(t, csv, "REG0001")
	assert.Contains(t, csv, "26000001")
	assert.Contains(t, csv, "Alan Turing")
}
