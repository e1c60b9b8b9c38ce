package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uok-ict/portal-api/internal/models"
	"github.com/uok-ict/portal-api/internal/service"
)

type fakeAuthRepo struct {
	user *models.User
}

func (f *fakeAuthRepo) Create(context.Context, *models.User) error { return nil }

func (f *fakeAuthRepo) FindByID(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) FindByUsername(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeAuthRepo) ExistsUsername(context.Context, string) (bool, error) { return false, nil }

func (f *fakeAuthRepo) UpdateLastLogin(context.Context, string, time.Time) error { return nil }

func (f *fakeAuthRepo) UpdatePassword(context.Context, string, string, time.Time) error { return nil }

func newLoginContext(t *testing.T, portal, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/"+portal+"/login", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "portal", Value: portal}}
	return c, rec
}

func newTestAuthHandler(t *testing.T, role models.UserRole) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeAuthRepo{user: &models.User{
		ID:           "user-1",
		Username:     "26000001",
		PasswordHash: string(hash),
		FullName:     "Ada Lovelace",
		Role:         role,
		Active:       true,
	}}
	svc := service.NewAuthService(repo, nil, nil, service.AuthConfig{Secret: "test-secret"})
	return NewAuthHandler(svc)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	handler := newTestAuthHandler(t, models.RoleStudent)
	c, rec := newLoginContext(t, "student", `{"username":"26000001","password":"password123"}`)

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
}

func TestAuthHandlerLoginUnknownPortal(t *testing.T) {
	handler := newTestAuthHandler(t, models.RoleStudent)
	c, rec := newLoginContext(t, "wizards", `{"username":"26000001","password":"password123"}`)

	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLoginWrongPortal(t *testing.T) {
	handler := newTestAuthHandler(t, models.RoleStaff)
	c, rec := newLoginContext(t, "student", `{"username":"26000001","password":"password123"}`)

	handler.Login(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthHandlerMeRequiresClaims(t *testing.T) {
	handler := newTestAuthHandler(t, models.RoleStudent)
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
