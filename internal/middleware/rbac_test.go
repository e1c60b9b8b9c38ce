package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/uok-ict/portal-api/internal/models"
)

func newClaimsContext(t *testing.T, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/user-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "user-1"}}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	return c, rec
}

func TestRequireStaffAdmitsReviewRoles(t *testing.T) {
	mw := RequireStaff()

	for _, role := range []models.UserRole{models.RoleStaff, models.RoleAdmin} {
		c, _ := newClaimsContext(t, &models.JWTClaims{UserID: "user-9", Role: role})
		mw(c)
		assert.False(t, c.IsAborted(), "role %s", role)
	}

	c, rec := newClaimsContext(t, &models.JWTClaims{UserID: "user-9", Role: models.RoleStudent})
	mw(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	c, rec := newClaimsContext(t, nil)
	RequireAdmin()(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelfOrRolesAllowsOwnRecord(t *testing.T) {
	mw := SelfOrRoles("id", models.RoleAdmin)

	// a student reading their own account
	c, _ := newClaimsContext(t, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})
	mw(c)
	assert.False(t, c.IsAborted())

	// a student reading somebody else's account
	c, rec := newClaimsContext(t, &models.JWTClaims{UserID: "user-2", Role: models.RoleStudent})
	mw(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// an admin reading anybody's account
	c, _ = newClaimsContext(t, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	mw(c)
	assert.False(t, c.IsAborted())
}

func TestCurrentClaimsRoundTrip(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Username: "26000001", Role: models.RoleStudent}
	c, _ := newClaimsContext(t, claims)

	got, ok := CurrentClaims(c)
	assert.True(t, ok)
	assert.Equal(t, "26000001", got.Username)

	c, _ = newClaimsContext(t, nil)
	_, ok = CurrentClaims(c)
	assert.False(t, ok)
}
