package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kasirless/internal/middleware"
	"kasirless/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "auth-test-secret"

func mintToken(t *testing.T, role string) string {
	t.Helper()
	claims := &service.Claims{
		StaffID:  "9e5a0a39-0000-0000-0000-000000000001",
		Username: "tester",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// cashierRoutes mirrors the real route layering: the group admits cashiers
// and admins, the cancel route stacks an extra admin-only guard on top.
func cashierRoutes() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }

	grp := r.Group("/cashier", middleware.JWTAuth(testSecret), middleware.RequireRole("cashier", "admin"))
	grp.POST("/:id/mark-paid", ok)
	grp.POST("/:id/cancel", middleware.RequireRole("admin"), ok)
	return r
}

func hit(r *gin.Engine, path, token string) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestStaffRoutesRequireToken(t *testing.T) {
	r := cashierRoutes()
	assert.Equal(t, http.StatusUnauthorized, hit(r, "/cashier/1/mark-paid", ""))
	assert.Equal(t, http.StatusUnauthorized, hit(r, "/cashier/1/mark-paid", "not-a-jwt"))
}

func TestTokenSignedWithWrongSecretRejected(t *testing.T) {
	claims := &service.Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, hit(cashierRoutes(), "/cashier/1/mark-paid", forged))
}

func TestCashierCanSettleButNotCancel(t *testing.T) {
	r := cashierRoutes()
	token := mintToken(t, "cashier")

	assert.Equal(t, http.StatusOK, hit(r, "/cashier/1/mark-paid", token))
	assert.Equal(t, http.StatusForbidden, hit(r, "/cashier/1/cancel", token))
}

func TestAdminCanCancel(t *testing.T) {
	r := cashierRoutes()
	token := mintToken(t, "admin")

	assert.Equal(t, http.StatusOK, hit(r, "/cashier/1/mark-paid", token))
	assert.Equal(t, http.StatusOK, hit(r, "/cashier/1/cancel", token))
}

func TestKitchenRoleExcludedFromCashierRoutes(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, hit(cashierRoutes(), "/cashier/1/mark-paid", mintToken(t, "kitchen")))
}
