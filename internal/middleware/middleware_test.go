package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timify-bridge/internal/models"
	appErrors "github.com/noah-isme/timify-bridge/pkg/errors"
	"github.com/noah-isme/timify-bridge/pkg/logger"
)

type tokenValidatorStub struct {
	claims *models.JWTClaims
}

func (s tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(logger.UserIDKey)})
	})
	r.GET("/courses/:courseId", handlers...)
	return r
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newRouter(JWT(tokenValidatorStub{}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/c1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/courses/c1", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/courses/c1", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAndRequireStaff(t *testing.T) {
	student := tokenValidatorStub{claims: &models.JWTClaims{UserID: "10", Role: models.RoleStudent}}
	staff := tokenValidatorStub{claims: &models.JWTClaims{UserID: "20", Role: models.RoleStaff}}

	req := httptest.NewRequest(http.MethodGet, "/courses/c1", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	newRouter(JWT(student), RequireStaff()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(JWT(staff), RequireStaff()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"20"}`, rec.Body.String())
}

func TestRequireStaffWithoutClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(RequireStaff()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/c1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	observer := &observerStub{}
	rec := httptest.NewRecorder()
	newRouter(Metrics(observer)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/c1", nil))
	assert.Equal(t, "/courses/:courseId", observer.path)
	assert.Equal(t, http.StatusOK, observer.status)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	assert.Nil(t, ExtractMeta(c))
	SetMeta(c, "degraded", true)
	meta := ExtractMeta(c)
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["degraded"])
}
