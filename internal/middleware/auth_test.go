package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testRouter(handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/required", AuthRequired(testSecret), handler)
	r.GET("/optional", AuthOptional(testSecret), handler)
	return r
}

func echoUserID(c *gin.Context) {
	id, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id})
}

func request(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	r := testRouter(echoUserID)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := request(r, "/required", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	r := testRouter(echoUserID)

	w := request(r, "/required", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsMalformedHeader(t *testing.T) {
	r := testRouter(echoUserID)

	w := request(r, "/required", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(r, "/required", "Bearer")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	r := testRouter(echoUserID)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	w := request(r, "/required", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsWrongSecret(t *testing.T) {
	r := testRouter(echoUserID)
	token := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := request(r, "/required", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsTokenWithoutUserID(t *testing.T) {
	r := testRouter(echoUserID)
	token := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	w := request(r, "/required", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthOptionalPassesAnonymous(t *testing.T) {
	r := testRouter(echoUserID)

	w := request(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":null`)
}

func TestAuthOptionalIgnoresInvalidToken(t *testing.T) {
	r := testRouter(echoUserID)

	w := request(r, "/optional", "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":null`)
}

func TestAuthOptionalPicksUpViewer(t *testing.T) {
	r := testRouter(echoUserID)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 3,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := request(r, "/optional", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":3`)
}
