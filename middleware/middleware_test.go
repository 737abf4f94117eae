package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/cppla/evsign/utils"
)

var secret = []byte("test-secret")

func protectedEngine(bl *utils.Blacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/p", AuthRequired(secret, bl), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, ctx.GetString(ContextUsernameKey))
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	bl := utils.NewBlacklist(nil)
	r := protectedEngine(bl)

	good, err := utils.GenerateToken(secret, "admin", time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateToken([]byte("other"), "admin", time.Hour)
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.Claims{
		Username: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer  ", http.StatusUnauthorized},
		{"forged", "Bearer " + forged, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, get(r, tt.header).Code)
		})
	}

	w := get(r, "bearer "+good)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "admin", w.Body.String())
}

func TestAuthRequiredRevoked(t *testing.T) {
	bl := utils.NewBlacklist(nil)
	r := protectedEngine(bl)

	tok, err := utils.GenerateToken(secret, "admin", 0)
	require.NoError(t, err)
	claims, err := utils.ParseToken(secret, tok)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, get(r, "Bearer "+tok).Code)
	bl.Revoke(context.Background(), claims.ID, time.Time{})
	require.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+tok).Code)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(2) // burst of 1
	r := gin.New()
	r.GET("/x", rl.Middleware(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusNoContent, hit("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	require.Equal(t, http.StatusNoContent, hit("10.0.0.2"))
}
