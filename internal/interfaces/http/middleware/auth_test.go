package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keygate/internal/infrastructure/auth"
	"keygate/internal/infrastructure/ratelimit"
	"keygate/internal/shared/config"
	"keygate/internal/shared/constants"
	"keygate/internal/shared/logger"
)

func newTestLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService("test-secret", 60)
	m := NewAuthMiddleware(jwtService, newTestLogger())

	r := gin.New()
	r.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
		userID, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r, jwtService
}

func TestRequireAuth_ValidToken(t *testing.T) {
	r, jwtService := setupAuthRouter(t)

	token, _, err := jwtService.Issue(42, false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	r, jwtService := setupAuthRouter(t)

	token, _, err := jwtService.Issue(42, false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_BadToken(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r, jwtService := setupAuthRouter(t)

	adminToken, _, err := jwtService.Issue(1, true)
	require.NoError(t, err)
	userToken, _, err := jwtService.Issue(2, false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// stubLimiter counts calls and denies once the configured budget runs out.
type stubLimiter struct {
	remaining int
	err       error
	keys      []string
}

func (s *stubLimiter) Allow(key string, config ratelimit.WindowConfig) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	if s.remaining <= 0 {
		return false, nil
	}
	s.remaining--
	return true, nil
}

func (s *stubLimiter) GetRemaining(key string, window time.Duration) (int64, error) {
	return int64(s.remaining), nil
}

func (s *stubLimiter) Reset(key string) error { return nil }

func setupHeartbeatRouter(limiter ratelimit.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.HeartbeatRateLimitConfig{Limit: 2, WindowSeconds: 60}

	r := gin.New()
	r.POST("/heartbeat",
		func(c *gin.Context) {
			c.Set(constants.ContextKeyUserID, uint(7))
			c.Next()
		},
		HeartbeatRateLimit(limiter, cfg, newTestLogger()),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	return r
}

func TestHeartbeatRateLimit_DeniesWhenExhausted(t *testing.T) {
	limiter := &stubLimiter{remaining: 2}
	r := setupHeartbeatRouter(limiter)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/heartbeat", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/heartbeat", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHeartbeatRateLimit_KeyedByUser(t *testing.T) {
	limiter := &stubLimiter{remaining: 10}
	r := setupHeartbeatRouter(limiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/heartbeat", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, limiter.keys, 1)
	assert.Equal(t, "heartbeat:user:7", limiter.keys[0])
}

func TestHeartbeatRateLimit_FailsOpenOnLimiterError(t *testing.T) {
	limiter := &stubLimiter{err: assert.AnError}
	r := setupHeartbeatRouter(limiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
