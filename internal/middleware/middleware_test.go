package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/moodlens/backend/internal/apierror"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/pkg/supabase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	users map[string]string
}

func (s stubVerifier) VerifyToken(ctx context.Context, token string) (*supabase.User, error) {
	if token == "outage" {
		return nil, &supabase.Error{StatusCode: http.StatusBadGateway, Body: "upstream down"}
	}
	id, ok := s.users[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &supabase.User{ID: id}, nil
}

func echoUser(c *gin.Context) {
	c.String(http.StatusOK, UserID(c))
}

func TestAuth(t *testing.T) {
	router := gin.New()
	router.Use(Logger(logger.NewNop()), Auth(stubVerifier{users: map[string]string{"good": "user-1"}}))
	router.GET("/me", echoUser)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer good", http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"rejected token", "Bearer bad", http.StatusUnauthorized, ""},
		{"verifier outage", "Bearer outage", http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.Equal(t, apierror.ContentTypeProblemJSON, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestDevAuth(t *testing.T) {
	router := gin.New()
	router.Use(DevAuth())
	router.GET("/me", echoUser)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(DevUserHeader, "user-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-7", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoggerSetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(Logger(logger.NewNop()))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Body.String(), "a request id is generated when absent")
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestRateLimitPerUser(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute, "test")
	defer limiter.Stop()

	router := gin.New()
	router.Use(DevAuth(), RateLimit(limiter))
	router.GET("/me", echoUser)

	do := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(DevUserHeader, user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, do("a").Code)
	require.Equal(t, http.StatusOK, do("a").Code)

	limited := do("a")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do("b").Code, "limits are per user")
}

func TestSecurityHeaders(t *testing.T) {
	for _, prod := range []bool{false, true} {
		router := gin.New()
		router.Use(SecurityHeaders(prod))
		router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Equal(t, prod, w.Header().Get("Strict-Transport-Security") != "")
	}
}
