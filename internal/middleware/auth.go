package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/moodlens/backend/internal/apierror"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/pkg/supabase"
)

const (
	userIDKey = "user_id"
	// DevUserHeader carries a trusted user id when token auth is disabled
	DevUserHeader = "X-User-ID"

	authRetryAfterSeconds = 5
)

// TokenVerifier resolves a bearer token to a user
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*supabase.User, error)
}

// Auth middleware to verify JWT tokens
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("authentication failed: missing authorization header")
			unauthorized(c)
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Debug("authentication failed: invalid authorization format")
			unauthorized(c)
			return
		}

		user, err := verifier.VerifyToken(c.Request.Context(), parts[1])
		var supaErr *supabase.Error
		switch {
		case errors.As(err, &supaErr) && supaErr.StatusCode >= 500:
			log.Error("token verification unavailable", logger.Err(err))
			apierror.WriteProblem(c, apierror.NewServiceUnavailableError(apierror.GetRequestID(c), authRetryAfterSeconds))
			c.Abort()
			return
		case err != nil:
			log.Warn("authentication failed: token verification error",
				logger.Err(err),
			)
			unauthorized(c)
			return
		}

		setUser(c, user.ID)
		c.Next()
	}
}

// DevAuth trusts the X-User-ID header. It is only wired outside production,
// for the memory store and local bot development.
func DevAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(DevUserHeader))
		if userID == "" {
			logger.FromContext(c.Request.Context()).Debug("authentication failed: missing user header")
			unauthorized(c)
			return
		}

		setUser(c, userID)
		c.Next()
	}
}

// UserID returns the authenticated user set by Auth or DevAuth
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func setUser(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)

	// Add user ID to request context for logging
	ctx := logger.WithUserID(c.Request.Context(), userID)
	c.Request = c.Request.WithContext(ctx)
}

func unauthorized(c *gin.Context) {
	apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
	c.Abort()
}
