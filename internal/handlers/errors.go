package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JonnyWalker81/moodlens/backend/internal/apierror"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/internal/repository"
	"github.com/JonnyWalker81/moodlens/backend/internal/service"
)

const timeoutRetryAfterSeconds = 5

// currentUser returns the user set by the auth middleware
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
		return "", false
	}
	return userID, true
}

// writeError maps service errors onto problem details. Unknown errors are
// logged and reported as 500 without detail.
func writeError(c *gin.Context, err error, resource, id string) {
	requestID := apierror.GetRequestID(c)

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		apierror.WriteProblem(c, apierror.NewValidationError(requestID, apierror.FieldErrorsFrom(verr)))
	case errors.Is(err, service.ErrInvalidUUID), errors.Is(err, service.ErrNotUUIDv7):
		apierror.WriteProblem(c, apierror.NewInvalidUUIDError(requestID, "id", id))
	case errors.Is(err, service.ErrFutureTimestamp):
		apierror.WriteProblem(c, apierror.NewFutureTimestampError(requestID, "id"))
	case errors.Is(err, repository.ErrDuplicateID):
		apierror.WriteProblem(c, apierror.NewDuplicateEntryError(requestID, id))
	case errors.Is(err, repository.ErrNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, resource, id))
	case errors.Is(err, context.DeadlineExceeded):
		logger.Ctx(c.Request.Context()).Warn("request timed out",
			logger.String("resource", resource),
			logger.Err(err),
		)
		apierror.WriteProblem(c, apierror.NewServiceUnavailableError(requestID, timeoutRetryAfterSeconds))
	default:
		logger.Ctx(c.Request.Context()).Error("request failed",
			logger.String("resource", resource),
			logger.Err(err),
		)
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}

// parseRange reads optional RFC3339 start and end query parameters
func parseRange(c *gin.Context) (start, end *time.Time, ok bool) {
	var fieldErrors []apierror.FieldError

	parse := func(key string) *time.Time {
		raw := c.Query(key)
		if raw == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fieldErrors = append(fieldErrors, apierror.FieldError{
				Field:   key,
				Message: "must be a valid RFC3339 timestamp",
				Code:    "invalid_format",
			})
			return nil
		}
		return &t
	}

	start = parse("start")
	end = parse("end")

	if len(fieldErrors) > 0 {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), fieldErrors))
		return nil, nil, false
	}
	return start, end, true
}
