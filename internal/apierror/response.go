package apierror

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the RFC 9457 media type
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem renders problem as application/problem+json. Instance
// defaults to the request path and Retry-After mirrors RetryAfter.
func WriteProblem(c *gin.Context, problem *ProblemDetails) {
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	if problem.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*problem.RetryAfter))
	}
	c.JSON(problem.Status, problem)
}

// GetRequestID returns the id assigned by the request logger, falling back
// to the inbound X-Request-ID header
func GetRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	if c.Request == nil {
		return ""
	}
	return c.GetHeader("X-Request-ID")
}

func newProblem(status int, typ, title, requestID, detail, userMessage string) *ProblemDetails {
	return &ProblemDetails{
		Type:        typ,
		Title:       title,
		Status:      status,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: userMessage,
	}
}

// NewValidationError reports every invalid field of an entry or query at
// once, so the web or bot layer can re-prompt for all of them
func NewValidationError(requestID string, errors []FieldError) *ProblemDetails {
	p := newProblem(http.StatusBadRequest, TypeValidation, TitleValidation, requestID,
		"One or more fields failed validation",
		"Please check your check-in and try again")
	p.Errors = errors
	return p
}

func NewNotFoundError(requestID, resource, id string) *ProblemDetails {
	return newProblem(http.StatusNotFound, TypeNotFound, TitleNotFound, requestID,
		fmt.Sprintf("%s with ID '%s' was not found", resource, id),
		fmt.Sprintf("The requested %s could not be found", resource))
}

// NewDuplicateEntryError is returned when an append reuses an existing
// entry id
func NewDuplicateEntryError(requestID, id string) *ProblemDetails {
	return newProblem(http.StatusConflict, TypeDuplicateEntry, TitleDuplicateEntry, requestID,
		fmt.Sprintf("An entry with ID '%s' already exists", id),
		"This check-in was already saved")
}

// NewRateLimitError tells the client to wait retryAfter seconds
func NewRateLimitError(requestID string, retryAfter int) *ProblemDetails {
	p := newProblem(http.StatusTooManyRequests, TypeRateLimit, TitleRateLimit, requestID,
		fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds", retryAfter),
		"Too many requests. Please wait before trying again.")
	p.RetryAfter = &retryAfter
	return p
}

// NewInternalError never carries the underlying error; log it instead
func NewInternalError(requestID string) *ProblemDetails {
	return newProblem(http.StatusInternalServerError, TypeInternal, TitleInternal, requestID,
		"An unexpected error occurred",
		"Something went wrong. Please try again later.")
}

func NewBadRequestError(requestID, detail, userMessage string) *ProblemDetails {
	return newProblem(http.StatusBadRequest, TypeBadRequest, TitleBadRequest, requestID, detail, userMessage)
}

func NewUnauthorizedError(requestID string) *ProblemDetails {
	return newProblem(http.StatusUnauthorized, TypeUnauthorized, TitleUnauthorized, requestID,
		"Authentication is required to access this resource",
		"Please sign in to continue")
}

// NewInvalidUUIDError rejects a client entry id that is not a UUIDv7
func NewInvalidUUIDError(requestID, field, value string) *ProblemDetails {
	p := newProblem(http.StatusBadRequest, TypeInvalidUUID, TitleInvalidUUID, requestID,
		fmt.Sprintf("Field '%s' must be a UUIDv7, got '%s'", field, value),
		"Invalid identifier format")
	p.Errors = []FieldError{{Field: field, Message: "must be a UUIDv7", Code: "invalid_uuid"}}
	return p
}

func NewFutureTimestampError(requestID, field string) *ProblemDetails {
	p := newProblem(http.StatusBadRequest, TypeFutureTimestamp, TitleFutureTimestamp, requestID,
		fmt.Sprintf("Field '%s' contains a timestamp more than 1 minute in the future", field),
		"The timestamp is too far in the future")
	p.Errors = []FieldError{{
		Field:   field,
		Message: "timestamp cannot be more than 1 minute in the future",
		Code:    "future_timestamp",
	}}
	return p
}

// NewServiceUnavailableError reports a collaborator outage (token
// verification, storage, an analysis run past its deadline)
func NewServiceUnavailableError(requestID string, retryAfter int) *ProblemDetails {
	p := newProblem(http.StatusServiceUnavailable, TypeUnavailable, TitleUnavailable, requestID,
		"The service is temporarily unavailable",
		"Service is temporarily unavailable. Please try again later.")
	p.RetryAfter = &retryAfter
	return p
}
