// Package apierror renders RFC 9457 Problem Details for the moodlens API.
package apierror

import "github.com/JonnyWalker81/moodlens/backend/internal/models"

// ProblemDetails represents an RFC 9457 Problem Details response.
// See https://www.rfc-editor.org/rfc/rfc9457.html
type ProblemDetails struct {
	// RFC 9457 standard fields
	Type     string `json:"type"`               // URI reference identifying the problem type
	Title    string `json:"title"`              // Short human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation specific to this occurrence
	Instance string `json:"instance,omitempty"` // Request path that produced the problem

	// Extension fields
	RequestID   string       `json:"request_id,omitempty"`   // Correlation ID from X-Request-ID header
	UserMessage string       `json:"user_message,omitempty"` // UI-safe message for the web or bot layer
	RetryAfter  *int         `json:"retry_after,omitempty"`  // Seconds until retry allowed (429, 503)
	Errors      []FieldError `json:"errors,omitempty"`       // Every invalid field found
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface for ProblemDetails.
func (p *ProblemDetails) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

// FieldErrorsFrom converts entry validation problems into field errors
func FieldErrorsFrom(verr *models.ValidationError) []FieldError {
	out := make([]FieldError, 0, len(verr.Problems))
	for _, p := range verr.Problems {
		out = append(out, FieldError{Field: p.Field, Message: p.Message, Code: p.Code})
	}
	return out
}
