package logger

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	userIDKey
	triggerKey
)

// Triggers recorded on analysis runs
const (
	TriggerRequest = "request"
	TriggerEntry   = "entry_added"
)

// WithLogger stores l in ctx
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or the process default
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID tags ctx with a request id, minting one when the caller
// sent none
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithUserID tags ctx with the user whose mood data is being handled
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithTrigger records what started an analysis run
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey, trigger)
}

func TriggerFromContext(ctx context.Context) string {
	t, _ := ctx.Value(triggerKey).(string)
	return t
}

func contextFields(ctx context.Context) []Field {
	var fields []Field
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, String("request_id", id))
	}
	if id := UserIDFromContext(ctx); id != "" {
		fields = append(fields, UserID(id))
	}
	if t := TriggerFromContext(ctx); t != "" {
		fields = append(fields, String("trigger", t))
	}
	return fields
}

// Ctx is FromContext(ctx).WithContext(ctx)
func Ctx(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
