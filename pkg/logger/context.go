package logger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey struct{}

var requestIDKey contextKey

// ContextWithRequestID tags ctx so every line logged through Ctx or LogAttrs
// carries request_id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

func (l *ZapLogger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return ContextWithRequestID(ctx, requestID)
}

func (l *ZapLogger) GetRequestID(ctx context.Context) string {
	return RequestIDFromContext(ctx)
}

func (l *ZapLogger) GenerateRequestID() string {
	return uuid.NewString()
}

func (l *ZapLogger) contextLogger(ctx context.Context) *zap.Logger {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		return l.logger
	}
	return l.logger.With(zap.String("request_id", requestID))
}
