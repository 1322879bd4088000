package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"keypad-calculator/internal/handlers"
)

// Failure describes one failed operation for RecordError.
type Failure struct {
	Op      string
	Message string
	Err     error
	Status  int
}

// RecordError centralises error handling across all domains: records the error
// on the span, increments counter, logs with trace context, and writes a JSON
// error response. Client errors (4xx) are logged at warn level.
func RecordError(ctx context.Context, span trace.Span, logger *zap.Logger, counter metric.Int64Counter, f Failure, w http.ResponseWriter) {
	span.RecordError(f.Err)
	span.SetStatus(codes.Error, f.Message)

	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", f.Op)))

	fields := []zap.Field{
		zap.String("operation", f.Op),
		zap.Int("status", f.Status),
		zap.Error(f.Err),
		zap.String("request_id", RequestIDFromContext(ctx)),
	}
	if f.Status < http.StatusInternalServerError {
		logger.Warn(f.Message, fields...)
	} else {
		logger.Error(f.Message, fields...)
	}

	handlers.WriteError(w, f.Status, f.Message)
}
