package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents a logical unit of work tied to a request trace, such as the
// OAuth callback's exchange-then-persist sequence.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from the provided context, enriching the logger
// with tracing metadata. It returns the derived context and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, logger := ensureTrace(ctx)

	parentSpanID := SpanIDFromContext(ctx)
	spanID := uuid.NewString()

	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parentSpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parentSpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = WithSpanID(ctx, spanID)

	return ctx, &Span{
		name:   name,
		logger: logger,
		start:  time.Now(),
	}
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Info("span completed",
		slog.Int64("duration_ms", time.Since(s.start).Milliseconds()),
	)
}

// ensureTrace guarantees the context carries a trace id, minting one for
// requests that did not pass through the middleware.
func ensureTrace(ctx context.Context) (context.Context, *slog.Logger) {
	logger := FromContext(ctx)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	return ctx, logger
}
