package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/metrics"
)

// Span times one service operation. Lines logged under it carry the operation
// name next to the request ID inherited from the request logger.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan returns a context whose logger is tagged with the operation name.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	logger := FromContext(ctx).With(slog.String("operation", name))
	span := &Span{name: name, logger: logger, start: time.Now()}
	return WithLogger(ctx, logger), span
}

// End records the operation's duration.
func (s *Span) End() {
	if s == nil {
		return
	}
	elapsed := time.Since(s.start)
	metrics.OperationDuration.WithLabelValues(s.name).Observe(elapsed.Seconds())
	s.logger.Debug("operation completed", slog.Duration("duration", elapsed))
}
