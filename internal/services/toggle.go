package services

import (
	"context"
	"errors"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/repositories"
)

const maxToggleAttempts = 3

// retryToggle runs an atomic store toggle. A conflict means a concurrent
// request toggled the same edge between our delete and insert; the toggle is
// re-run against the fresh state instead of surfacing the race.
func retryToggle(ctx context.Context, relation, notFound string, toggle func() (bool, error)) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		state, err := toggle()
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, repositories.ErrConflict) {
			return false, storeError(err, notFound)
		}

		lastErr = err
		metrics.ToggleRetries.WithLabelValues(relation).Inc()
		logging.FromContext(ctx).Warn("toggle raced with a concurrent write", "relation", relation, "attempt", attempt)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, apperr.Unknown(ctxErr)
		}
	}
	return false, apperr.Wrap(apperr.KindConflict, "concurrent update, please retry", lastErr)
}
