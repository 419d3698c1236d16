package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/vidtube/backend/internal/metrics"
)

// BreakerConfig controls when the delegate stops accepting calls.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerDelegate wraps a Delegate with a circuit breaker so a failing media
// service is reported quickly instead of tying up requests.
type BreakerDelegate struct {
	base    Delegate
	uploads *gobreaker.CircuitBreaker[Uploaded]
	deletes *gobreaker.CircuitBreaker[struct{}]
}

var _ Delegate = (*BreakerDelegate)(nil)

// NewBreakerDelegate wraps base. Uploads and deletes trip independently.
func NewBreakerDelegate(base Delegate, cfg BreakerConfig, logger *slog.Logger) *BreakerDelegate {
	if cfg.Name == "" {
		cfg.Name = "media"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := func(name string) gobreaker.Settings {
		metrics.MediaBreakerState.WithLabelValues(name).Set(0)
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("media breaker state change", "breaker", name, "from", from.String(), "to", to.String())
				metrics.MediaBreakerState.WithLabelValues(name).Set(float64(to))
			},
		}
	}

	return &BreakerDelegate{
		base:    base,
		uploads: gobreaker.NewCircuitBreaker[Uploaded](settings(cfg.Name + "-upload")),
		deletes: gobreaker.NewCircuitBreaker[struct{}](settings(cfg.Name + "-delete")),
	}
}

// Upload forwards to the wrapped delegate unless the upload breaker is open.
func (b *BreakerDelegate) Upload(ctx context.Context, asset Asset) (Uploaded, error) {
	uploaded, err := b.uploads.Execute(func() (Uploaded, error) {
		return b.base.Upload(ctx, asset)
	})
	metrics.MediaOperations.WithLabelValues("upload", outcome(err)).Inc()
	if err != nil {
		return Uploaded{}, translateBreakerError(err)
	}
	return uploaded, nil
}

// Delete forwards to the wrapped delegate unless the delete breaker is open.
func (b *BreakerDelegate) Delete(ctx context.Context, url string) error {
	_, err := b.deletes.Execute(func() (struct{}, error) {
		return struct{}{}, b.base.Delete(ctx, url)
	})
	metrics.MediaOperations.WithLabelValues("delete", outcome(err)).Inc()
	if err != nil {
		return translateBreakerError(err)
	}
	return nil
}

func translateBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrDelegateUnavailable, err)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "failure"
	}
}
