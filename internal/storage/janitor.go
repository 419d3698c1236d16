package storage

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/metrics"
)

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	// DeleteTimeout bounds each delegate delete call.
	DeleteTimeout time.Duration
}

// Janitor asynchronously deletes assets that are no longer referenced by any
// record: compensation after a failed write and assets superseded by an update.
type Janitor struct {
	delegate Delegate
	logger   *slog.Logger
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan reapJob
	wg     sync.WaitGroup
	once   sync.Once
}

// reapJob remembers which request orphaned the asset so the delete, which runs
// after that request has finished, can still be traced back to it.
type reapJob struct {
	url       string
	requestID string
}

var errJanitorClosed = errors.New("asset janitor closed")

// NewJanitor starts the worker pool.
func NewJanitor(delegate Delegate, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		delegate: delegate,
		logger:   logger,
		timeout:  cfg.DeleteTimeout,
		jobs:     make(chan reapJob, cfg.QueueSize),
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules deletion of the asset behind url. Blank URLs are ignored.
func (j *Janitor) Enqueue(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return errJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.jobs <- reapJob{url: url, requestID: logging.RequestIDFromContext(ctx)}:
		metrics.JanitorQueueDepth.Inc()
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	for job := range j.jobs {
		metrics.JanitorQueueDepth.Dec()
		j.handle(job)
	}
}

func (j *Janitor) handle(job reapJob) {
	logger := j.logger.With("url", job.url)
	if job.requestID != "" {
		logger = logger.With("request_id", job.requestID)
	}

	if j.delegate == nil {
		logger.Error("asset janitor missing delegate")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithRequestID(ctx, job.requestID)

	if err := j.delegate.Delete(ctx, job.url); err != nil {
		metrics.JanitorDeletes.WithLabelValues("failure").Inc()
		logger.Error("orphaned asset delete failed", "error", err)
		return
	}
	metrics.JanitorDeletes.WithLabelValues("success").Inc()
	logger.Info("orphaned asset deleted")
}
