// Package analytics records visits off the redirect's critical path.
//
// A dispatched visit runs to completion or failure independently of the
// request that produced it. Failures are logged and never retried. When the
// number of in-flight appends reaches the configured limit, new visits are
// dropped and logged.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 64
	DefaultTimeout     = 5 * time.Second
)

type visitAppender interface {
	FindAndAppendVisit(ctx context.Context, shortID string, visit entity.Visit) (*entity.ShortLink, error)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithConcurrency bounds the number of in-flight appends.
func WithConcurrency(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout bounds a single append.
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock replaces time.Now when stamping visits.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// Recorder dispatches visit appends to a bounded set of goroutines.
type Recorder struct {
	repo        visitAppender
	logger      *slog.Logger
	concurrency int
	timeout     time.Duration
	now         func() time.Time

	mu     sync.RWMutex
	closed bool
	g      errgroup.Group
}

// New returns a Recorder appending visits through repo.
func New(repo visitAppender, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		repo:        repo,
		logger:      logger,
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.g.SetLimit(r.concurrency)

	return r
}

// RecordVisit schedules a visit append for shortID and returns immediately.
// It reports whether the visit was dispatched.
func (r *Recorder) RecordVisit(shortID string) bool {
	const op = "analytics.Recorder.RecordVisit"

	visit := entity.NewVisit(r.now())

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("recorder closed, visit dropped", slog.String("op", op), slog.String("short_id", shortID))
		return false
	}

	ok := r.g.TryGo(func() error {
		r.append(shortID, visit)
		return nil
	})
	if !ok {
		r.logger.Warn("too many in-flight visits, visit dropped", slog.String("op", op), slog.String("short_id", shortID))
	}

	return ok
}

// Wait blocks until every dispatched append has finished.
func (r *Recorder) Wait() {
	_ = r.g.Wait()
}

// Close stops accepting visits and waits for in-flight appends.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.Wait()

	return nil
}

func (r *Recorder) append(shortID string, visit entity.Visit) {
	const op = "analytics.Recorder.append"

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic while recording visit", slog.String("op", op), slog.Any("panic", rec))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.repo.FindAndAppendVisit(ctx, shortID, visit); err != nil {
		level := slog.LevelError
		if errors.Is(err, entity.ErrShortLinkNotFound) {
			level = slog.LevelWarn
		}

		r.logger.Log(ctx, level, "failed to record visit",
			slog.String("op", op),
			slog.String("short_id", shortID),
			slog.Any("err", err),
		)
	}
}
