// Package usecase implements short link allocation, redirect resolution
// and analytics reads on top of a persistent store and a redirect cache.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/cache"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/shortid"
)

const (
	DefaultMaxAttempts = 5
	// maxURLConflicts bounds how often a lost create race on the redirect
	// URL sends allocation back to the duplicate lookup.
	maxURLConflicts = 3
)

type shortLinkRepository interface {
	Create(ctx context.Context, shortID, redirectURL string) (*entity.ShortLink, error)
	FindByURL(ctx context.Context, redirectURL string) (*entity.ShortLink, error)
	FindByShortID(ctx context.Context, shortID string) (*entity.ShortLink, error)
	FindAndAppendVisit(ctx context.Context, shortID string, visit entity.Visit) (*entity.ShortLink, error)
}

type redirectCache interface {
	Get(shortID string) (string, bool)
	Set(shortID, redirectURL string)
	Stats() cache.Stats
}

type urlValidator interface {
	Check(candidate string) error
}

type visitRecorder interface {
	RecordVisit(shortID string) bool
}

// Config holds allocation and shape settings. Zero fields keep the defaults.
type Config struct {
	ShortIDLength    int
	ShortIDMinLength int
	ShortIDMaxLength int
	MaxAttempts      int
}

func (c *Config) setDefaults() {
	if c.ShortIDLength <= 0 {
		c.ShortIDLength = shortid.DefaultLength
	}
	if c.ShortIDMinLength <= 0 {
		c.ShortIDMinLength = shortid.DefaultMinLength
	}
	if c.ShortIDMaxLength <= 0 {
		c.ShortIDMaxLength = shortid.DefaultMaxLength
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
}

// Option configures a ShortLinkUseCase.
type Option func(*ShortLinkUseCase)

// WithGenerator replaces the short ID generator.
func WithGenerator(gen shortid.Generator) Option {
	return func(uc *ShortLinkUseCase) {
		uc.generate = gen
	}
}

// WithClock replaces time.Now when stamping visits.
func WithClock(now func() time.Time) Option {
	return func(uc *ShortLinkUseCase) {
		uc.now = now
	}
}

type ShortLinkUseCase struct {
	cfg       Config
	repo      shortLinkRepository
	cache     redirectCache
	validator urlValidator
	recorder  visitRecorder
	generate  shortid.Generator
	now       func() time.Time
	logger    *slog.Logger
}

func New(
	cfg Config,
	repo shortLinkRepository,
	redirects redirectCache,
	validator urlValidator,
	recorder visitRecorder,
	logger *slog.Logger,
	opts ...Option,
) *ShortLinkUseCase {
	cfg.setDefaults()

	uc := &ShortLinkUseCase{
		cfg:       cfg,
		repo:      repo,
		cache:     redirects,
		validator: validator,
		recorder:  recorder,
		generate:  shortid.Generate,
		now:       time.Now,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// CacheStats returns the redirect cache counters.
func (uc *ShortLinkUseCase) CacheStats() cache.Stats {
	return uc.cache.Stats()
}

func (uc *ShortLinkUseCase) validShortID(shortID string) bool {
	return shortid.Valid(shortID, uc.cfg.ShortIDMinLength, uc.cfg.ShortIDMaxLength)
}
