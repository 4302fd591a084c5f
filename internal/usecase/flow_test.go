package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/analytics"
	"github.com/vadimbarashkov/shortlink/internal/cache"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/urlcheck"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

// FlowTestSuite drives the use case against the in-memory store with real
// cache and recorder.
type FlowTestSuite struct {
	suite.Suite
	clock    atomic.Int64
	repo     *memory.ShortLinkRepository
	cache    *cache.RedirectCache
	recorder *analytics.Recorder
	uc       *usecase.ShortLinkUseCase
}

func (suite *FlowTestSuite) now() time.Time {
	return time.Unix(0, suite.clock.Load())
}

func (suite *FlowTestSuite) SetupSubTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	suite.clock.Store(time.UnixMilli(1700000000000).UnixNano())
	suite.repo = memory.NewShortLinkRepository()
	suite.cache = cache.New(cache.WithTTL(time.Minute), cache.WithClock(suite.now))
	suite.recorder = analytics.New(suite.repo, logger, analytics.WithClock(suite.now))
	suite.uc = usecase.New(
		usecase.Config{},
		suite.repo,
		suite.cache,
		urlcheck.New(false, logger),
		suite.recorder,
		logger,
		usecase.WithClock(suite.now),
	)
}

func (suite *FlowTestSuite) TearDownSubTest() {
	suite.NoError(suite.recorder.Close())
}

func (suite *FlowTestSuite) shorten(longURL string) *entity.ShortLink {
	link, _, err := suite.uc.ShortenURL(context.Background(), longURL)
	suite.Require().NoError(err)
	return link
}

func (suite *FlowTestSuite) TestShorten() {
	ctx := context.Background()

	suite.Run("same url twice yields one link", func() {
		first, created, err := suite.uc.ShortenURL(ctx, "https://example.com/a")
		suite.Require().NoError(err)
		suite.True(created)

		second, created, err := suite.uc.ShortenURL(ctx, "https://example.com/a")
		suite.Require().NoError(err)
		suite.False(created)

		suite.Equal(first.ShortID, second.ShortID)
		suite.Equal(1, suite.repo.Count())
	})

	suite.Run("distinct urls yield distinct links", func() {
		a := suite.shorten("https://example.com/a")
		b := suite.shorten("https://example.com/b")

		suite.NotEqual(a.ShortID, b.ShortID)
		suite.Len(a.ShortID, 8)
		suite.Equal(2, suite.repo.Count())
	})

	suite.Run("shortened link is cached", func() {
		link := suite.shorten("https://example.com/a")

		url, ok := suite.cache.Get(link.ShortID)
		suite.True(ok)
		suite.Equal("https://example.com/a", url)
	})
}

func (suite *FlowTestSuite) TestResolve() {
	ctx := context.Background()

	suite.Run("warm and cold paths both count", func() {
		link := suite.shorten("https://example.com/a")

		// warm: cached by ShortenURL
		url, err := suite.uc.ResolveShortID(ctx, link.ShortID)
		suite.Require().NoError(err)
		suite.Equal("https://example.com/a", url)

		// cold: ttl elapsed
		suite.clock.Add(int64(2 * time.Minute))
		suite.Equal(1, suite.cache.DeleteExpired())

		url, err = suite.uc.ResolveShortID(ctx, link.ShortID)
		suite.Require().NoError(err)
		suite.Equal("https://example.com/a", url)

		suite.recorder.Wait()

		analytics, err := suite.uc.GetAnalytics(ctx, link.ShortID)
		suite.Require().NoError(err)
		suite.Equal(2, analytics.TotalClicks)
		suite.Equal(link.CreatedAt, analytics.CreatedAt)
	})

	suite.Run("total clicks equals resolves", func() {
		const n = 25
		link := suite.shorten("https://example.com/a")

		for i := 0; i < n; i++ {
			_, err := suite.uc.ResolveShortID(ctx, link.ShortID)
			suite.Require().NoError(err)
		}
		suite.recorder.Wait()

		analytics, err := suite.uc.GetAnalytics(ctx, link.ShortID)
		suite.Require().NoError(err)
		suite.Equal(n, analytics.TotalClicks)
		suite.Len(analytics.Visits, n)
	})

	suite.Run("cold resolve populates cache", func() {
		link := suite.shorten("https://example.com/a")
		suite.clock.Add(int64(2 * time.Minute))
		suite.cache.DeleteExpired()

		_, err := suite.uc.ResolveShortID(ctx, link.ShortID)
		suite.Require().NoError(err)

		url, ok := suite.cache.Get(link.ShortID)
		suite.True(ok)
		suite.Equal("https://example.com/a", url)
	})

	suite.Run("unknown short id", func() {
		_, err := suite.uc.ResolveShortID(ctx, "unknown1")
		suite.ErrorIs(err, entity.ErrShortLinkNotFound)

		_, err = suite.uc.GetAnalytics(ctx, "unknown1")
		suite.ErrorIs(err, entity.ErrShortLinkNotFound)
	})

	suite.Run("fresh link has empty history", func() {
		link := suite.shorten("https://example.com/a")

		analytics, err := suite.uc.GetAnalytics(ctx, link.ShortID)
		suite.Require().NoError(err)
		suite.Zero(analytics.TotalClicks)
		suite.NotNil(analytics.Visits)
	})
}

func TestFlow(t *testing.T) {
	suite.Run(t, new(FlowTestSuite))
}
