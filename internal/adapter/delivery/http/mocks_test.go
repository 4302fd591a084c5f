package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/cache"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type mockShortLinkUseCase struct {
	mock.Mock
}

func (m *mockShortLinkUseCase) ShortenURL(ctx context.Context, longURL string) (*entity.ShortLink, bool, error) {
	ret := m.Called(ctx, longURL)

	var link *entity.ShortLink
	if v := ret.Get(0); v != nil {
		link = v.(*entity.ShortLink)
	}

	return link, ret.Bool(1), ret.Error(2)
}

func (m *mockShortLinkUseCase) ResolveShortID(ctx context.Context, shortID string) (string, error) {
	ret := m.Called(ctx, shortID)
	return ret.String(0), ret.Error(1)
}

func (m *mockShortLinkUseCase) GetAnalytics(ctx context.Context, shortID string) (*entity.Analytics, error) {
	ret := m.Called(ctx, shortID)

	var analytics *entity.Analytics
	if v := ret.Get(0); v != nil {
		analytics = v.(*entity.Analytics)
	}

	return analytics, ret.Error(1)
}

func (m *mockShortLinkUseCase) CacheStats() cache.Stats {
	return m.Called().Get(0).(cache.Stats)
}
