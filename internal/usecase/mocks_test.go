package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type mockShortLinkRepository struct {
	mock.Mock
}

func linkResult(ret mock.Arguments) (*entity.ShortLink, error) {
	var link *entity.ShortLink
	if v := ret.Get(0); v != nil {
		link = v.(*entity.ShortLink)
	}

	return link, ret.Error(1)
}

func (m *mockShortLinkRepository) Create(ctx context.Context, shortID, redirectURL string) (*entity.ShortLink, error) {
	return linkResult(m.Called(ctx, shortID, redirectURL))
}

func (m *mockShortLinkRepository) FindByURL(ctx context.Context, redirectURL string) (*entity.ShortLink, error) {
	return linkResult(m.Called(ctx, redirectURL))
}

func (m *mockShortLinkRepository) FindByShortID(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	return linkResult(m.Called(ctx, shortID))
}

func (m *mockShortLinkRepository) FindAndAppendVisit(ctx context.Context, shortID string, visit entity.Visit) (*entity.ShortLink, error) {
	return linkResult(m.Called(ctx, shortID, visit))
}

type mockVisitRecorder struct {
	mock.Mock
}

func (m *mockVisitRecorder) RecordVisit(shortID string) bool {
	return m.Called(shortID).Bool(0)
}
