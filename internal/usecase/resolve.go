package usecase

import (
	"context"
	"fmt"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// ResolveShortID returns the redirect URL for shortID and records the visit.
//
// On a cache hit the visit is handed to the recorder and the URL returned
// without touching the store. On a miss a single store call both fetches the
// link and appends the visit, and the result is cached.
func (uc *ShortLinkUseCase) ResolveShortID(ctx context.Context, shortID string) (string, error) {
	const op = "usecase.ShortLinkUseCase.ResolveShortID"

	if !uc.validShortID(shortID) {
		return "", fmt.Errorf("%s: %w", op, entity.ErrInvalidShortID)
	}

	if redirectURL, ok := uc.cache.Get(shortID); ok {
		uc.recorder.RecordVisit(shortID)
		return redirectURL, nil
	}

	link, err := uc.repo.FindAndAppendVisit(ctx, shortID, entity.NewVisit(uc.now()))
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short id: %w", op, err)
	}

	uc.cache.Set(shortID, link.RedirectURL)

	return link.RedirectURL, nil
}

// GetAnalytics returns the visit history of shortID.
func (uc *ShortLinkUseCase) GetAnalytics(ctx context.Context, shortID string) (*entity.Analytics, error) {
	const op = "usecase.ShortLinkUseCase.GetAnalytics"

	if !uc.validShortID(shortID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidShortID)
	}

	link, err := uc.repo.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get short link: %w", op, err)
	}

	return entity.NewAnalytics(link), nil
}
