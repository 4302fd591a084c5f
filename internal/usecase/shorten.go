package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// ShortenURL returns the short link for longURL, creating it when none exists.
// created reports whether a new link was stored.
//
// Identical URLs (exact string equality) share one short link. Stores reject
// a second link for the same URL with entity.ErrRedirectURLExists; a create
// that loses that race repeats the duplicate lookup.
func (uc *ShortLinkUseCase) ShortenURL(ctx context.Context, longURL string) (link *entity.ShortLink, created bool, err error) {
	const op = "usecase.ShortLinkUseCase.ShortenURL"

	if err := uc.validator.Check(longURL); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	for i := 0; i < maxURLConflicts; i++ {
		link, err = uc.repo.FindByURL(ctx, longURL)
		if err == nil {
			uc.logger.Debug("url already shortened", slog.String("short_id", link.ShortID))
			uc.cache.Set(link.ShortID, link.RedirectURL)
			return link, false, nil
		}
		if !errors.Is(err, entity.ErrShortLinkNotFound) {
			return nil, false, fmt.Errorf("%s: failed to look up url: %w", op, err)
		}

		link, err = uc.allocate(ctx, longURL)
		if err == nil {
			uc.cache.Set(link.ShortID, link.RedirectURL)
			return link, true, nil
		}
		if !errors.Is(err, entity.ErrRedirectURLExists) {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}

		uc.logger.Debug("lost create race for url, looking it up again")
	}

	return nil, false, fmt.Errorf("%s: url kept conflicting: %w", op, entity.ErrRedirectURLExists)
}

// allocate draws candidate short IDs until one is free, then stores the link.
// A candidate that collides, either on lookup or on create, consumes an attempt.
func (uc *ShortLinkUseCase) allocate(ctx context.Context, longURL string) (*entity.ShortLink, error) {
	const op = "usecase.ShortLinkUseCase.allocate"

	for attempt := 1; attempt <= uc.cfg.MaxAttempts; attempt++ {
		shortID, err := uc.generate(uc.cfg.ShortIDLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short id: %w", op, err)
		}

		_, err = uc.repo.FindByShortID(ctx, shortID)
		switch {
		case err == nil:
			uc.logger.Warn("short id collision", slog.String("short_id", shortID), slog.Int("attempt", attempt))
			continue
		case !errors.Is(err, entity.ErrShortLinkNotFound):
			return nil, fmt.Errorf("%s: failed to check short id: %w", op, err)
		}

		link, err := uc.repo.Create(ctx, shortID, longURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortIDExists) {
				uc.logger.Warn("short id taken during create", slog.String("short_id", shortID), slog.Int("attempt", attempt))
				continue
			}

			return nil, fmt.Errorf("%s: failed to create short link: %w", op, err)
		}

		return link, nil
	}

	uc.logger.Error("short id allocation exhausted",
		slog.Int("attempts", uc.cfg.MaxAttempts),
		slog.Int("length", uc.cfg.ShortIDLength),
	)

	return nil, fmt.Errorf("%s: %d attempts: %w", op, uc.cfg.MaxAttempts, entity.ErrAllocationExhausted)
}
