// Package memory provides an in-process ShortLinkRepository for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type record struct {
	shortID     string
	redirectURL string
	visits      []entity.Visit
	createdAt   time.Time
}

func (r *record) toEntity(withVisits bool) *entity.ShortLink {
	link := &entity.ShortLink{
		ShortID:     r.shortID,
		RedirectURL: r.redirectURL,
		CreatedAt:   r.createdAt,
	}

	if withVisits {
		link.Visits = slices.Clone(r.visits)
		if link.Visits == nil {
			link.Visits = []entity.Visit{}
		}
	}

	return link
}

// ShortLinkRepository keeps short links in maps guarded by a RWMutex.
// Uniqueness of both short ID and redirect URL is enforced.
type ShortLinkRepository struct {
	mu    sync.RWMutex
	byID  map[string]*record
	byURL map[string]string
	now   func() time.Time
}

func NewShortLinkRepository() *ShortLinkRepository {
	return &ShortLinkRepository{
		byID:  make(map[string]*record),
		byURL: make(map[string]string),
		now:   time.Now,
	}
}

func (r *ShortLinkRepository) Create(ctx context.Context, shortID, redirectURL string) (*entity.ShortLink, error) {
	const op = "adapter.repository.memory.ShortLinkRepository.Create"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[shortID]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortIDExists)
	}

	if _, ok := r.byURL[redirectURL]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrRedirectURLExists)
	}

	rec := &record{
		shortID:     shortID,
		redirectURL: redirectURL,
		createdAt:   r.now().UTC(),
	}
	r.byID[shortID] = rec
	r.byURL[redirectURL] = shortID

	return rec.toEntity(true), nil
}

func (r *ShortLinkRepository) FindByURL(ctx context.Context, redirectURL string) (*entity.ShortLink, error) {
	const op = "adapter.repository.memory.ShortLinkRepository.FindByURL"

	r.mu.RLock()
	defer r.mu.RUnlock()

	shortID, ok := r.byURL[redirectURL]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
	}

	return r.byID[shortID].toEntity(false), nil
}

func (r *ShortLinkRepository) FindByShortID(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	const op = "adapter.repository.memory.ShortLinkRepository.FindByShortID"

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[shortID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
	}

	return rec.toEntity(true), nil
}

func (r *ShortLinkRepository) FindAndAppendVisit(ctx context.Context, shortID string, visit entity.Visit) (*entity.ShortLink, error) {
	const op = "adapter.repository.memory.ShortLinkRepository.FindAndAppendVisit"

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[shortID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
	}

	rec.visits = append(rec.visits, visit)

	return rec.toEntity(false), nil
}

// Count returns the number of stored short links.
func (r *ShortLinkRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}
