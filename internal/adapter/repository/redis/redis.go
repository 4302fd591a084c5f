// Package redis implements the short link repository on Redis.
//
// Layout, relative to the key prefix:
//
//	link:{id}    hash  url, created_at (unix ms)
//	visits:{id}  list  visit timestamps (unix ms), insertion order
//	url:<url>    string short id, enforces one link per redirect URL
//
// Create and FindAndAppendVisit run as Lua scripts so each is atomic and
// costs one round trip. Create touches keys in different hash slots and
// therefore needs a non-cluster deployment.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const DefaultKeyPrefix = "shortlink:"

const (
	createResultOK = iota
	createResultShortIDExists
	createResultURLExists
)

var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 1 end
if redis.call('EXISTS', KEYS[2]) == 1 then return 2 end
redis.call('HSET', KEYS[1], 'url', ARGV[1], 'created_at', ARGV[2])
redis.call('SET', KEYS[2], ARGV[3])
return 0
`)

var appendVisitScript = redis.NewScript(`
local link = redis.call('HMGET', KEYS[1], 'url', 'created_at')
if not link[1] then return false end
redis.call('RPUSH', KEYS[2], ARGV[1])
return link
`)

type ShortLinkRepository struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewShortLinkRepository(client redis.UniversalClient, prefix string) *ShortLinkRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &ShortLinkRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *ShortLinkRepository) linkKey(shortID string) string {
	return r.prefix + "link:{" + shortID + "}"
}

func (r *ShortLinkRepository) visitsKey(shortID string) string {
	return r.prefix + "visits:{" + shortID + "}"
}

func (r *ShortLinkRepository) urlKey(redirectURL string) string {
	return r.prefix + "url:" + redirectURL
}

func (r *ShortLinkRepository) Create(ctx context.Context, shortID, redirectURL string) (*entity.ShortLink, error) {
	const op = "adapter.repository.redis.ShortLinkRepository.Create"

	createdAt := r.now().UTC().Truncate(time.Millisecond)

	res, err := createScript.Run(ctx, r.client,
		[]string{r.linkKey(shortID), r.urlKey(redirectURL)},
		redirectURL, createdAt.UnixMilli(), shortID,
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create short link: %w: %w", op, entity.ErrStorage, err)
	}

	switch res {
	case createResultShortIDExists:
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortIDExists)
	case createResultURLExists:
		return nil, fmt.Errorf("%s: %w", op, entity.ErrRedirectURLExists)
	}

	return &entity.ShortLink{
		ShortID:     shortID,
		RedirectURL: redirectURL,
		Visits:      []entity.Visit{},
		CreatedAt:   createdAt,
	}, nil
}

func (r *ShortLinkRepository) FindByURL(ctx context.Context, redirectURL string) (*entity.ShortLink, error) {
	const op = "adapter.repository.redis.ShortLinkRepository.FindByURL"

	shortID, err := r.client.Get(ctx, r.urlKey(redirectURL)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url index: %w: %w", op, entity.ErrStorage, err)
	}

	fields, err := r.client.HMGet(ctx, r.linkKey(shortID), "url", "created_at").Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link hash: %w: %w", op, entity.ErrStorage, err)
	}

	link, err := parseLink(shortID, fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

// FindByShortID returns the link with its full visit history.
func (r *ShortLinkRepository) FindByShortID(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	const op = "adapter.repository.redis.ShortLinkRepository.FindByShortID"

	var (
		fieldsCmd *redis.SliceCmd
		visitsCmd *redis.StringSliceCmd
	)

	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		fieldsCmd = p.HMGet(ctx, r.linkKey(shortID), "url", "created_at")
		visitsCmd = p.LRange(ctx, r.visitsKey(shortID), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read link: %w: %w", op, entity.ErrStorage, err)
	}

	link, err := parseLink(shortID, fieldsCmd.Val())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stamps := visitsCmd.Val()
	link.Visits = make([]entity.Visit, 0, len(stamps))
	for _, s := range stamps {
		ts, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: malformed visit %q: %w: %w", op, s, entity.ErrStorage, err)
		}
		link.Visits = append(link.Visits, entity.Visit{Timestamp: ts})
	}

	return link, nil
}

// FindAndAppendVisit records visit and returns the link in one round trip.
// The returned link carries no visit history.
func (r *ShortLinkRepository) FindAndAppendVisit(ctx context.Context, shortID string, visit entity.Visit) (*entity.ShortLink, error) {
	const op = "adapter.repository.redis.ShortLinkRepository.FindAndAppendVisit"

	fields, err := appendVisitScript.Run(ctx, r.client,
		[]string{r.linkKey(shortID), r.visitsKey(shortID)},
		visit.Timestamp,
	).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to append visit: %w: %w", op, entity.ErrStorage, err)
	}

	link, err := parseLink(shortID, fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

// parseLink builds a link from the [url, created_at] reply of HMGET.
func parseLink(shortID string, fields []any) (*entity.ShortLink, error) {
	if len(fields) != 2 || fields[0] == nil {
		return nil, entity.ErrShortLinkNotFound
	}

	redirectURL, ok := fields[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected url type %T", entity.ErrStorage, fields[0])
	}

	raw, ok := fields[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected created_at type %T", entity.ErrStorage, fields[1])
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed created_at %q: %w", entity.ErrStorage, raw, err)
	}

	return &entity.ShortLink{
		ShortID:     shortID,
		RedirectURL: redirectURL,
		CreatedAt:   time.UnixMilli(ms).UTC(),
	}, nil
}
