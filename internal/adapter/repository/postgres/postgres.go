// Package postgres implements the short link repository on PostgreSQL.
//
// short_links holds one row per link with unique short_id and unique
// md5(redirect_url); visits holds the append-only history keyed by link.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	uniqueViolationErrCode = "23505"

	shortIDConstraint     = "short_links_short_id_key"
	redirectURLConstraint = "short_links_redirect_url_key"
)

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrCode {
		return pgErr.ConstraintName, true
	}

	return "", false
}

type shortLinkDB struct {
	ID          int64     `db:"id"`
	ShortID     string    `db:"short_id"`
	RedirectURL string    `db:"redirect_url"`
	CreatedAt   time.Time `db:"created_at"`
}

func (l *shortLinkDB) toEntity() *entity.ShortLink {
	return &entity.ShortLink{
		ShortID:     l.ShortID,
		RedirectURL: l.RedirectURL,
		CreatedAt:   l.CreatedAt,
	}
}

type ShortLinkRepository struct {
	db *sqlx.DB
}

func NewShortLinkRepository(db *sqlx.DB) *ShortLinkRepository {
	return &ShortLinkRepository{db: db}
}

func (r *ShortLinkRepository) Create(ctx context.Context, shortID, redirectURL string) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.ShortLinkRepository.Create"
	const query = `INSERT INTO short_links (short_id, redirect_url) VALUES ($1, $2)
		RETURNING id, short_id, redirect_url, created_at`

	var link shortLinkDB

	if err := r.db.GetContext(ctx, &link, query, shortID, redirectURL); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case shortIDConstraint:
				return nil, fmt.Errorf("%s: %w", op, entity.ErrShortIDExists)
			case redirectURLConstraint:
				return nil, fmt.Errorf("%s: %w", op, entity.ErrRedirectURLExists)
			}
		}

		return nil, fmt.Errorf("%s: failed to insert into short_links table: %w: %w", op, entity.ErrStorage, err)
	}

	res := link.toEntity()
	res.Visits = []entity.Visit{}

	return res, nil
}

func (r *ShortLinkRepository) FindByURL(ctx context.Context, redirectURL string) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.ShortLinkRepository.FindByURL"
	const query = `SELECT id, short_id, redirect_url, created_at FROM short_links
		WHERE md5(redirect_url) = md5($1) AND redirect_url = $1`

	var link shortLinkDB

	if err := r.db.GetContext(ctx, &link, query, redirectURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from short_links table: %w: %w", op, entity.ErrStorage, err)
	}

	return link.toEntity(), nil
}

// FindByShortID returns the link with its full visit history.
func (r *ShortLinkRepository) FindByShortID(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.ShortLinkRepository.FindByShortID"
	const linkQuery = `SELECT id, short_id, redirect_url, created_at FROM short_links WHERE short_id = $1`
	const visitsQuery = `SELECT visited_at FROM visits WHERE short_link_id = $1 ORDER BY id`

	var link shortLinkDB

	if err := r.db.GetContext(ctx, &link, linkQuery, shortID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from short_links table: %w: %w", op, entity.ErrStorage, err)
	}

	var stamps []int64

	if err := r.db.SelectContext(ctx, &stamps, visitsQuery, link.ID); err != nil {
		return nil, fmt.Errorf("%s: failed to select from visits table: %w: %w", op, entity.ErrStorage, err)
	}

	res := link.toEntity()
	res.Visits = make([]entity.Visit, 0, len(stamps))
	for _, ts := range stamps {
		res.Visits = append(res.Visits, entity.Visit{Timestamp: ts})
	}

	return res, nil
}

// FindAndAppendVisit records visit and returns the link in a single statement.
// The returned link carries no visit history.
func (r *ShortLinkRepository) FindAndAppendVisit(ctx context.Context, shortID string, visit entity.Visit) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.ShortLinkRepository.FindAndAppendVisit"
	const query = `WITH link AS (
			SELECT id, short_id, redirect_url, created_at FROM short_links WHERE short_id = $1
		), visit AS (
			INSERT INTO visits (short_link_id, visited_at) SELECT id, $2 FROM link
		)
		SELECT id, short_id, redirect_url, created_at FROM link`

	var link shortLinkDB

	if err := r.db.GetContext(ctx, &link, query, shortID, visit.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to append to visits table: %w: %w", op, entity.ErrStorage, err)
	}

	return link.toEntity(), nil
}
