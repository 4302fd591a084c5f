// Package entity defines the entities and errors used in the application.
// It includes the ShortLink struct, which maps a short identifier to the
// URL visitors are redirected to, its visit history, and the error taxonomy
// shared by the use case, repository and delivery layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrInvalidURL is returned when a long URL is rejected by validation.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidShortID is returned when a short ID has a malformed shape.
	ErrInvalidShortID = errors.New("invalid short id")
	// ErrAllocationExhausted is returned when no free short ID was found within the attempt bound.
	ErrAllocationExhausted = errors.New("short id allocation exhausted")
	// ErrShortLinkNotFound is returned when a short link with the specified short ID cannot be found.
	ErrShortLinkNotFound = errors.New("short link not found")
	// ErrShortIDExists is returned when attempting to create a short link with a short ID that already exists.
	ErrShortIDExists = errors.New("short id exists")
	// ErrRedirectURLExists is returned when attempting to create a second short link for the same redirect URL.
	ErrRedirectURLExists = errors.New("redirect url exists")
	// ErrStorage is returned when the persistent store fails.
	ErrStorage = errors.New("storage failure")
)

// ShortLink represents a shortened URL.
type ShortLink struct {
	ShortID     string    // ShortID is the unique, URL-safe identifier of the link.
	RedirectURL string    // RedirectURL is the URL visitors are redirected to. Never changes after creation.
	Visits      []Visit   // Visits is the append-only visit history in insertion order.
	CreatedAt   time.Time // CreatedAt is the timestamp when the link was created.
}

// Visit is a single resolved redirect.
type Visit struct {
	Timestamp int64 // Timestamp is the visit time in Unix milliseconds.
}

// NewVisit returns a Visit stamped with t.
func NewVisit(t time.Time) Visit {
	return Visit{Timestamp: t.UnixMilli()}
}

// Analytics is the read model of a short link's visit history.
type Analytics struct {
	TotalClicks int
	CreatedAt   time.Time
	Visits      []Visit
}

// NewAnalytics builds Analytics from link. TotalClicks is always len(Visits).
func NewAnalytics(link *ShortLink) *Analytics {
	visits := link.Visits
	if visits == nil {
		visits = []Visit{}
	}

	return &Analytics{
		TotalClicks: len(visits),
		CreatedAt:   link.CreatedAt,
		Visits:      visits,
	}
}
