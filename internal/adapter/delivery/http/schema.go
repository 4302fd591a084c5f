package http

import (
	"fmt"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/cache"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	msgURLRequired         = "URL is required"
	msgInvalidBody         = "invalid request body"
	msgURLExists           = "URL already exists"
	msgInvalidShortID      = "invalid short ID"
	msgShortLinkNotFound   = "Short URL not found"
	msgAllocationExhausted = "Failed to generate unique short ID. Please try again."
	msgServerError         = "Internal Server Error. Please try again later."
)

func invalidURLMessage(received string) string {
	return fmt.Sprintf("Invalid URL format. Please provide a valid HTTP/HTTPS URL. Received: %s", received)
}

type shortenRequest struct {
	URL string `json:"url" validate:"required"`
}

type shortenResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type visitResponse struct {
	Timestamp int64 `json:"timestamp"`
}

type analyticsResponse struct {
	TotalClicks int             `json:"totalClicks"`
	CreatedAt   time.Time       `json:"createdAt"`
	Analytics   []visitResponse `json:"analytics"`
	Success     bool            `json:"success"`
}

func toAnalyticsResponse(a *entity.Analytics) analyticsResponse {
	visits := make([]visitResponse, 0, len(a.Visits))
	for _, v := range a.Visits {
		visits = append(visits, visitResponse{Timestamp: v.Timestamp})
	}

	return analyticsResponse{
		TotalClicks: a.TotalClicks,
		CreatedAt:   a.CreatedAt,
		Analytics:   visits,
		Success:     true,
	}
}

type cacheStatsResponse struct {
	Keys    int64  `json:"keys"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Success bool   `json:"success"`
}

func toCacheStatsResponse(s cache.Stats) cacheStatsResponse {
	return cacheStatsResponse{
		Keys:    s.Keys,
		Hits:    s.Hits,
		Misses:  s.Misses,
		Success: true,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}
