package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/docs"
	"github.com/vadimbarashkov/shortlink/internal/cache"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

func handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docs.Swagger)
}

type shortLinkUseCase interface {
	ShortenURL(ctx context.Context, longURL string) (*entity.ShortLink, bool, error)
	ResolveShortID(ctx context.Context, shortID string) (string, error)
	GetAnalytics(ctx context.Context, shortID string) (*entity.Analytics, error)
	CacheStats() cache.Stats
}

type shortLinkHandler struct {
	useCase  shortLinkUseCase
	validate *validator.Validate
}

func newShortLinkHandler(useCase shortLinkUseCase, validate *validator.Validate) *shortLinkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &shortLinkHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func (h *shortLinkHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			renderError(w, r, http.StatusBadRequest, msgURLRequired)
			return
		}

		renderError(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		renderError(w, r, http.StatusBadRequest, msgURLRequired)
		return
	}

	link, created, err := h.useCase.ShortenURL(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidURL) {
			renderError(w, r, http.StatusBadRequest, invalidURLMessage(req.URL))
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		if errors.Is(err, entity.ErrAllocationExhausted) {
			renderError(w, r, http.StatusInternalServerError, msgAllocationExhausted)
			return
		}

		renderError(w, r, http.StatusInternalServerError, msgServerError)
		return
	}

	if !created {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, shortenResponse{ID: link.ShortID, Success: true, Message: msgURLExists})
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, shortenResponse{ID: link.ShortID, Success: true})
}

func (h *shortLinkHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortID")

	redirectURL, err := h.useCase.ResolveShortID(r.Context(), shortID)
	if err != nil {
		h.renderLookupError(w, r, err)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *shortLinkHandler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortID")

	analytics, err := h.useCase.GetAnalytics(r.Context(), shortID)
	if err != nil {
		h.renderLookupError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toAnalyticsResponse(analytics))
}

func (h *shortLinkHandler) getCacheStats(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toCacheStatsResponse(h.useCase.CacheStats()))
}

func (h *shortLinkHandler) renderLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidShortID):
		renderError(w, r, http.StatusBadRequest, msgInvalidShortID)
	case errors.Is(err, entity.ErrShortLinkNotFound):
		renderError(w, r, http.StatusNotFound, msgShortLinkNotFound)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		renderError(w, r, http.StatusInternalServerError, msgServerError)
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg, Success: false})
}
