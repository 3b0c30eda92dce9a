package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/kaia/internal/service"
)

// ContentHandler serves the public article feed and sponsor placements.
type ContentHandler struct {
	content service.ContentService
	logger  *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(content service.ContentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{content: content, logger: logger}
}

// RegisterRoutes registers public content routes.
func (h *ContentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/articles", h.ListArticles)
	mux.HandleFunc("GET /api/sponsors", h.ListSponsors)
}

// ListArticles handles GET /api/articles?lang=.
func (h *ContentHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.content.ListArticles(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		items = append(items, newArticleResponse(a))
	}
	writeJSON(w, http.StatusOK, items)
}

// ListSponsors handles GET /api/sponsors?location=.
func (h *ContentHandler) ListSponsors(w http.ResponseWriter, r *http.Request) {
	sponsors, err := h.content.ListSponsors(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]sponsorResponse, 0, len(sponsors))
	for _, s := range sponsors {
		items = append(items, newSponsorResponse(s))
	}
	writeJSON(w, http.StatusOK, items)
}
