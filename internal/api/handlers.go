package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/price-monitor/internal/catalog"
	"github.com/maltedev/price-monitor/internal/models"
	"github.com/maltedev/price-monitor/internal/parser"
	"github.com/maltedev/price-monitor/internal/scraper"
)

type Handlers struct {
	runs      *Manager
	parser    parser.Parser
	scraper   scraper.Scraper
	baseURL   string
	maxOffers int
	logger    *slog.Logger
}

// NewHandlers builds the handlers. scr may be nil, in which case /extract
// requires the page HTML in the request.
func NewHandlers(runs *Manager, p parser.Parser, scr scraper.Scraper, baseURL string, maxOffers int, logger *slog.Logger) *Handlers {
	return &Handlers{
		runs:      runs,
		parser:    p,
		scraper:   scr,
		baseURL:   baseURL,
		maxOffers: maxOffers,
		logger:    logger.With("component", "api"),
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeriveRequest lists product names to turn into catalog URLs
type DeriveRequest struct {
	Names []string `json:"names"`
}

func (h *Handlers) Derive(w http.ResponseWriter, r *http.Request) {
	var req DeriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Names) == 0 {
		h.respondError(w, http.StatusBadRequest, "names is required")
		return
	}

	links := catalog.DeriveAll(req.Names, h.baseURL)
	if links == nil {
		links = []catalog.Link{}
	}
	h.respondJSON(w, http.StatusOK, links)
}

// ExtractRequest carries either a page to parse or a URL to fetch
type ExtractRequest struct {
	URL       string `json:"url"`
	HTML      string `json:"html"`
	MaxOffers int    `json:"max_offers"`
}

func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.MaxOffers <= 0 {
		req.MaxOffers = h.maxOffers
	}

	if strings.TrimSpace(req.HTML) != "" {
		result, err := h.parser.ExtractOffers(req.HTML, req.URL, req.MaxOffers)
		if err != nil {
			h.logger.Error("failed to parse page", "url", req.URL, "error", err)
			h.respondError(w, http.StatusUnprocessableEntity, "failed to parse html")
			return
		}
		h.respondJSON(w, http.StatusOK, result)
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "either html or url is required")
		return
	}
	if h.scraper == nil {
		h.respondError(w, http.StatusBadRequest, "html is required")
		return
	}

	outcome := h.scraper.Scrape(r.Context(), req.URL)
	switch outcome.Status {
	case models.OutcomeFetchFailed:
		h.respondJSON(w, http.StatusBadGateway, outcome)
	case models.OutcomeParseFailed:
		h.respondJSON(w, http.StatusUnprocessableEntity, outcome)
	default:
		h.respondJSON(w, http.StatusOK, outcome)
	}
}

func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Start()
	if errors.Is(err, ErrRunInProgress) {
		h.respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to start run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to start run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, run)
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.runs.Get(runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.runs.List())
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
