package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/DukeRupert/kaia/internal/auth"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/service"
)

// multipartOverhead is allowed on top of the image size for form boundaries
// and headers.
const multipartOverhead = 64 << 10

// AnalysisHandler serves chart uploads and the analysis gate.
type AnalysisHandler struct {
	charts   service.ChartService
	analyses service.AnalysisService
	maxBytes int64
	logger   *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler. maxBytes bounds the
// uploaded image; zero means service.DefaultUploadMaxBytes.
func NewAnalysisHandler(charts service.ChartService, analyses service.AnalysisService, maxBytes int64, logger *slog.Logger) *AnalysisHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultUploadMaxBytes
	}
	return &AnalysisHandler{
		charts:   charts,
		analyses: analyses,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// RegisterRoutes registers chart routes.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux, requireAccount func(http.Handler) http.Handler) {
	mux.Handle("POST /api/upload-chart", requireAccount(http.HandlerFunc(h.UploadChart)))
	mux.Handle("POST /api/analyze-chart", requireAccount(http.HandlerFunc(h.AnalyzeChart)))
}

type uploadResponse struct {
	Filename string `json:"filename"`
}

type analyzeRequest struct {
	Filename     string `json:"filename" validate:"required,max=255"`
	Timeframe    string `json:"timeframe" validate:"required,max=16"`
	AnalysisType string `json:"analysis_type" validate:"max=32"`
	Lang         string `json:"lang" validate:"max=8"`
}

func (req *analyzeRequest) bindForm(form url.Values) {
	req.Filename = form.Get("filename")
	req.Timeframe = form.Get("timeframe")
	req.AnalysisType = form.Get("analysis_type")
	req.Lang = form.Get("lang")
}

type analyzeResponse struct {
	Status           domain.OutcomeStatus  `json:"status"`
	Analysis         *domain.ChartAnalysis `json:"analysis,omitempty"`
	RemainingCredits *int                  `json:"remaining_credits,omitempty"`
	Message          string                `json:"message,omitempty"`
	RequiredTier     domain.Tier           `json:"required_tier,omitempty"`
}

// UploadChart handles POST /api/upload-chart.
func (h *AnalysisHandler) UploadChart(w http.ResponseWriter, r *http.Request) {
	const op = "AnalysisHandler.UploadChart"

	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Chart image is too large"))
		default:
			ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "file", "A chart image is required"))
		}
		return
	}
	defer file.Close()

	upload, err := h.charts.Upload(r.Context(), account, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{Filename: upload.Filename})
}

// AnalyzeChart handles POST /api/analyze-chart. An upgrade_required outcome
// is a normal 200 response.
func (h *AnalysisHandler) AnalyzeChart(w http.ResponseWriter, r *http.Request) {
	const op = "AnalysisHandler.AnalyzeChart"

	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req analyzeRequest
	if err := decodeRequest(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	outcome, err := h.analyses.Analyze(r.Context(), account, domain.AnalyzeParams{
		Filename:  req.Filename,
		Timeframe: req.Timeframe,
		Variant:   domain.Variant(req.AnalysisType),
		Language:  req.Lang,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := analyzeResponse{Status: outcome.Status}
	switch outcome.Status {
	case domain.OutcomeSuccess:
		remaining := outcome.RemainingCredits
		resp.Analysis = outcome.Analysis
		resp.RemainingCredits = &remaining
	default:
		resp.Message = outcome.Message
		resp.RequiredTier = outcome.RequiredTier
	}
	writeJSON(w, http.StatusOK, resp)
}
