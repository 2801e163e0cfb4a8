package api

import (
	"encoding/json"
	"net/http"

	"github.com/planlens/blueprint-qa/internal/analysis"
	"github.com/planlens/blueprint-qa/internal/config"
	"github.com/planlens/blueprint-qa/internal/domain"
	"github.com/planlens/blueprint-qa/internal/observability"
)

// AnalyzeHandler handles document analysis requests.
type AnalyzeHandler struct {
	logger *observability.Logger
	cfg    *config.Config
}

// NewAnalyzeHandler creates an analyze handler.
func NewAnalyzeHandler(logger *observability.Logger, cfg *config.Config) *AnalyzeHandler {
	return &AnalyzeHandler{logger: logger, cfg: cfg}
}

// AnalyzeRequestDTO represents the API request for document analysis.
type AnalyzeRequestDTO struct {
	Pages []PageDTO `json:"pages"`
}

// PageDTO is one page of the request: a page number and a base64 data URL.
type PageDTO struct {
	PageNumber int    `json:"pageNumber"`
	Image      string `json:"image"`
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO AnalyzeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid analysis request payload.")
		return
	}

	pages := make([]domain.PageRequest, 0, len(reqDTO.Pages))
	for _, p := range reqDTO.Pages {
		pages = append(pages, domain.PageRequest{
			PageNumber: p.PageNumber,
			Image:      p.Image,
		})
	}

	// Admission checks come before provider resolution: a bad batch is a 400
	// even when credentials are also missing.
	if err := analysis.ValidateBatch(pages, h.cfg.Analysis.MaxPages); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.MessageOf(err))
		return
	}

	provider, err := analysis.NewProvider(h.cfg, h.logger)
	if err != nil {
		h.logger.Error().Err(err).Msg("provider construction failed")
		h.writeError(w, http.StatusInternalServerError, domain.MessageOf(err))
		return
	}

	orchestrator := analysis.NewOrchestrator(provider, h.cfg.Analysis, h.logger)

	result, err := orchestrator.Analyze(ctx, pages)
	if err != nil {
		switch domain.TypeOf(err) {
		case domain.ErrorTypeInvalidRequest, domain.ErrorTypeInvalidDocument:
			h.writeError(w, http.StatusBadRequest, domain.MessageOf(err))
		default:
			h.logger.Error().Err(err).Msg("analysis failed")
			h.writeError(w, http.StatusInternalServerError, domain.MessageOf(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *AnalyzeHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
