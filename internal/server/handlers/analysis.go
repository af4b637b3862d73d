package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spacesedan/sentimas/internal/db"
	"github.com/spacesedan/sentimas/internal/models"
	"github.com/spacesedan/sentimas/internal/pipeline"
)

const maxBodyBytes = 1 << 20

type AnalyzeRequest struct {
	Text *string `json:"texto"`
}

type AnalyzeResponse struct {
	OriginalText string                      `json:"texto_original"`
	CleanedText  string                      `json:"texto_limpio"`
	Result       models.ClassificationResult `json:"resultado"`
}

type analyzeErrorResponse struct {
	Error        string `json:"error"`
	OriginalText string `json:"texto_original"`
}

// AnalysisHandler serves single-text analysis and the stored history.
type AnalysisHandler struct {
	cleaner  pipeline.Cleaner
	analyzer pipeline.Analyzer
	store    db.Store
}

// NewAnalysisHandler builds the handler. store may be nil, in which case
// analyses are not persisted and the history endpoints answer 503.
func NewAnalysisHandler(cleaner pipeline.Cleaner, analyzer pipeline.Analyzer, store db.Store) *AnalysisHandler {
	return &AnalysisHandler{cleaner: cleaner, analyzer: analyzer, store: store}
}

// Analyze cleans and classifies the posted text.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Text == nil {
		respondWithError(w, http.StatusBadRequest, "Missing field: texto", nil)
		return
	}
	original := *req.Text

	cleaned := h.cleaner.Clean(original)
	result, err := h.analyzer.Analyze(r.Context(), cleaned)
	if err != nil {
		slog.Error("[AnalysisHandler] Analysis failed",
			slog.String("error", err.Error()))
		respondWithJSON(w, http.StatusInternalServerError, analyzeErrorResponse{
			Error:        err.Error(),
			OriginalText: original,
		})
		return
	}

	if h.store != nil {
		if _, err := h.store.Save(r.Context(), original, result, models.SourceAPI); err != nil {
			slog.Warn("[AnalysisHandler] Failed to store analysis",
				slog.String("error", err.Error()))
		}
	}

	respondWithJSON(w, http.StatusOK, AnalyzeResponse{
		OriginalText: original,
		CleanedText:  cleaned,
		Result:       result,
	})
}

// ListAnalyses returns every stored analysis, most recent first.
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}
	respondWithJSON(w, http.StatusOK, records)
}

// Summary returns the dashboard aggregates over the stored analyses.
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, db.Summarize(records))
}

var errNoStore = errors.New("storage is not configured")

func (h *AnalysisHandler) records(w http.ResponseWriter, r *http.Request) ([]models.AnalysisRecord, bool) {
	if h.store == nil {
		respondWithError(w, http.StatusServiceUnavailable, errNoStore.Error(), nil)
		return nil, false
	}
	records, err := h.store.ListAll(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load analyses", err)
		return nil, false
	}
	return records, true
}

