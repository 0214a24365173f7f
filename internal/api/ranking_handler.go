package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/api/middleware"
	"github.com/kmuhangi/elimu-api/internal/api/shared"
	"github.com/kmuhangi/elimu-api/internal/platform/metrics"
	"github.com/kmuhangi/elimu-api/internal/service"
)

// RecomputeSubjectRankingRequest represents the request body for a
// subject ranking recompute.
type RecomputeSubjectRankingRequest struct {
	ClassID   string `json:"class_id"   validate:"required,uuid"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	TermID    string `json:"term_id"    validate:"required,uuid"`
}

// RecomputeTermRankingRequest represents the request body for a term
// ranking recompute.
type RecomputeTermRankingRequest struct {
	ClassID string `json:"class_id" validate:"required,uuid"`
	TermID  string `json:"term_id"  validate:"required,uuid"`
}

// RankingReportResponse represents the outcome of a recompute pass
type RankingReportResponse struct {
	Ranked  int      `json:"ranked"`
	Skipped []string `json:"skipped,omitempty"`
}

// RankingHandler handles ranking recompute HTTP requests
type RankingHandler struct {
	ranking   *service.RankingService
	validator *validator.Validate
}

// NewRankingHandler creates a new RankingHandler
func NewRankingHandler(ranking *service.RankingService) *RankingHandler {
	return &RankingHandler{
		ranking:   ranking,
		validator: validator.New(),
	}
}

// RecomputeSubjectRanking handles POST /api/rankings/subject requests
func (h *RankingHandler) RecomputeSubjectRanking(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	var req RecomputeSubjectRankingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	classID, _ := uuid.Parse(req.ClassID)
	subjectID, _ := uuid.Parse(req.SubjectID)
	termID, _ := uuid.Parse(req.TermID)

	start := time.Now()
	report, err := h.ranking.RecomputeSubjectRanking(r.Context(), accountID, classID, subjectID, termID)
	if err != nil {
		metrics.ObserveRankingRecompute("subject", "error", time.Since(start))
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	metrics.ObserveRankingRecompute("subject", "ok", time.Since(start))
	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(report))
}

// RecomputeTermRanking handles POST /api/rankings/term requests
func (h *RankingHandler) RecomputeTermRanking(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	var req RecomputeTermRankingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	classID, _ := uuid.Parse(req.ClassID)
	termID, _ := uuid.Parse(req.TermID)

	start := time.Now()
	report, err := h.ranking.RecomputeTermRanking(r.Context(), accountID, classID, termID)
	if err != nil {
		metrics.ObserveRankingRecompute("term", "error", time.Since(start))
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	metrics.ObserveRankingRecompute("term", "ok", time.Since(start))
	shared.RespondWithJSON(w, r, http.StatusOK, reportToResponse(report))
}

// reportToResponse converts a service.RankingReport to a RankingReportResponse
func reportToResponse(report *service.RankingReport) RankingReportResponse {
	resp := RankingReportResponse{Ranked: report.Ranked}
	for _, id := range report.Skipped {
		resp.Skipped = append(resp.Skipped, id.String())
	}
	return resp
}
