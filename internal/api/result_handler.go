package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/api/middleware"
	"github.com/kmuhangi/elimu-api/internal/api/shared"
	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/platform/metrics"
	"github.com/kmuhangi/elimu-api/internal/service"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// RecordScoreRequest represents the request body for recording one raw
// score. Grading happens out of band; the engine only stores the number.
type RecordScoreRequest struct {
	StudentID string  `json:"student_id" validate:"required,uuid"`
	ClassID   string  `json:"class_id"   validate:"required,uuid"`
	SubjectID string  `json:"subject_id" validate:"required,uuid"`
	TermID    string  `json:"term_id"    validate:"required,uuid"`
	ExamID    string  `json:"exam_id"    validate:"required,uuid"`
	RawScore  float64 `json:"raw_score"  validate:"gte=0,lte=100"`
}

// ScoreResponse represents the response data for a recorded score
type ScoreResponse struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"student_id"`
	ClassID         string    `json:"class_id"`
	SubjectID       string    `json:"subject_id"`
	TermID          string    `json:"term_id"`
	ExamID          string    `json:"exam_id"`
	RawScore        float64   `json:"raw_score"`
	ComputedAverage float64   `json:"computed_average"`
	SubjectPosition *int      `json:"subject_position,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ResultHandler handles raw score HTTP requests
type ResultHandler struct {
	tenancy   *service.TenancyResolver
	results   store.ResultStore
	ranking   *service.RankingService
	validator *validator.Validate
}

// NewResultHandler creates a new ResultHandler
func NewResultHandler(
	tenancy *service.TenancyResolver,
	results store.ResultStore,
	ranking *service.RankingService,
) *ResultHandler {
	return &ResultHandler{
		tenancy:   tenancy,
		results:   results,
		ranking:   ranking,
		validator: validator.New(),
	}
}

// RecordScore handles POST /api/results requests. One row per
// (student, subject, exam); recording a second score for the same triple
// conflicts rather than silently overwriting a grade. Every successful
// write recomputes the subject ranking of its (class, subject, term)
// scope, so stored averages and positions never lag behind the raw
// scores; term-level ranking stays a separate batched call.
func (h *ResultHandler) RecordScore(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	var req RecordScoreRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	tenantID, err := h.tenancy.ResolveOwner(r.Context(), accountID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	studentID, _ := uuid.Parse(req.StudentID)
	classID, _ := uuid.Parse(req.ClassID)
	subjectID, _ := uuid.Parse(req.SubjectID)
	termID, _ := uuid.Parse(req.TermID)
	examID, _ := uuid.Parse(req.ExamID)

	result, err := domain.NewSubjectResult(
		tenantID, studentID, classID, subjectID, termID, examID, req.RawScore)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid score data", err)
		return
	}

	if err := h.results.CreateSubjectResult(r.Context(), result); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// A stored score immediately refreshes the standings of its
	// (class, subject, term) scope. A recompute failure surfaces as an
	// error even though the raw score was saved, because the derived
	// state is stale until the next successful pass.
	start := time.Now()
	if _, err := h.ranking.RecomputeSubjectRanking(
		r.Context(), accountID, classID, subjectID, termID); err != nil {
		metrics.ObserveRankingRecompute("subject", "error", time.Since(start))
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	metrics.ObserveRankingRecompute("subject", "ok", time.Since(start))

	shared.RespondWithJSON(w, r, http.StatusCreated, scoreToResponse(result))
}

// scoreToResponse converts a domain.SubjectResult to a ScoreResponse
func scoreToResponse(result *domain.SubjectResult) ScoreResponse {
	return ScoreResponse{
		ID:              result.ID.String(),
		StudentID:       result.StudentID.String(),
		ClassID:         result.ClassID.String(),
		SubjectID:       result.SubjectID.String(),
		TermID:          result.TermID.String(),
		ExamID:          result.ExamID.String(),
		RawScore:        result.RawScore,
		ComputedAverage: result.ComputedAverage,
		SubjectPosition: result.SubjectPosition,
		CreatedAt:       result.CreatedAt,
	}
}
