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
)

// DecidePromotionRequest represents the request body for deciding a
// student's year-end outcome.
type DecidePromotionRequest struct {
	StudentID      string `json:"student_id"       validate:"required,uuid"`
	AcademicYearID string `json:"academic_year_id" validate:"required,uuid"`
}

// PromotionResponse represents the response data for a promotion decision
type PromotionResponse struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	AcademicYearID string    `json:"academic_year_id"`
	FinalAverage   float64   `json:"final_average"`
	Outcome        string    `json:"outcome"`
	DecidedAt      time.Time `json:"decided_at"`
}

// PromotionHandler handles promotion decision HTTP requests
type PromotionHandler struct {
	promotion *service.PromotionService
	validator *validator.Validate
}

// NewPromotionHandler creates a new PromotionHandler
func NewPromotionHandler(promotion *service.PromotionService) *PromotionHandler {
	return &PromotionHandler{
		promotion: promotion,
		validator: validator.New(),
	}
}

// DecidePromotion handles POST /api/promotions requests. Deciding again
// for the same student and year overwrites the previous record.
func (h *PromotionHandler) DecidePromotion(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	var req DecidePromotionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	studentID, _ := uuid.Parse(req.StudentID)
	yearID, _ := uuid.Parse(req.AcademicYearID)

	record, err := h.promotion.DecidePromotion(r.Context(), accountID, studentID, yearID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	metrics.ObservePromotionDecision(string(record.Outcome))
	shared.RespondWithJSON(w, r, http.StatusOK, promotionToResponse(record))
}

// GetPromotion handles GET /api/promotions requests, keyed by the
// student_id and academic_year_id query parameters.
func (h *PromotionHandler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	studentID, err := uuid.Parse(r.URL.Query().Get("student_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid student ID")
		return
	}

	yearID, err := uuid.Parse(r.URL.Query().Get("academic_year_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid academic year ID")
		return
	}

	record, err := h.promotion.GetDecision(r.Context(), accountID, studentID, yearID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, promotionToResponse(record))
}

// promotionToResponse converts a domain.PromotionRecord to a PromotionResponse
func promotionToResponse(record *domain.PromotionRecord) PromotionResponse {
	return PromotionResponse{
		ID:             record.ID.String(),
		StudentID:      record.StudentID.String(),
		AcademicYearID: record.AcademicYearID.String(),
		FinalAverage:   record.FinalAverage,
		Outcome:        string(record.Outcome),
		DecidedAt:      record.DecidedAt,
	}
}
