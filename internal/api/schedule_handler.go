package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/api/middleware"
	"github.com/kmuhangi/elimu-api/internal/api/shared"
	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/platform/metrics"
	"github.com/kmuhangi/elimu-api/internal/service"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// CreateYearRequest represents the request body for creating an academic
// year configuration. Dates use the YYYY-MM-DD form; time of day is not
// significant anywhere in the calendar.
type CreateYearRequest struct {
	StartDate          string  `json:"start_date"          validate:"required,datetime=2006-01-02"`
	EndDate            string  `json:"end_date"            validate:"required,datetime=2006-01-02"`
	TermCount          int     `json:"term_count"          validate:"required,min=2,max=3"`
	ExamsPerTerm       int     `json:"exams_per_term"      validate:"required,min=1,max=3"`
	PromotionThreshold float64 `json:"promotion_threshold" validate:"gte=0,lte=100"`
	RepeatThreshold    float64 `json:"repeat_threshold"    validate:"gte=0,lte=100"`
	DropThreshold      float64 `json:"drop_threshold"      validate:"gte=0,lte=100"`
}

// YearResponse represents the response data for an academic year
type YearResponse struct {
	ID                 string    `json:"id"`
	OwnerTenantID      string    `json:"owner_tenant_id"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
	TermCount          int       `json:"term_count"`
	ExamsPerTerm       int       `json:"exams_per_term"`
	PromotionThreshold float64   `json:"promotion_threshold"`
	RepeatThreshold    float64   `json:"repeat_threshold"`
	DropThreshold      float64   `json:"drop_threshold"`
	CreatedAt          time.Time `json:"created_at"`
}

// TermResponse represents one term of a generated schedule
type TermResponse struct {
	ID         string `json:"id"`
	TermNumber int    `json:"term_number"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// ExamResponse represents one exam slot of a generated schedule
type ExamResponse struct {
	ID         string `json:"id"`
	TermID     string `json:"term_id"`
	ExamNumber int    `json:"exam_number"`
	ExamKind   string `json:"exam_kind"`
	ExamDate   string `json:"exam_date"`
}

// ScheduleResponse represents a generated term and exam calendar
type ScheduleResponse struct {
	Year  YearResponse   `json:"year"`
	Terms []TermResponse `json:"terms"`
	Exams []ExamResponse `json:"exams"`
}

// ScheduleHandler handles academic year and schedule HTTP requests
type ScheduleHandler struct {
	tenancy   *service.TenancyResolver
	schedule  store.ScheduleStore
	scheduler *service.CycleScheduler
	validator *validator.Validate
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(
	tenancy *service.TenancyResolver,
	schedule store.ScheduleStore,
	scheduler *service.CycleScheduler,
) *ScheduleHandler {
	return &ScheduleHandler{
		tenancy:   tenancy,
		schedule:  schedule,
		scheduler: scheduler,
		validator: validator.New(),
	}
}

// CreateYear handles POST /api/academic-years requests. The year is
// owned by the acting account's tenant, whichever account in the tree
// creates it.
func (h *ScheduleHandler) CreateYear(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	var req CreateYearRequest
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

	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	year, err := domain.NewAcademicYear(
		tenantID,
		startDate, endDate,
		req.TermCount, req.ExamsPerTerm,
		req.PromotionThreshold, req.RepeatThreshold, req.DropThreshold,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid academic year data", err)
		return
	}

	if err := h.schedule.CreateAcademicYear(r.Context(), year); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, yearToResponse(year))
}

// GenerateSchedule handles POST /api/academic-years/{id}/schedule
// requests. Generation is idempotent; repeating the call returns the
// same calendar.
func (h *ScheduleHandler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r)
	if !ok || accountID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Account ID not found or invalid")
		return
	}

	yearID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid academic year ID")
		return
	}

	tenantID, err := h.tenancy.ResolveOwner(r.Context(), accountID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// Ownership check before generation; a foreign year reads as missing.
	year, err := h.schedule.GetAcademicYear(r.Context(), yearID)
	if err != nil || year.OwnerTenantID != tenantID {
		if err == nil {
			err = store.ErrAcademicYearNotFound
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	schedule, err := h.scheduler.GenerateSchedule(r.Context(), yearID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidScheduleConfig):
			metrics.ObserveScheduleGeneration("invalid_config")
		case errors.Is(err, service.ErrScheduleShrink):
			metrics.ObserveScheduleGeneration("shrink")
		default:
			metrics.ObserveScheduleGeneration("error")
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	metrics.ObserveScheduleGeneration("ok")
	shared.RespondWithJSON(w, r, http.StatusOK, scheduleToResponse(schedule))
}

// yearToResponse converts a domain.AcademicYear to a YearResponse
func yearToResponse(year *domain.AcademicYear) YearResponse {
	return YearResponse{
		ID:                 year.ID.String(),
		OwnerTenantID:      year.OwnerTenantID.String(),
		StartDate:          year.StartDate.Format("2006-01-02"),
		EndDate:            year.EndDate.Format("2006-01-02"),
		TermCount:          year.TermCount,
		ExamsPerTerm:       year.ExamsPerTerm,
		PromotionThreshold: year.PromotionThreshold,
		RepeatThreshold:    year.RepeatThreshold,
		DropThreshold:      year.DropThreshold,
		CreatedAt:          year.CreatedAt,
	}
}

// scheduleToResponse converts a service.Schedule to a ScheduleResponse
func scheduleToResponse(schedule *service.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		Year:  yearToResponse(schedule.Year),
		Terms: make([]TermResponse, 0, len(schedule.Terms)),
		Exams: make([]ExamResponse, 0, len(schedule.Exams)),
	}

	for _, term := range schedule.Terms {
		resp.Terms = append(resp.Terms, TermResponse{
			ID:         term.ID.String(),
			TermNumber: term.TermNumber,
			StartDate:  term.StartDate.Format("2006-01-02"),
			EndDate:    term.EndDate.Format("2006-01-02"),
		})
	}

	for _, exam := range schedule.Exams {
		resp.Exams = append(resp.Exams, ExamResponse{
			ID:         exam.ID.String(),
			TermID:     exam.TermID.String(),
			ExamNumber: exam.ExamNumber,
			ExamKind:   string(exam.ExamKind),
			ExamDate:   exam.ExamDate.Format("2006-01-02"),
		})
	}

	return resp
}
