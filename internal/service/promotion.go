package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/domain/ranking"
	"github.com/kmuhangi/elimu-api/internal/platform/logger"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// PromotionService decides year-end outcomes. A decision is a pure
// function of the student's final average and the year's three
// thresholds; rerunning it overwrites the previous record rather than
// appending history.
type PromotionService struct {
	tenancy   *TenancyResolver
	schedule  store.ScheduleStore
	results   store.ResultStore
	decisions store.PromotionStore
	logger    *slog.Logger
}

// NewPromotionService creates a new PromotionService.
func NewPromotionService(
	tenancy *TenancyResolver,
	schedule store.ScheduleStore,
	results store.ResultStore,
	decisions store.PromotionStore,
	logger *slog.Logger,
) *PromotionService {
	if tenancy == nil {
		panic("tenancy resolver cannot be nil")
	}

	if schedule == nil {
		panic("schedule store cannot be nil")
	}

	if results == nil {
		panic("result store cannot be nil")
	}

	if decisions == nil {
		panic("promotion store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PromotionService{
		tenancy:   tenancy,
		schedule:  schedule,
		results:   results,
		decisions: decisions,
		logger:    logger.With(slog.String("component", "promotion_service")),
	}
}

// DecidePromotion classifies one student for the academic year from
// their final average, the term aggregate of the highest-numbered term
// that has one. A student with no term result in the year yields
// ErrInsufficientData; the engine never substitutes a default average.
func (s *PromotionService) DecidePromotion(
	ctx context.Context,
	actingAccountID, studentID, academicYearID uuid.UUID,
) (*domain.PromotionRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tenantID, err := s.tenancy.ResolveOwner(ctx, actingAccountID)
	if err != nil {
		return nil, err
	}

	year, err := s.schedule.GetAcademicYear(ctx, academicYearID)
	if err != nil {
		return nil, NewEngineError("decide_promotion", "failed to load academic year", err)
	}

	// A year owned by another tenant is indistinguishable from a missing
	// one; cross-tenant probing never learns that the ID exists.
	if year.OwnerTenantID != tenantID {
		log.Warn("academic year owned by another tenant",
			slog.String("academic_year_id", academicYearID.String()),
			slog.String("tenant_id", tenantID.String()))
		return nil, NewEngineError("decide_promotion", "failed to load academic year",
			store.ErrAcademicYearNotFound)
	}

	thresholds := ranking.Thresholds{
		Promotion: year.PromotionThreshold,
		Repeat:    year.RepeatThreshold,
		Drop:      year.DropThreshold,
	}
	if err := thresholds.Validate(); err != nil {
		return nil, NewEngineError("decide_promotion", "invalid thresholds", err)
	}

	latest, err := s.results.GetLatestTermResult(ctx, tenantID, studentID, academicYearID)
	if err != nil {
		if errors.Is(err, store.ErrTermResultNotFound) {
			log.Debug("no term result to decide from",
				slog.String("student_id", studentID.String()),
				slog.String("academic_year_id", academicYearID.String()))
			return nil, fmt.Errorf("%w: student %s has no term result in year %s",
				ErrInsufficientData, studentID, academicYearID)
		}
		return nil, NewEngineError("decide_promotion", "failed to load term result", err)
	}

	outcome := ranking.Classify(latest.AverageScore, thresholds)

	record, err := domain.NewPromotionRecord(tenantID, studentID, academicYearID, latest.AverageScore, outcome)
	if err != nil {
		return nil, NewEngineError("decide_promotion", "failed to build promotion record", err)
	}

	if err := s.decisions.Upsert(ctx, record); err != nil {
		return nil, NewEngineError("decide_promotion", "failed to save promotion record", err)
	}

	log.Info("promotion decided",
		slog.String("student_id", studentID.String()),
		slog.String("academic_year_id", academicYearID.String()),
		slog.Float64("final_average", latest.AverageScore),
		slog.String("outcome", string(outcome)))
	return record, nil
}

// GetDecision retrieves the recorded promotion decision for a student
// and academic year within the acting account's tenant.
func (s *PromotionService) GetDecision(
	ctx context.Context,
	actingAccountID, studentID, academicYearID uuid.UUID,
) (*domain.PromotionRecord, error) {
	tenantID, err := s.tenancy.ResolveOwner(ctx, actingAccountID)
	if err != nil {
		return nil, err
	}

	record, err := s.decisions.Get(ctx, tenantID, studentID, academicYearID)
	if err != nil {
		return nil, NewEngineError("get_promotion", "failed to load promotion record", err)
	}
	return record, nil
}
