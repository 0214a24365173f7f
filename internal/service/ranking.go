package service

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/domain/ranking"
	"github.com/kmuhangi/elimu-api/internal/platform/logger"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// RankingReport summarizes one recompute pass: how many students were
// ranked and which were skipped because their rows were malformed.
// Skipped students are excluded from the ranking entirely rather than
// ranked on a partial or defaulted score.
type RankingReport struct {
	Ranked  int         `json:"ranked"`
	Skipped []uuid.UUID `json:"skipped,omitempty"`
}

// RankingService recomputes derived standings from raw scores. Both
// recompute operations replace their whole scope inside one transaction,
// so readers never observe a half-updated ranking, and both are
// deterministic: the same raw rows always produce the same output.
type RankingService struct {
	tenancy *TenancyResolver
	results store.ResultStore
	tx      store.TxRunner
	logger  *slog.Logger
}

// NewRankingService creates a new RankingService.
func NewRankingService(
	tenancy *TenancyResolver,
	results store.ResultStore,
	tx store.TxRunner,
	logger *slog.Logger,
) *RankingService {
	if tenancy == nil {
		panic("tenancy resolver cannot be nil")
	}

	if results == nil {
		panic("result store cannot be nil")
	}

	if tx == nil {
		panic("transaction runner cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RankingService{
		tenancy: tenancy,
		results: results,
		tx:      tx,
		logger:  logger.With(slog.String("component", "ranking_service")),
	}
}

// RecomputeSubjectRanking recomputes every student's rolling average and
// class position for one (class, subject, term) scope, across all exams
// graded so far. A scope with no scores is a no-op returning an empty
// report, not an error.
func (s *RankingService) RecomputeSubjectRanking(
	ctx context.Context,
	actingAccountID, classID, subjectID, termID uuid.UUID,
) (*RankingReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tenantID, err := s.tenancy.ResolveOwner(ctx, actingAccountID)
	if err != nil {
		return nil, err
	}

	var report *RankingReport
	err = s.tx.RunTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rs := s.results.WithTx(tx)

		rows, err := rs.ListSubjectResults(ctx, tenantID, classID, subjectID, termID)
		if err != nil {
			return NewEngineError("recompute_subject_ranking", "failed to list subject results", err)
		}

		entries, skipped := subjectAverages(rows)
		report = &RankingReport{Ranked: len(entries), Skipped: skipped}
		if len(entries) == 0 {
			return nil
		}

		standings := make([]store.SubjectStanding, 0, len(entries))
		for _, r := range ranking.CompetitionRanks(entries) {
			standings = append(standings, store.SubjectStanding{
				StudentID:       r.StudentID,
				ComputedAverage: r.Average,
				Position:        r.Position,
			})
		}

		if err := rs.ApplySubjectStandings(ctx, tenantID, classID, subjectID, termID, standings); err != nil {
			return NewEngineError("recompute_subject_ranking", "failed to apply standings", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Info("subject ranking recomputed",
		slog.String("class_id", classID.String()),
		slog.String("subject_id", subjectID.String()),
		slog.String("term_id", termID.String()),
		slog.Int("ranked", report.Ranked),
		slog.Int("skipped", len(report.Skipped)))
	return report, nil
}

// RecomputeTermRanking recomputes every student's term aggregate for one
// (class, term) scope: the mean of their per-subject averages across all
// subjects they attempted, and the class position over those aggregates.
// Students are not penalized for subjects they have no scores in. The
// previous term results of the scope are replaced wholesale.
func (s *RankingService) RecomputeTermRanking(
	ctx context.Context,
	actingAccountID, classID, termID uuid.UUID,
) (*RankingReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tenantID, err := s.tenancy.ResolveOwner(ctx, actingAccountID)
	if err != nil {
		return nil, err
	}

	var report *RankingReport
	err = s.tx.RunTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rs := s.results.WithTx(tx)

		rows, err := rs.ListTermSubjectResults(ctx, tenantID, classID, termID)
		if err != nil {
			return NewEngineError("recompute_term_ranking", "failed to list term results", err)
		}

		entries, subjectCounts, skipped := termAverages(rows)
		report = &RankingReport{Ranked: len(entries), Skipped: skipped}
		if len(entries) == 0 {
			return nil
		}

		ranked := ranking.CompetitionRanks(entries)
		results := make([]*domain.TermResult, 0, len(ranked))
		for _, r := range ranked {
			results = append(results, &domain.TermResult{
				ID:                 uuid.New(),
				OwnerTenantID:      tenantID,
				StudentID:          r.StudentID,
				ClassID:            classID,
				TermID:             termID,
				AverageScore:       r.Average,
				SubjectCount:       subjectCounts[r.StudentID],
				ClassPosition:      r.Position,
				ClassTotalStudents: len(ranked),
			})
		}

		if err := rs.ReplaceTermResults(ctx, tenantID, classID, termID, results); err != nil {
			return NewEngineError("recompute_term_ranking", "failed to replace term results", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	log.Info("term ranking recomputed",
		slog.String("class_id", classID.String()),
		slog.String("term_id", termID.String()),
		slog.Int("ranked", report.Ranked),
		slog.Int("skipped", len(report.Skipped)))
	return report, nil
}

// subjectAverages folds raw subject result rows into one average per
// student. Students with any malformed row are dropped from the ranking
// and reported as skipped.
func subjectAverages(rows []*domain.SubjectResult) ([]ranking.Scored, []uuid.UUID) {
	scores := make(map[uuid.UUID][]float64)
	malformed := make(map[uuid.UUID]bool)

	for _, row := range rows {
		if err := row.Validate(); err != nil {
			malformed[row.StudentID] = true
			continue
		}
		scores[row.StudentID] = append(scores[row.StudentID], row.RawScore)
	}

	entries := make([]ranking.Scored, 0, len(scores))
	for studentID, studentScores := range scores {
		if malformed[studentID] {
			continue
		}
		entries = append(entries, ranking.Scored{
			StudentID: studentID,
			Average:   ranking.Mean(studentScores),
		})
	}

	return entries, sortedIDs(malformed)
}

// termAverages folds raw subject result rows of a whole term into one
// aggregate per student: the mean of the student's per-subject averages,
// each subject weighted equally regardless of its exam count. Also
// returns how many subjects each student's aggregate covers.
func termAverages(
	rows []*domain.SubjectResult,
) ([]ranking.Scored, map[uuid.UUID]int, []uuid.UUID) {
	type subjectKey struct {
		student uuid.UUID
		subject uuid.UUID
	}

	scores := make(map[subjectKey][]float64)
	malformed := make(map[uuid.UUID]bool)

	for _, row := range rows {
		if err := row.Validate(); err != nil {
			malformed[row.StudentID] = true
			continue
		}
		key := subjectKey{student: row.StudentID, subject: row.SubjectID}
		scores[key] = append(scores[key], row.RawScore)
	}

	perStudent := make(map[uuid.UUID][]float64)
	for key, subjectScores := range scores {
		if malformed[key.student] {
			continue
		}
		perStudent[key.student] = append(perStudent[key.student], ranking.Mean(subjectScores))
	}

	entries := make([]ranking.Scored, 0, len(perStudent))
	subjectCounts := make(map[uuid.UUID]int, len(perStudent))
	for studentID, subjectMeans := range perStudent {
		entries = append(entries, ranking.Scored{
			StudentID: studentID,
			Average:   ranking.Mean(subjectMeans),
		})
		subjectCounts[studentID] = len(subjectMeans)
	}

	return entries, subjectCounts, sortedIDs(malformed)
}

// sortedIDs flattens a set of student IDs into a deterministic slice.
func sortedIDs(set map[uuid.UUID]bool) []uuid.UUID {
	if len(set) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
