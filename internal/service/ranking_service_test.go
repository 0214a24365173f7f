package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// rankingFixture wires a RankingService over in-memory stores with one
// root tenant.
type rankingFixture struct {
	service *RankingService
	results *fakeResultStore

	rootID  uuid.UUID
	classID uuid.UUID
	termID  uuid.UUID
}

func newRankingFixture(t *testing.T) *rankingFixture {
	t.Helper()

	accounts := newFakeAccountStore()
	rootID := accounts.addRoot()
	results := newFakeResultStore()
	tenancy := NewTenancyResolver(accounts, 10, nil)

	return &rankingFixture{
		service: NewRankingService(tenancy, results, fakeTxRunner{}, nil),
		results: results,
		rootID:  rootID,
		classID: uuid.New(),
		termID:  uuid.New(),
	}
}

// addScore records one raw score row for the fixture's tenant scope.
func (f *rankingFixture) addScore(t *testing.T, studentID, subjectID, examID uuid.UUID, raw float64) {
	t.Helper()

	result, err := domain.NewSubjectResult(
		f.rootID, studentID, f.classID, subjectID, f.termID, examID, raw)
	require.NoError(t, err)
	require.NoError(t, f.results.CreateSubjectResult(context.Background(), result))
}

// addMalformedScore injects a row that fails validation, bypassing the
// constructor the way corrupted data would.
func (f *rankingFixture) addMalformedScore(studentID, subjectID uuid.UUID, raw float64) {
	f.results.subjectRows = append(f.results.subjectRows, &domain.SubjectResult{
		ID:            uuid.New(),
		OwnerTenantID: f.rootID,
		StudentID:     studentID,
		ClassID:       f.classID,
		SubjectID:     subjectID,
		TermID:        f.termID,
		ExamID:        uuid.New(),
		RawScore:      raw,
	})
}

func TestRankingServiceRecomputeSubjectRanking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("averages across exams and assigns competition ranks", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		subjectID := uuid.New()
		exam1, exam2 := uuid.New(), uuid.New()
		alice, bob, cara := uuid.New(), uuid.New(), uuid.New()

		f.addScore(t, alice, subjectID, exam1, 80)
		f.addScore(t, alice, subjectID, exam2, 90) // avg 85
		f.addScore(t, bob, subjectID, exam1, 85)
		f.addScore(t, bob, subjectID, exam2, 85) // avg 85
		f.addScore(t, cara, subjectID, exam1, 70) // avg 70

		report, err := f.service.RecomputeSubjectRanking(ctx, f.rootID, f.classID, subjectID, f.termID)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Ranked)
		assert.Empty(t, report.Skipped)

		positions := make(map[uuid.UUID]int)
		averages := make(map[uuid.UUID]float64)
		for _, s := range f.results.appliedStandings {
			positions[s.StudentID] = s.Position
			averages[s.StudentID] = s.ComputedAverage
		}

		assert.Equal(t, 1, positions[alice])
		assert.Equal(t, 1, positions[bob], "tied averages share the position")
		assert.Equal(t, 3, positions[cara], "tie does not compress the next position")
		assert.InDelta(t, 85, averages[alice], 1e-9)
		assert.InDelta(t, 70, averages[cara], 1e-9)
	})

	t.Run("students with malformed rows are skipped, not defaulted", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		subjectID := uuid.New()
		exam := uuid.New()
		alice, bob := uuid.New(), uuid.New()

		f.addScore(t, alice, subjectID, exam, 60)
		f.addScore(t, bob, subjectID, exam, 90)
		f.addMalformedScore(bob, subjectID, 150)

		report, err := f.service.RecomputeSubjectRanking(ctx, f.rootID, f.classID, subjectID, f.termID)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Ranked)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, bob, report.Skipped[0])

		require.Len(t, f.results.appliedStandings, 1)
		assert.Equal(t, alice, f.results.appliedStandings[0].StudentID)
		assert.Equal(t, 1, f.results.appliedStandings[0].Position)
	})

	t.Run("a student skipped on a later pass loses the earlier position", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		subjectID := uuid.New()
		exam := uuid.New()
		alice, bob := uuid.New(), uuid.New()

		f.addScore(t, alice, subjectID, exam, 60)
		f.addScore(t, bob, subjectID, exam, 90)

		_, err := f.service.RecomputeSubjectRanking(ctx, f.rootID, f.classID, subjectID, f.termID)
		require.NoError(t, err)

		// Bob's row gains a malformed sibling; the next pass must not
		// leave his old position attached to the scope's rows.
		f.addMalformedScore(bob, subjectID, 150)

		report, err := f.service.RecomputeSubjectRanking(ctx, f.rootID, f.classID, subjectID, f.termID)
		require.NoError(t, err)
		require.Len(t, report.Skipped, 1)

		for _, row := range f.results.subjectRows {
			if row.StudentID == bob {
				assert.Nil(t, row.SubjectPosition, "stale position must be cleared for skipped students")
			}
			if row.StudentID == alice {
				require.NotNil(t, row.SubjectPosition)
				assert.Equal(t, 1, *row.SubjectPosition)
			}
		}
	})

	t.Run("empty scope is a no-op, not an error", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)

		report, err := f.service.RecomputeSubjectRanking(ctx, f.rootID, f.classID, uuid.New(), f.termID)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Ranked)
		assert.Empty(t, report.Skipped)
		assert.Empty(t, f.results.appliedStandings)
	})

	t.Run("unknown acting account", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)

		_, err := f.service.RecomputeSubjectRanking(ctx, uuid.New(), f.classID, uuid.New(), f.termID)
		assert.ErrorIs(t, err, ErrUnknownAccount)
	})

	t.Run("repeated runs produce identical standings", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		subjectID := uuid.New()
		exam := uuid.New()
		for i := 0; i < 5; i++ {
			f.addScore(t, uuid.New(), subjectID, exam, float64(60+i*5))
		}

		_, err := f.service.RecomputeSubjectRanking(ctx, f.rootID, f.classID, subjectID, f.termID)
		require.NoError(t, err)
		first := append([]store.SubjectStanding{}, f.results.appliedStandings...)

		_, err = f.service.RecomputeSubjectRanking(ctx, f.rootID, f.classID, subjectID, f.termID)
		require.NoError(t, err)
		assert.Equal(t, first, f.results.appliedStandings)
	})
}

func TestRankingServiceRecomputeTermRanking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("aggregates per-subject means with equal subject weight", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		math, english := uuid.New(), uuid.New()
		exam1, exam2 := uuid.New(), uuid.New()
		alice, bob := uuid.New(), uuid.New()

		// Alice: math averages 90 over two exams, english 70 over one.
		// Subjects weigh equally, so her aggregate is 80, not the mean of
		// the three raw scores.
		f.addScore(t, alice, math, exam1, 85)
		f.addScore(t, alice, math, exam2, 95)
		f.addScore(t, alice, english, exam1, 70)

		// Bob sat only math; he is not penalized for missing english.
		f.addScore(t, bob, math, exam1, 75)

		report, err := f.service.RecomputeTermRanking(ctx, f.rootID, f.classID, f.termID)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Ranked)

		stored := f.results.termResults[f.termID]
		require.Len(t, stored, 2)

		byStudent := make(map[uuid.UUID]*domain.TermResult)
		for _, r := range stored {
			byStudent[r.StudentID] = r
		}

		require.Contains(t, byStudent, alice)
		require.Contains(t, byStudent, bob)
		assert.InDelta(t, 80, byStudent[alice].AverageScore, 1e-9)
		assert.Equal(t, 2, byStudent[alice].SubjectCount)
		assert.Equal(t, 1, byStudent[alice].ClassPosition)
		assert.InDelta(t, 75, byStudent[bob].AverageScore, 1e-9)
		assert.Equal(t, 1, byStudent[bob].SubjectCount)
		assert.Equal(t, 2, byStudent[bob].ClassPosition)

		for _, r := range stored {
			assert.Equal(t, 2, r.ClassTotalStudents)
			assert.Equal(t, f.rootID, r.OwnerTenantID)
		}
	})

	t.Run("replaces the previous term results wholesale", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		math := uuid.New()
		exam := uuid.New()
		alice := uuid.New()

		f.addScore(t, alice, math, exam, 50)
		_, err := f.service.RecomputeTermRanking(ctx, f.rootID, f.classID, f.termID)
		require.NoError(t, err)
		require.Len(t, f.results.termResults[f.termID], 1)
		firstID := f.results.termResults[f.termID][0].ID

		f.addScore(t, alice, math, uuid.New(), 90)
		_, err = f.service.RecomputeTermRanking(ctx, f.rootID, f.classID, f.termID)
		require.NoError(t, err)

		stored := f.results.termResults[f.termID]
		require.Len(t, stored, 1)
		assert.NotEqual(t, firstID, stored[0].ID, "rows are replaced, not updated in place")
		assert.InDelta(t, 70, stored[0].AverageScore, 1e-9)
	})

	t.Run("malformed rows drop the whole student from the aggregate", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		math, english := uuid.New(), uuid.New()
		exam := uuid.New()
		alice, bob := uuid.New(), uuid.New()

		f.addScore(t, alice, math, exam, 88)
		f.addScore(t, bob, math, exam, 92)
		f.addMalformedScore(bob, english, -5)

		report, err := f.service.RecomputeTermRanking(ctx, f.rootID, f.classID, f.termID)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Ranked)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, bob, report.Skipped[0])

		stored := f.results.termResults[f.termID]
		require.Len(t, stored, 1)
		assert.Equal(t, alice, stored[0].StudentID)
		assert.Equal(t, 1, stored[0].ClassTotalStudents)
	})

	t.Run("empty scope is a no-op, not an error", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)

		report, err := f.service.RecomputeTermRanking(ctx, f.rootID, f.classID, f.termID)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Ranked)
		assert.Empty(t, f.results.termResults[f.termID])
	})

	t.Run("scopes are tenant-isolated", func(t *testing.T) {
		t.Parallel()

		f := newRankingFixture(t)
		math := uuid.New()
		exam := uuid.New()

		// A row owned by a different tenant in the same class and term must
		// never leak into this tenant's ranking.
		foreign, err := domain.NewSubjectResult(
			uuid.New(), uuid.New(), f.classID, math, f.termID, exam, 99)
		require.NoError(t, err)
		require.NoError(t, f.results.CreateSubjectResult(ctx, foreign))

		report, err := f.service.RecomputeTermRanking(ctx, f.rootID, f.classID, f.termID)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Ranked)
	})
}
