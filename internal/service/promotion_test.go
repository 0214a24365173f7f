package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// promotionFixture wires a PromotionService over in-memory stores with
// one root tenant and one academic year using 50/35/20 thresholds.
type promotionFixture struct {
	service   *PromotionService
	results   *fakeResultStore
	decisions *fakePromotionStore

	rootID uuid.UUID
	year   *domain.AcademicYear
}

func newPromotionFixture(t *testing.T) *promotionFixture {
	t.Helper()

	accounts := newFakeAccountStore()
	rootID := accounts.addRoot()
	schedules := newFakeScheduleStore()
	results := newFakeResultStore()
	decisions := newFakePromotionStore()
	tenancy := NewTenancyResolver(accounts, 10, nil)

	year, err := domain.NewAcademicYear(
		rootID,
		time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		3, 2,
		50, 35, 20,
	)
	require.NoError(t, err)
	require.NoError(t, schedules.CreateAcademicYear(context.Background(), year))

	return &promotionFixture{
		service:   NewPromotionService(tenancy, schedules, results, decisions, nil),
		results:   results,
		decisions: decisions,
		rootID:    rootID,
		year:      year,
	}
}

// setFinalAverage installs the latest term result the decision reads.
func (f *promotionFixture) setFinalAverage(studentID uuid.UUID, average float64) {
	f.results.latestByStudent[studentID] = &domain.TermResult{
		ID:                 uuid.New(),
		OwnerTenantID:      f.rootID,
		StudentID:          studentID,
		ClassID:            uuid.New(),
		TermID:             uuid.New(),
		AverageScore:       average,
		SubjectCount:       4,
		ClassPosition:      1,
		ClassTotalStudents: 20,
	}
}

func TestPromotionServiceDecidePromotion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("classifies across the three zones", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name    string
			average float64
			want    domain.PromotionOutcome
		}{
			{name: "above promotion threshold", average: 72, want: domain.OutcomePromoted},
			{name: "exactly at promotion threshold", average: 50, want: domain.OutcomePromoted},
			{name: "just below promotion threshold", average: 49.5, want: domain.OutcomeRepeat},
			{name: "exactly at drop threshold", average: 20, want: domain.OutcomeRepeat},
			{name: "below drop threshold", average: 19.5, want: domain.OutcomeDropped},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				f := newPromotionFixture(t)
				studentID := uuid.New()
				f.setFinalAverage(studentID, tc.average)

				record, err := f.service.DecidePromotion(ctx, f.rootID, studentID, f.year.ID)
				require.NoError(t, err)
				assert.Equal(t, tc.want, record.Outcome)
				assert.InDelta(t, tc.average, record.FinalAverage, 1e-9)
			})
		}
	})

	t.Run("persists the decision for later reads", func(t *testing.T) {
		t.Parallel()

		f := newPromotionFixture(t)
		studentID := uuid.New()
		f.setFinalAverage(studentID, 64)

		decided, err := f.service.DecidePromotion(ctx, f.rootID, studentID, f.year.ID)
		require.NoError(t, err)

		fetched, err := f.service.GetDecision(ctx, f.rootID, studentID, f.year.ID)
		require.NoError(t, err)
		assert.Equal(t, decided.ID, fetched.ID)
		assert.Equal(t, domain.OutcomePromoted, fetched.Outcome)
	})

	t.Run("rerunning overwrites the previous decision", func(t *testing.T) {
		t.Parallel()

		f := newPromotionFixture(t)
		studentID := uuid.New()

		f.setFinalAverage(studentID, 30)
		first, err := f.service.DecidePromotion(ctx, f.rootID, studentID, f.year.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeRepeat, first.Outcome)

		f.setFinalAverage(studentID, 80)
		second, err := f.service.DecidePromotion(ctx, f.rootID, studentID, f.year.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomePromoted, second.Outcome)

		require.Len(t, f.decisions.records, 1, "one row per student and year")
		fetched, err := f.service.GetDecision(ctx, f.rootID, studentID, f.year.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomePromoted, fetched.Outcome)
	})

	t.Run("student with no term result yields insufficient data", func(t *testing.T) {
		t.Parallel()

		f := newPromotionFixture(t)

		_, err := f.service.DecidePromotion(ctx, f.rootID, uuid.New(), f.year.ID)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("missing academic year", func(t *testing.T) {
		t.Parallel()

		f := newPromotionFixture(t)
		studentID := uuid.New()
		f.setFinalAverage(studentID, 60)

		_, err := f.service.DecidePromotion(ctx, f.rootID, studentID, uuid.New())
		assert.ErrorIs(t, err, store.ErrAcademicYearNotFound)
	})

	t.Run("foreign tenant's year is indistinguishable from a missing one", func(t *testing.T) {
		t.Parallel()

		f := newPromotionFixture(t)
		studentID := uuid.New()
		f.setFinalAverage(studentID, 60)

		// A second tenant probing with the first tenant's year ID.
		otherAccounts := newFakeAccountStore()
		otherRoot := otherAccounts.addRoot()
		f.year.OwnerTenantID = otherRoot

		_, err := f.service.DecidePromotion(ctx, f.rootID, studentID, f.year.ID)
		assert.ErrorIs(t, err, store.ErrAcademicYearNotFound)
	})

	t.Run("unknown acting account", func(t *testing.T) {
		t.Parallel()

		f := newPromotionFixture(t)

		_, err := f.service.DecidePromotion(ctx, uuid.New(), uuid.New(), f.year.ID)
		assert.ErrorIs(t, err, ErrUnknownAccount)
	})
}

func TestPromotionServiceGetDecision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("undecided student has no record", func(t *testing.T) {
		t.Parallel()

		f := newPromotionFixture(t)

		_, err := f.service.GetDecision(ctx, f.rootID, uuid.New(), f.year.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
