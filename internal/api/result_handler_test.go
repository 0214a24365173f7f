package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmuhangi/elimu-api/internal/api/shared"
	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/service"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// passthroughTxRunner runs the function directly; the in-memory stores
// below have no real transaction to manage.
type passthroughTxRunner struct{}

func (passthroughTxRunner) RunTx(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// memoryAccountStore holds accounts in a map, just enough for tenancy
// resolution in handler tests.
type memoryAccountStore struct {
	accounts map[uuid.UUID]*domain.TenantAccount
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: make(map[uuid.UUID]*domain.TenantAccount)}
}

func (s *memoryAccountStore) Create(ctx context.Context, account *domain.TenantAccount) error {
	if _, ok := s.accounts[account.ID]; ok {
		return store.ErrDuplicate
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *memoryAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantAccount, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return account, nil
}

func (s *memoryAccountStore) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	account, ok := s.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.Disabled = disabled
	return nil
}

func (s *memoryAccountStore) WithTx(tx *sql.Tx) store.AccountStore { return s }

// memoryResultStore holds subject result rows in a slice and records
// every standings application.
type memoryResultStore struct {
	subjectRows   []*domain.SubjectResult
	standingsRuns int
}

func (s *memoryResultStore) CreateSubjectResult(ctx context.Context, result *domain.SubjectResult) error {
	for _, existing := range s.subjectRows {
		if existing.StudentID == result.StudentID &&
			existing.SubjectID == result.SubjectID &&
			existing.ExamID == result.ExamID {
			return store.ErrDuplicate
		}
	}
	s.subjectRows = append(s.subjectRows, result)
	return nil
}

func (s *memoryResultStore) ListSubjectResults(
	ctx context.Context,
	tenantID, classID, subjectID, termID uuid.UUID,
) ([]*domain.SubjectResult, error) {
	rows := []*domain.SubjectResult{}
	for _, row := range s.subjectRows {
		if row.OwnerTenantID == tenantID && row.ClassID == classID &&
			row.SubjectID == subjectID && row.TermID == termID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *memoryResultStore) ListTermSubjectResults(
	ctx context.Context,
	tenantID, classID, termID uuid.UUID,
) ([]*domain.SubjectResult, error) {
	rows := []*domain.SubjectResult{}
	for _, row := range s.subjectRows {
		if row.OwnerTenantID == tenantID && row.ClassID == classID && row.TermID == termID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *memoryResultStore) ApplySubjectStandings(
	ctx context.Context,
	tenantID, classID, subjectID, termID uuid.UUID,
	standings []store.SubjectStanding,
) error {
	s.standingsRuns++
	for _, row := range s.subjectRows {
		if row.OwnerTenantID == tenantID && row.ClassID == classID &&
			row.SubjectID == subjectID && row.TermID == termID {
			row.SubjectPosition = nil
		}
	}
	for _, standing := range standings {
		for _, row := range s.subjectRows {
			if row.StudentID == standing.StudentID && row.OwnerTenantID == tenantID &&
				row.ClassID == classID && row.SubjectID == subjectID && row.TermID == termID {
				row.ComputedAverage = standing.ComputedAverage
				position := standing.Position
				row.SubjectPosition = &position
			}
		}
	}
	return nil
}

func (s *memoryResultStore) ReplaceTermResults(
	ctx context.Context,
	tenantID, classID, termID uuid.UUID,
	results []*domain.TermResult,
) error {
	return nil
}

func (s *memoryResultStore) GetLatestTermResult(
	ctx context.Context,
	tenantID, studentID, academicYearID uuid.UUID,
) (*domain.TermResult, error) {
	return nil, store.ErrTermResultNotFound
}

func (s *memoryResultStore) WithTx(tx *sql.Tx) store.ResultStore { return s }

// resultHandlerFixture wires a ResultHandler over in-memory stores with
// one root tenant acting as itself.
type resultHandlerFixture struct {
	handler *ResultHandler
	results *memoryResultStore
	rootID  uuid.UUID
}

func newResultHandlerFixture(t *testing.T) *resultHandlerFixture {
	t.Helper()

	accounts := newMemoryAccountStore()
	root, err := domain.NewRootAccount()
	require.NoError(t, err)
	require.NoError(t, accounts.Create(context.Background(), root))

	results := &memoryResultStore{}
	tenancy := service.NewTenancyResolver(accounts, 10, nil)
	ranking := service.NewRankingService(tenancy, results, passthroughTxRunner{}, nil)

	return &resultHandlerFixture{
		handler: NewResultHandler(tenancy, results, ranking),
		results: results,
		rootID:  root.ID,
	}
}

// postScore sends a RecordScore request as the fixture's root account
// and returns the recorder.
func (f *resultHandlerFixture) postScore(t *testing.T, body RecordScoreRequest) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/results", bytes.NewReader(payload))
	req = req.WithContext(context.WithValue(req.Context(), shared.AccountIDContextKey, f.rootID))

	rec := httptest.NewRecorder()
	f.handler.RecordScore(rec, req)
	return rec
}

func TestResultHandlerRecordScore(t *testing.T) {
	t.Parallel()

	t.Run("a recorded score refreshes its subject standings", func(t *testing.T) {
		t.Parallel()

		f := newResultHandlerFixture(t)
		classID, subjectID, termID := uuid.New(), uuid.New(), uuid.New()
		alice, bob := uuid.New(), uuid.New()

		rec := f.postScore(t, RecordScoreRequest{
			StudentID: alice.String(),
			ClassID:   classID.String(),
			SubjectID: subjectID.String(),
			TermID:    termID.String(),
			ExamID:    uuid.New().String(),
			RawScore:  90,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, f.results.standingsRuns, "the write must trigger a subject recompute")

		rec = f.postScore(t, RecordScoreRequest{
			StudentID: bob.String(),
			ClassID:   classID.String(),
			SubjectID: subjectID.String(),
			TermID:    termID.String(),
			ExamID:    uuid.New().String(),
			RawScore:  70,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 2, f.results.standingsRuns)

		positions := make(map[uuid.UUID]int)
		for _, row := range f.results.subjectRows {
			require.NotNil(t, row.SubjectPosition, "every stored row must carry a position after the write")
			positions[row.StudentID] = *row.SubjectPosition
		}
		assert.Equal(t, 1, positions[alice])
		assert.Equal(t, 2, positions[bob])
	})

	t.Run("a duplicate score conflicts without recomputing", func(t *testing.T) {
		t.Parallel()

		f := newResultHandlerFixture(t)
		body := RecordScoreRequest{
			StudentID: uuid.New().String(),
			ClassID:   uuid.New().String(),
			SubjectID: uuid.New().String(),
			TermID:    uuid.New().String(),
			ExamID:    uuid.New().String(),
			RawScore:  55,
		}

		require.Equal(t, http.StatusCreated, f.postScore(t, body).Code)
		require.Equal(t, 1, f.results.standingsRuns)

		rec := f.postScore(t, body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, 1, f.results.standingsRuns, "a rejected write must not recompute")
	})

	t.Run("missing account context is unauthorized", func(t *testing.T) {
		t.Parallel()

		f := newResultHandlerFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/results", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		f.handler.RecordScore(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("out-of-range score is rejected before storage", func(t *testing.T) {
		t.Parallel()

		f := newResultHandlerFixture(t)
		rec := f.postScore(t, RecordScoreRequest{
			StudentID: uuid.New().String(),
			ClassID:   uuid.New().String(),
			SubjectID: uuid.New().String(),
			TermID:    uuid.New().String(),
			ExamID:    uuid.New().String(),
			RawScore:  100.5,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.results.subjectRows)
		assert.Equal(t, 0, f.results.standingsRuns)
	})
}
