package service

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"

	"github.com/kmuhangi/elimu-api/internal/domain"
	"github.com/kmuhangi/elimu-api/internal/store"
)

// fakeTxRunner runs the function directly; the fakes below keep their
// state in memory, so there is no real transaction to manage.
type fakeTxRunner struct{}

func (fakeTxRunner) RunTx(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// fakeAccountStore is an in-memory AccountStore.
type fakeAccountStore struct {
	accounts map[uuid.UUID]*domain.TenantAccount
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[uuid.UUID]*domain.TenantAccount)}
}

func (s *fakeAccountStore) Create(ctx context.Context, account *domain.TenantAccount) error {
	if _, ok := s.accounts[account.ID]; ok {
		return store.ErrDuplicate
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantAccount, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return account, nil
}

func (s *fakeAccountStore) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	account, ok := s.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	account.Disabled = disabled
	return nil
}

func (s *fakeAccountStore) WithTx(tx *sql.Tx) store.AccountStore { return s }

// addRoot creates and stores a root account, returning its ID.
func (s *fakeAccountStore) addRoot() uuid.UUID {
	account, err := domain.NewRootAccount()
	if err != nil {
		panic(err)
	}
	s.accounts[account.ID] = account
	return account.ID
}

// addChild creates and stores a delegate under the given parent.
func (s *fakeAccountStore) addChild(parentID uuid.UUID) uuid.UUID {
	account, err := domain.NewDelegateAccount(parentID, domain.RoleDelegate)
	if err != nil {
		panic(err)
	}
	s.accounts[account.ID] = account
	return account.ID
}

// fakeScheduleStore is an in-memory ScheduleStore. The populated counts
// are set directly by tests simulating recorded results.
type fakeScheduleStore struct {
	years map[uuid.UUID]*domain.AcademicYear
	terms map[uuid.UUID][]*domain.Term // keyed by academic year ID
	exams map[uuid.UUID][]*domain.Exam // keyed by term ID

	termsWithResults map[uuid.UUID]int
	examsWithResults map[uuid.UUID]int

	lockCalls int
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{
		years:            make(map[uuid.UUID]*domain.AcademicYear),
		terms:            make(map[uuid.UUID][]*domain.Term),
		exams:            make(map[uuid.UUID][]*domain.Exam),
		termsWithResults: make(map[uuid.UUID]int),
		examsWithResults: make(map[uuid.UUID]int),
	}
}

func (s *fakeScheduleStore) CreateAcademicYear(ctx context.Context, year *domain.AcademicYear) error {
	if _, ok := s.years[year.ID]; ok {
		return store.ErrDuplicate
	}
	s.years[year.ID] = year
	return nil
}

func (s *fakeScheduleStore) GetAcademicYear(ctx context.Context, id uuid.UUID) (*domain.AcademicYear, error) {
	year, ok := s.years[id]
	if !ok {
		return nil, store.ErrAcademicYearNotFound
	}
	return year, nil
}

func (s *fakeScheduleStore) ListTerms(ctx context.Context, academicYearID uuid.UUID) ([]*domain.Term, error) {
	terms := append([]*domain.Term{}, s.terms[academicYearID]...)
	sort.Slice(terms, func(i, j int) bool { return terms[i].TermNumber < terms[j].TermNumber })
	return terms, nil
}

func (s *fakeScheduleStore) CreateTerm(ctx context.Context, term *domain.Term) error {
	for _, existing := range s.terms[term.AcademicYearID] {
		if existing.TermNumber == term.TermNumber {
			return store.ErrDuplicate
		}
	}
	s.terms[term.AcademicYearID] = append(s.terms[term.AcademicYearID], term)
	return nil
}

func (s *fakeScheduleStore) ListExams(ctx context.Context, termID uuid.UUID) ([]*domain.Exam, error) {
	exams := append([]*domain.Exam{}, s.exams[termID]...)
	sort.Slice(exams, func(i, j int) bool { return exams[i].ExamNumber < exams[j].ExamNumber })
	return exams, nil
}

func (s *fakeScheduleStore) CreateExam(ctx context.Context, exam *domain.Exam) error {
	for _, existing := range s.exams[exam.TermID] {
		if existing.ExamNumber == exam.ExamNumber {
			return store.ErrDuplicate
		}
	}
	s.exams[exam.TermID] = append(s.exams[exam.TermID], exam)
	return nil
}

func (s *fakeScheduleStore) CountTermsWithResults(ctx context.Context, academicYearID uuid.UUID) (int, error) {
	return s.termsWithResults[academicYearID], nil
}

func (s *fakeScheduleStore) CountExamsWithResults(ctx context.Context, termID uuid.UUID) (int, error) {
	return s.examsWithResults[termID], nil
}

func (s *fakeScheduleStore) AcquireYearLock(ctx context.Context, academicYearID uuid.UUID) error {
	s.lockCalls++
	return nil
}

func (s *fakeScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore { return s }

// fakeResultStore is an in-memory ResultStore.
type fakeResultStore struct {
	subjectRows []*domain.SubjectResult

	appliedStandings []store.SubjectStanding
	termResults      map[uuid.UUID][]*domain.TermResult // keyed by term ID
	latestByStudent  map[uuid.UUID]*domain.TermResult
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{
		termResults:     make(map[uuid.UUID][]*domain.TermResult),
		latestByStudent: make(map[uuid.UUID]*domain.TermResult),
	}
}

func (s *fakeResultStore) CreateSubjectResult(ctx context.Context, result *domain.SubjectResult) error {
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

func (s *fakeResultStore) ListSubjectResults(
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

func (s *fakeResultStore) ListTermSubjectResults(
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

func (s *fakeResultStore) ApplySubjectStandings(
	ctx context.Context,
	tenantID, classID, subjectID, termID uuid.UUID,
	standings []store.SubjectStanding,
) error {
	s.appliedStandings = append([]store.SubjectStanding{}, standings...)
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

func (s *fakeResultStore) ReplaceTermResults(
	ctx context.Context,
	tenantID, classID, termID uuid.UUID,
	results []*domain.TermResult,
) error {
	s.termResults[termID] = append([]*domain.TermResult{}, results...)
	return nil
}

func (s *fakeResultStore) GetLatestTermResult(
	ctx context.Context,
	tenantID, studentID, academicYearID uuid.UUID,
) (*domain.TermResult, error) {
	result, ok := s.latestByStudent[studentID]
	if !ok || result.OwnerTenantID != tenantID {
		return nil, store.ErrTermResultNotFound
	}
	return result, nil
}

func (s *fakeResultStore) WithTx(tx *sql.Tx) store.ResultStore { return s }

// fakePromotionStore is an in-memory PromotionStore.
type fakePromotionStore struct {
	records map[string]*domain.PromotionRecord
}

func newFakePromotionStore() *fakePromotionStore {
	return &fakePromotionStore{records: make(map[string]*domain.PromotionRecord)}
}

func promotionKey(studentID, yearID uuid.UUID) string {
	return studentID.String() + "/" + yearID.String()
}

func (s *fakePromotionStore) Upsert(ctx context.Context, record *domain.PromotionRecord) error {
	s.records[promotionKey(record.StudentID, record.AcademicYearID)] = record
	return nil
}

func (s *fakePromotionStore) Get(
	ctx context.Context,
	tenantID, studentID, academicYearID uuid.UUID,
) (*domain.PromotionRecord, error) {
	record, ok := s.records[promotionKey(studentID, academicYearID)]
	if !ok || record.OwnerTenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return record, nil
}

func (s *fakePromotionStore) WithTx(tx *sql.Tx) store.PromotionStore { return s }
