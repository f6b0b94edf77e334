package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
	user core.User
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := NewSQLiteRepository(filepath.Join(s.T().TempDir(), "ledger.db"))
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()

	s.user, err = repo.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	s.Require().NoError(err)
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) fixtures() (core.Account, core.Category) {
	acc, err := s.repo.CreateAccount(s.ctx, s.user.ID, "Cash", 0)
	s.Require().NoError(err)
	cat, err := s.repo.CreateCategory(s.ctx, s.user.ID, "Salary", core.Income)
	s.Require().NoError(err)
	return acc, cat
}

func (s *RepositoryTestSuite) TestMigrationsAreIdempotent() {
	path := filepath.Join(s.T().TempDir(), "again.db")
	s.Require().NoError(RunMigrations(path))
	s.Require().NoError(RunMigrations(path))
}

func (s *RepositoryTestSuite) TestUserLookup() {
	u, err := s.repo.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.user.ID, u.ID)
	s.Equal("alice@example.com", u.Email)

	_, err = s.repo.GetUserByUsername(s.ctx, "bob")
	s.True(errors.Is(err, core.ErrNotFound))

	exists, err := s.repo.UserExists(s.ctx, "someone", "alice@example.com")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *RepositoryTestSuite) TestSessions() {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	s.Require().NoError(s.repo.CreateSession(s.ctx, core.Session{Token: "tok", UserID: s.user.ID, ExpiresAt: expires}))

	sess, err := s.repo.GetSession(s.ctx, "tok")
	s.Require().NoError(err)
	s.Equal(s.user.ID, sess.UserID)
	s.True(sess.ExpiresAt.Equal(expires))

	s.Require().NoError(s.repo.DeleteSession(s.ctx, "tok"))
	_, err = s.repo.GetSession(s.ctx, "tok")
	s.True(errors.Is(err, core.ErrNotFound))
}

func (s *RepositoryTestSuite) TestAccountOwnership() {
	acc, _ := s.fixtures()
	other, err := s.repo.CreateUser(s.ctx, "bob", "bob@example.com", "hash")
	s.Require().NoError(err)

	_, err = s.repo.GetAccount(s.ctx, other.ID, acc.ID)
	s.True(errors.Is(err, core.ErrNotFound))

	err = s.repo.DeleteAccount(s.ctx, other.ID, acc.ID)
	s.True(errors.Is(err, core.ErrNotFound))

	exists, err := s.repo.AccountTypeExists(s.ctx, s.user.ID, "Cash", 0)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.repo.AccountTypeExists(s.ctx, s.user.ID, "Cash", acc.ID)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositoryTestSuite) TestAddToBalanceIsAdditive() {
	acc, _ := s.fixtures()
	s.Require().NoError(s.repo.AddToBalance(s.ctx, acc.ID, 100))
	s.Require().NoError(s.repo.AddToBalance(s.ctx, acc.ID, -30.5))

	got, err := s.repo.GetAccount(s.ctx, s.user.ID, acc.ID)
	s.Require().NoError(err)
	s.Equal(69.5, got.Balance)

	err = s.repo.AddToBalance(s.ctx, 9999, 1)
	s.True(errors.Is(err, core.ErrNotFound))
}

func (s *RepositoryTestSuite) TestInTxRollsBack() {
	acc, _ := s.fixtures()
	boom := errors.New("boom")

	err := s.repo.InTx(s.ctx, func(q *Queries) error {
		if err := q.AddToBalance(s.ctx, acc.ID, 50); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.repo.GetAccount(s.ctx, s.user.ID, acc.ID)
	s.Require().NoError(err)
	s.Zero(got.Balance)
}

func (s *RepositoryTestSuite) TestRecordLifecycle() {
	acc, cat := s.fixtures()

	rec, err := s.repo.CreateRecord(s.ctx, core.Record{
		UserID: s.user.ID, AccountID: acc.ID, CategoryID: cat.ID,
		TotalIncome: 500, DateRange: "2024-01-01", Description: "january",
	})
	s.Require().NoError(err)
	s.EqualValues(1, rec.Version)

	details, err := s.repo.ListRecordDetails(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(details, 1)
	s.Equal("Cash", details[0].AccountType)
	s.Equal("Salary", details[0].CategoryName)
	s.Equal(core.Income, details[0].CategoryType)

	rec.TotalIncome = 300
	updated, err := s.repo.UpdateRecord(s.ctx, rec)
	s.Require().NoError(err)
	s.EqualValues(2, updated.Version)
	s.Equal(300.0, updated.TotalIncome)

	contribution, err := s.repo.AccountContribution(s.ctx, acc.ID)
	s.Require().NoError(err)
	s.Equal(300.0, contribution)

	n, err := s.repo.CountCategoryRecords(s.ctx, cat.ID)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	s.Require().NoError(s.repo.DeleteRecord(s.ctx, s.user.ID, rec.ID))
	_, err = s.repo.GetRecord(s.ctx, s.user.ID, rec.ID)
	s.True(errors.Is(err, core.ErrNotFound))
}

func (s *RepositoryTestSuite) TestSummaryDefaultsToZero() {
	sum, err := s.repo.SummaryByUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(core.Summary{}, sum)
}

func (s *RepositoryTestSuite) TestSummaryTotals() {
	acc, income := s.fixtures()
	expense, err := s.repo.CreateCategory(s.ctx, s.user.ID, "Rent", core.Expense)
	s.Require().NoError(err)

	for _, r := range []core.Record{
		{UserID: s.user.ID, AccountID: acc.ID, CategoryID: income.ID, TotalIncome: 500, DateRange: "2024-01-01"},
		{UserID: s.user.ID, AccountID: acc.ID, CategoryID: income.ID, TotalIncome: 300, DateRange: "2024-01-02"},
		{UserID: s.user.ID, AccountID: acc.ID, CategoryID: expense.ID, TotalExpense: 200, DateRange: "2024-01-03"},
	} {
		_, err := s.repo.CreateRecord(s.ctx, r)
		s.Require().NoError(err)
	}

	sum, err := s.repo.SummaryByUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(core.Summary{TotalIncome: 800, TotalExpense: 200, NetBalance: 600}, sum)
}

func (s *RepositoryTestSuite) TestAnalysesAreNotDeduplicated() {
	snap := core.Analysis{
		UserID:      s.user.ID,
		Granularity: core.Daily,
		IncomeData:  map[string]float64{"Salary": 800},
	}
	first, err := s.repo.CreateAnalysis(s.ctx, snap)
	s.Require().NoError(err)
	second, err := s.repo.CreateAnalysis(s.ctx, snap)
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	got, err := s.repo.GetAnalysis(s.ctx, s.user.ID, first.ID)
	s.Require().NoError(err)
	s.Equal(map[string]float64{"Salary": 800}, got.IncomeData)
	s.Empty(got.ExpenseData)
	s.NotNil(got.ExpenseData)

	all, err := s.repo.ListAnalyses(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *RepositoryTestSuite) TestSettingsUpsert() {
	_, err := s.repo.GetSetting(s.ctx, s.user.ID)
	s.True(errors.Is(err, core.ErrNotFound))

	_, err = s.repo.CreateSetting(s.ctx, s.user.ID, "USD")
	s.Require().NoError(err)

	set, err := s.repo.UpsertCurrency(s.ctx, s.user.ID, "EUR")
	s.Require().NoError(err)
	s.Equal("EUR", set.Currency)
}

func (s *RepositoryTestSuite) TestPendingAndSynced() {
	acc, cat := s.fixtures()
	rec, err := s.repo.CreateRecord(s.ctx, core.Record{
		UserID: s.user.ID, AccountID: acc.ID, CategoryID: cat.ID, TotalIncome: 1, DateRange: "2024-01-01",
	})
	s.Require().NoError(err)

	pending, err := s.repo.ListPendingRecords(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(rec.ID, pending[0].ID)

	// a stale version does not clear the pending state
	s.Require().NoError(s.repo.MarkSynced(s.ctx, rec.ID, rec.Version+1))
	pending, err = s.repo.ListPendingRecords(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(pending, 1)

	s.Require().NoError(s.repo.MarkSynced(s.ctx, rec.ID, rec.Version))
	pending, err = s.repo.ListPendingRecords(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func TestStoreErrorsAreClassified(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer repo.Close()

	// unknown user violates the foreign key
	_, err = repo.CreateAccount(context.Background(), 42, "Cash", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStore))
}
