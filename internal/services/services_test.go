package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/auth"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.RecordEvent
	err    error
}

func (f *fakePublisher) PublishRecordEvent(_ context.Context, ev *amqp.RecordEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) kinds() []amqp.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []amqp.EventType
	for _, ev := range f.events {
		out = append(out, ev.Event)
	}
	return out
}

// ledgerSuite wires every service against a fresh database with one
// registered user.
type ledgerSuite struct {
	suite.Suite
	ctx context.Context

	repo         *storage.SQLiteRepository
	publisher    *fakePublisher
	registration *RegistrationService
	ledger       *LedgerService
	aggregator   *Aggregator
	accounts     *AccountService
	categories   *CategoryService
	budgets      *BudgetService
	settings     *SettingsService

	user core.User
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()

	repo, err := storage.NewSQLiteRepository(filepath.Join(s.T().TempDir(), "ledger.db"))
	s.Require().NoError(err)
	s.repo = repo

	logger := applog.Discard()
	s.publisher = &fakePublisher{}
	s.registration = NewRegistrationService(repo, auth.NewHasher(bcrypt.MinCost), time.Hour, "", logger)
	s.ledger = NewLedgerService(repo, s.publisher, logger)
	s.aggregator = NewAggregator(repo, logger)
	s.accounts = NewAccountService(repo, s.publisher, logger)
	s.categories = NewCategoryService(repo, logger)
	s.budgets = NewBudgetService(repo)
	s.settings = NewSettingsService(repo)

	s.user, err = s.registration.Register(s.ctx, "alice", "alice@example.com", "secret", "")
	s.Require().NoError(err)
}

func (s *ledgerSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *ledgerSuite) account(accountType string) core.Account {
	accounts, err := s.accounts.ListAccounts(s.ctx, s.user.ID)
	s.Require().NoError(err)
	for _, a := range accounts {
		if a.Type == accountType {
			return a
		}
	}
	s.FailNow("account not found", accountType)
	return core.Account{}
}

func (s *ledgerSuite) category(name string) core.Category {
	list, err := s.categories.ListCategories(s.ctx, s.user.ID)
	s.Require().NoError(err)
	for _, c := range append(list.Income, list.Expense...) {
		if c.Name == name {
			return c
		}
	}
	s.FailNow("category not found", name)
	return core.Category{}
}

func (s *ledgerSuite) record(accountType, category string, amount float64, date string) core.Record {
	rec, err := s.ledger.CreateRecord(s.ctx, s.user.ID, RecordInput{
		AccountID:  s.account(accountType).ID,
		CategoryID: s.category(category).ID,
		Amount:     amount,
		DateRange:  date,
	})
	s.Require().NoError(err)
	return rec
}

// requireBalanced asserts the balance equals the sum of record contributions.
func (s *ledgerSuite) requireBalanced(accountType string, want float64) {
	rec, err := s.ledger.Reconcile(s.ctx, s.user.ID, s.account(accountType).ID)
	s.Require().NoError(err)
	s.Equal(want, rec.Account.Balance, "balance of %s", accountType)
	s.Equal(want, rec.Contributions, "contributions of %s", accountType)
	s.Zero(rec.Drift)
}

func isValidation(err error) bool { return errors.Is(err, core.ErrValidation) }
func isNotFound(err error) bool   { return errors.Is(err, core.ErrNotFound) }
