package services

import (
	"testing"

	"ledger/internal/amqp"
	"ledger/internal/core"

	"github.com/stretchr/testify/suite"
)

type CatalogServiceTestSuite struct {
	ledgerSuite
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceTestSuite))
}

func (s *CatalogServiceTestSuite) TestCreateAccountRejectsDuplicates() {
	_, err := s.accounts.CreateAccount(s.ctx, s.user.ID, "Cash")
	s.ErrorIs(err, core.ErrDuplicateAccount)

	_, err = s.accounts.CreateAccount(s.ctx, s.user.ID, "  ")
	s.ErrorIs(err, core.ErrEmptyAccountType)

	acc, err := s.accounts.CreateAccount(s.ctx, s.user.ID, "Brokerage")
	s.Require().NoError(err)
	s.Zero(acc.Balance)

	_, err = s.accounts.RenameAccount(s.ctx, s.user.ID, acc.ID, "Savings")
	s.ErrorIs(err, core.ErrDuplicateAccount)

	renamed, err := s.accounts.RenameAccount(s.ctx, s.user.ID, acc.ID, "Broker")
	s.Require().NoError(err)
	s.Equal("Broker", renamed.Type)
}

func (s *CatalogServiceTestSuite) TestDeleteAccountRemovesItsRecords() {
	rec := s.record("Cash", "Salary", 100, "2024-01-01")

	s.Require().NoError(s.accounts.DeleteAccount(s.ctx, s.user.ID, rec.AccountID))

	_, err := s.ledger.GetRecord(s.ctx, s.user.ID, rec.ID)
	s.True(isNotFound(err))
	s.True(isNotFound(s.accounts.DeleteAccount(s.ctx, s.user.ID, rec.AccountID)))
}

func (s *CatalogServiceTestSuite) TestDeleteAccountAnnouncesCascadedRecords() {
	first := s.record("Cash", "Salary", 100, "2024-01-01")
	second := s.record("Cash", "Food", 30, "2024-01-02")
	s.record("Card (Visa)", "Food", 10, "2024-01-03")
	s.publisher.events = nil

	s.Require().NoError(s.accounts.DeleteAccount(s.ctx, s.user.ID, first.AccountID))

	s.Equal([]amqp.EventType{amqp.RecordDeleted, amqp.RecordDeleted}, s.publisher.kinds())
	var ids []int64
	for _, ev := range s.publisher.events {
		ids = append(ids, ev.RecordID)
		s.Equal(s.user.ID, ev.UserID)
	}
	s.ElementsMatch([]int64{first.ID, second.ID}, ids)

	s.publisher.events = nil
	s.True(isNotFound(s.accounts.DeleteAccount(s.ctx, s.user.ID, first.AccountID)))
	s.Empty(s.publisher.kinds())
}

func (s *CatalogServiceTestSuite) TestCategoryLifecycle() {
	_, err := s.categories.CreateCategory(s.ctx, s.user.ID, "Gifts", "Transfer")
	s.ErrorIs(err, core.ErrInvalidCategoryType)

	_, err = s.categories.CreateCategory(s.ctx, s.user.ID, "", core.Expense)
	s.ErrorIs(err, core.ErrEmptyName)

	c, err := s.categories.CreateCategory(s.ctx, s.user.ID, "Gifts", core.Expense)
	s.Require().NoError(err)

	renamed, err := s.categories.RenameCategory(s.ctx, s.user.ID, c.ID, "Presents")
	s.Require().NoError(err)
	s.Equal("Presents", renamed.Name)
	s.Equal(core.Expense, renamed.Type)

	s.Require().NoError(s.categories.DeleteCategory(s.ctx, s.user.ID, c.ID))
	s.True(isNotFound(s.categories.DeleteCategory(s.ctx, s.user.ID, c.ID)))
}

func (s *CatalogServiceTestSuite) TestCategoryInUseCannotBeDeleted() {
	s.record("Cash", "Food", 10, "2024-01-01")

	err := s.categories.DeleteCategory(s.ctx, s.user.ID, s.category("Food").ID)
	s.ErrorIs(err, core.ErrCategoryInUse)
}

func (s *CatalogServiceTestSuite) TestBudgets() {
	food := s.category("Food")

	_, err := s.budgets.CreateBudget(s.ctx, s.user.ID, s.category("Salary").ID, "Pay", 100)
	s.ErrorIs(err, core.ErrBudgetCategory)

	_, err = s.budgets.CreateBudget(s.ctx, s.user.ID, food.ID, "Groceries", -1)
	s.ErrorIs(err, core.ErrNegativeAmount)

	b, err := s.budgets.CreateBudget(s.ctx, s.user.ID, food.ID, "Groceries", 300)
	s.Require().NoError(err)

	b, err = s.budgets.UpdateBudgetAmount(s.ctx, s.user.ID, b.ID, 250)
	s.Require().NoError(err)
	s.Equal(250.0, b.Amount)

	bob, err := s.registration.Register(s.ctx, "bob", "bob@example.com", "pw", "")
	s.Require().NoError(err)
	_, err = s.budgets.UpdateBudgetAmount(s.ctx, bob.ID, b.ID, 1)
	s.True(isNotFound(err))
	s.True(isNotFound(s.budgets.DeleteBudget(s.ctx, bob.ID, b.ID)))

	s.Require().NoError(s.budgets.DeleteBudget(s.ctx, s.user.ID, b.ID))
	list, err := s.budgets.ListBudgets(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *CatalogServiceTestSuite) TestUpdateCurrency() {
	set, err := s.settings.UpdateCurrency(s.ctx, s.user.ID, " gbp ")
	s.Require().NoError(err)
	s.Equal("GBP", set.Currency)

	_, err = s.settings.UpdateCurrency(s.ctx, s.user.ID, "12$")
	s.True(isValidation(err))
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"usd", "USD", false},
		{" EUR", "EUR", false},
		{"US", "", true},
		{"EURO", "", true},
		{"U$D", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeCurrency(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("NormalizeCurrency(%q) = %q, %v, want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
			}
		})
	}
}
