package http

import (
	"time"

	"ledger/internal/core"
	"ledger/internal/services"
)

// JSON shapes of the domain types.
type (
	userView struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	sessionView struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	accountView struct {
		ID      int64   `json:"id"`
		Type    string  `json:"account_type"`
		Balance float64 `json:"balance"`
	}

	categoryView struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}

	categoryListView struct {
		Income  []categoryView `json:"income"`
		Expense []categoryView `json:"expense"`
	}

	recordView struct {
		ID           int64   `json:"id"`
		AccountID    int64   `json:"account_id"`
		CategoryID   int64   `json:"category_id"`
		TotalIncome  float64 `json:"total_income"`
		TotalExpense float64 `json:"total_expense"`
		DateRange    string  `json:"date_range"`
		Description  string  `json:"description,omitempty"`
		Version      int64   `json:"version"`
		AccountType  string  `json:"account_type,omitempty"`
		CategoryName string  `json:"category_name,omitempty"`
		CategoryType string  `json:"category_type,omitempty"`
	}

	summaryView struct {
		TotalIncome  float64 `json:"total_income"`
		TotalExpense float64 `json:"total_expense"`
		NetBalance   float64 `json:"net_balance"`
	}

	budgetView struct {
		ID         int64   `json:"id"`
		CategoryID int64   `json:"category_id"`
		Name       string  `json:"name"`
		Amount     float64 `json:"amount"`
	}

	settingView struct {
		Currency string `json:"currency"`
	}

	analysisView struct {
		ID          int64              `json:"id"`
		Granularity string             `json:"granularity"`
		IncomeData  map[string]float64 `json:"income_data"`
		ExpenseData map[string]float64 `json:"expense_data"`
		NetBalance  map[string]float64 `json:"net_balance"`
		CreatedAt   time.Time          `json:"created_at"`
	}

	reconciliationView struct {
		Account       accountView `json:"account"`
		Contributions float64     `json:"contributions"`
		Drift         float64     `json:"drift"`
	}
)

func newUserView(u core.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email}
}

func newAccountView(a core.Account) accountView {
	return accountView{ID: a.ID, Type: a.Type, Balance: a.Balance}
}

func newAccountViews(in []core.Account) []accountView {
	out := make([]accountView, 0, len(in))
	for _, a := range in {
		out = append(out, newAccountView(a))
	}
	return out
}

func newCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Type: string(c.Type)}
}

func newCategoryListView(l services.CategoryList) categoryListView {
	v := categoryListView{
		Income:  make([]categoryView, 0, len(l.Income)),
		Expense: make([]categoryView, 0, len(l.Expense)),
	}
	for _, c := range l.Income {
		v.Income = append(v.Income, newCategoryView(c))
	}
	for _, c := range l.Expense {
		v.Expense = append(v.Expense, newCategoryView(c))
	}
	return v
}

func newRecordView(r core.Record) recordView {
	return recordView{
		ID:           r.ID,
		AccountID:    r.AccountID,
		CategoryID:   r.CategoryID,
		TotalIncome:  r.TotalIncome,
		TotalExpense: r.TotalExpense,
		DateRange:    r.DateRange,
		Description:  r.Description,
		Version:      r.Version,
	}
}

func newRecordDetailViews(in []core.RecordDetail) []recordView {
	out := make([]recordView, 0, len(in))
	for _, d := range in {
		v := newRecordView(d.Record)
		v.AccountType = d.AccountType
		v.CategoryName = d.CategoryName
		v.CategoryType = string(d.CategoryType)
		out = append(out, v)
	}
	return out
}

func newBudgetView(b core.Budget) budgetView {
	return budgetView{ID: b.ID, CategoryID: b.CategoryID, Name: b.Name, Amount: b.Amount}
}

func newBudgetViews(in []core.Budget) []budgetView {
	out := make([]budgetView, 0, len(in))
	for _, b := range in {
		out = append(out, newBudgetView(b))
	}
	return out
}

func newAnalysisView(a core.Analysis) analysisView {
	return analysisView{
		ID:          a.ID,
		Granularity: string(a.Granularity),
		IncomeData:  nonNilMap(a.IncomeData),
		ExpenseData: nonNilMap(a.ExpenseData),
		NetBalance:  a.NetBalance(),
		CreatedAt:   a.CreatedAt,
	}
}

func newAnalysisViews(in []core.Analysis) []analysisView {
	out := make([]analysisView, 0, len(in))
	for _, a := range in {
		out = append(out, newAnalysisView(a))
	}
	return out
}

func nonNilMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
