package core

import (
	"strings"
	"time"
)

const (
	Income  CategoryType = "Income"
	Expense CategoryType = "Expense"
)

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// DateLayout is the canonical format of record dates and bucket keys.
const DateLayout = "2006-01-02"

const DefaultCurrency = "USD"

type (
	CategoryType string

	// Granularity selects how records are grouped by the aggregator.
	Granularity string

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Session struct {
		Token     string
		UserID    int64
		ExpiresAt time.Time
	}

	Account struct {
		ID      int64
		UserID  int64
		Type    string
		Balance float64
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
		Type   CategoryType
	}

	Record struct {
		ID           int64
		UserID       int64
		AccountID    int64
		CategoryID   int64
		TotalIncome  float64
		TotalExpense float64
		DateRange    string
		Description  string
		Version      int64
	}

	// RecordDetail is a record joined with the labels of its account and category.
	RecordDetail struct {
		Record
		AccountType  string
		CategoryName string
		CategoryType CategoryType
	}

	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Name       string
		Amount     float64
	}

	Setting struct {
		ID       int64
		UserID   int64
		Currency string
	}

	// Analysis is a persisted aggregation snapshot. Keys are category names
	// for daily snapshots and bucket start dates otherwise.
	Analysis struct {
		ID          int64
		UserID      int64
		Granularity Granularity
		IncomeData  map[string]float64
		ExpenseData map[string]float64
		CreatedAt   time.Time
	}

	Summary struct {
		TotalIncome  float64
		TotalExpense float64
		NetBalance   float64
	}
)

var (
	DefaultAccountTypes = []string{"Cash", "Card (Visa)", "Savings"}

	DefaultIncomeCategories = []string{
		"Awards", "Coupons", "Grants", "Lottery", "Refunds", "Rental", "Salary", "Sale",
	}

	DefaultExpenseCategories = []string{
		"Beauty", "Baby", "Car Bills", "Clothing", "Education", "Electronics", "Health", "Food",
		"Entertainment", "Home", "Shopping", "Social", "Sport", "Tax", "Telephone", "Transportation",
	}
)

// ParseCategoryType accepts the canonical names case-insensitively.
func ParseCategoryType(s string) (CategoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	}
	return "", ErrInvalidCategoryType
}

func (t CategoryType) Validate() error {
	if t != Income && t != Expense {
		return ErrInvalidCategoryType
	}
	return nil
}

// Contribution is the signed amount the record adds to its account balance.
func (r Record) Contribution() float64 {
	return r.TotalIncome - r.TotalExpense
}

// Type reports which side of the record carries its amount. Records with
// both sides zero are reported as Expense.
func (r Record) Type() CategoryType {
	if r.TotalIncome > 0 {
		return Income
	}
	return Expense
}

func (r Record) Validate() error {
	if r.TotalIncome < 0 || r.TotalExpense < 0 {
		return ErrNegativeAmount
	}
	if r.TotalIncome > 0 && r.TotalExpense > 0 {
		return ErrConflictingAmounts
	}
	return nil
}

// MatchesCategory rejects an amount on the side opposite to category type t.
func (r Record) MatchesCategory(t CategoryType) error {
	if (t == Income && r.TotalExpense != 0) || (t == Expense && r.TotalIncome != 0) {
		return ErrCategoryMismatch
	}
	return nil
}

// AddIncome increments the income side. Negative amounts leave the record untouched.
func (r *Record) AddIncome(amount float64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	r.TotalIncome += amount
	return nil
}

func (r *Record) AddExpense(amount float64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	r.TotalExpense += amount
	return nil
}

func (r *Record) UpdateIncome(value float64) error {
	if value < 0 {
		return ErrNegativeAmount
	}
	r.TotalIncome = value
	return nil
}

func (r *Record) UpdateExpense(value float64) error {
	if value < 0 {
		return ErrNegativeAmount
	}
	r.TotalExpense = value
	return nil
}

// SetAmount puts amount on the side given by t and clears the other side.
func (r *Record) SetAmount(t CategoryType, amount float64) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	if t == Income {
		r.TotalIncome, r.TotalExpense = amount, 0
	} else {
		r.TotalIncome, r.TotalExpense = 0, amount
	}
	return nil
}

// Date parses the record's date label. Both "2006-01-02" and "2006-01"
// are accepted; a month label resolves to the first day of that month.
func (r Record) Date() (time.Time, bool) {
	return ParseDateLabel(r.DateRange)
}

func ParseDateLabel(label string) (time.Time, bool) {
	label = strings.TrimSpace(label)
	if t, err := time.Parse(DateLayout, label); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01", label); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// NetBalance returns income minus expense for every key present in either mapping.
func (a Analysis) NetBalance() map[string]float64 {
	net := make(map[string]float64, len(a.IncomeData))
	for k, v := range a.IncomeData {
		net[k] += v
	}
	for k, v := range a.ExpenseData {
		net[k] -= v
	}
	return net
}

func NewSummary(totalIncome, totalExpense float64) Summary {
	return Summary{
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		NetBalance:   totalIncome - totalExpense,
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Type) == "" {
		return ErrEmptyAccountType
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}
