package services

import (
	"context"
	"fmt"
	"strings"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

func (s *BudgetService) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

// CreateBudget sets a target on one of the user's expense categories.
func (s *BudgetService) CreateBudget(ctx context.Context, userID, categoryID int64, name string, amount float64) (core.Budget, error) {
	b := core.Budget{UserID: userID, CategoryID: categoryID, Name: strings.TrimSpace(name), Amount: amount}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	var created core.Budget
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		cat, err := q.GetCategory(ctx, userID, categoryID)
		if err != nil {
			return err
		}
		if cat.Type != core.Expense {
			return core.ErrBudgetCategory
		}
		created, err = q.CreateBudget(ctx, b)
		return err
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return created, nil
}

func (s *BudgetService) UpdateBudgetAmount(ctx context.Context, userID, budgetID int64, amount float64) (core.Budget, error) {
	if amount < 0 {
		return core.Budget{}, core.ErrNegativeAmount
	}
	if err := s.storage.UpdateBudgetAmount(ctx, userID, budgetID, amount); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return s.storage.GetBudget(ctx, userID, budgetID)
}

func (s *BudgetService) DeleteBudget(ctx context.Context, userID, budgetID int64) error {
	if err := s.storage.DeleteBudget(ctx, userID, budgetID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
