package services

import (
	"context"
	"fmt"
	"strings"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

type CategoryService struct {
	storage *storage.SQLiteRepository
	logger  *applog.Logger
}

func NewCategoryService(storage *storage.SQLiteRepository, logger *applog.Logger) *CategoryService {
	return &CategoryService{
		storage: storage,
		logger:  logger.WithComponent(applog.ComponentLedger),
	}
}

// CategoryList splits a user's categories by type.
type CategoryList struct {
	Income  []core.Category
	Expense []core.Category
}

func (s *CategoryService) ListCategories(ctx context.Context, userID int64) (CategoryList, error) {
	all, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return CategoryList{}, err
	}
	var list CategoryList
	for _, c := range all {
		if c.Type == core.Income {
			list.Income = append(list.Income, c)
		} else {
			list.Expense = append(list.Expense, c)
		}
	}
	return list, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, userID int64, name string, ct core.CategoryType) (core.Category, error) {
	c := core.Category{UserID: userID, Name: strings.TrimSpace(name), Type: ct}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.storage.CreateCategory(ctx, userID, c.Name, c.Type)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (s *CategoryService) RenameCategory(ctx context.Context, userID, categoryID int64, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}
	if err := s.storage.RenameCategory(ctx, userID, categoryID, name); err != nil {
		return core.Category{}, fmt.Errorf("rename category: %w", err)
	}
	return s.storage.GetCategory(ctx, userID, categoryID)
}

// DeleteCategory refuses categories that records still use. Budgets on the
// category are removed with it.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, categoryID int64) error {
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategory(ctx, userID, categoryID); err != nil {
			return err
		}
		n, err := q.CountCategoryRecords(ctx, categoryID)
		if err != nil {
			return err
		}
		if n > 0 {
			return core.ErrCategoryInUse
		}
		return q.DeleteCategory(ctx, userID, categoryID)
	})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
