package services

import (
	"context"
	"fmt"
	"strings"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

type AccountService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	logger    *applog.Logger
}

func NewAccountService(storage *storage.SQLiteRepository, publisher EventPublisher, logger *applog.Logger) *AccountService {
	return &AccountService{
		storage:   storage,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentAccounts),
	}
}

func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, userID)
}

// CreateAccount opens an account with a zero balance. Account types are unique per user.
func (s *AccountService) CreateAccount(ctx context.Context, userID int64, accountType string) (core.Account, error) {
	acc := core.Account{UserID: userID, Type: strings.TrimSpace(accountType)}
	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}

	var created core.Account
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		exists, err := q.AccountTypeExists(ctx, userID, acc.Type, 0)
		if err != nil {
			return err
		}
		if exists {
			return core.ErrDuplicateAccount
		}
		created, err = q.CreateAccount(ctx, userID, acc.Type, 0)
		return err
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "Account created", applog.FieldUserID, userID, applog.FieldAccountID, created.ID)
	return created, nil
}

func (s *AccountService) RenameAccount(ctx context.Context, userID, accountID int64, accountType string) (core.Account, error) {
	accountType = strings.TrimSpace(accountType)
	if accountType == "" {
		return core.Account{}, core.ErrEmptyAccountType
	}

	var acc core.Account
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		exists, err := q.AccountTypeExists(ctx, userID, accountType, accountID)
		if err != nil {
			return err
		}
		if exists {
			return core.ErrDuplicateAccount
		}
		if err := q.RenameAccount(ctx, userID, accountID, accountType); err != nil {
			return err
		}
		acc, err = q.GetAccount(ctx, userID, accountID)
		return err
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("rename account: %w", err)
	}
	return acc, nil
}

// DeleteAccount removes the account together with its records.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, accountID int64) error {
	var removed []core.Record
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		removed, err = q.ListAccountRecords(ctx, userID, accountID)
		if err != nil {
			return err
		}
		return q.DeleteAccount(ctx, userID, accountID)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.InfoContext(ctx, "Account deleted",
		applog.FieldUserID, userID, applog.FieldAccountID, accountID, "records", len(removed))

	// the cascade removed these records; the exporter must drop their rows too
	for _, r := range removed {
		publishRecordEvent(ctx, s.publisher, s.logger, amqp.RecordDeleted, r)
	}
	return nil
}
