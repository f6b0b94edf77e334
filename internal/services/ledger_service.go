package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// LedgerService owns records and the balances they feed. Every record
// mutation moves the affected account balances by the change in the record's
// signed contribution, in the same transaction as the record write.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time
}

// NewLedgerService wires the service. publisher may be nil, in which case
// no record events are sent.
func NewLedgerService(storage *storage.SQLiteRepository, publisher EventPublisher, logger *applog.Logger) *LedgerService {
	logger = logger.WithComponent(applog.ComponentLedger)
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

// RecordInput carries the user editable fields of a record. An empty Type
// is taken from the category.
type RecordInput struct {
	AccountID   int64
	CategoryID  int64
	Type        core.CategoryType
	Amount      float64
	DateRange   string
	Description string
}

// CreateRecord stores a record and credits or debits its account.
func (s *LedgerService) CreateRecord(ctx context.Context, userID int64, in RecordInput) (core.Record, error) {
	var created core.Record
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		rec, err := s.buildRecord(ctx, q, userID, core.Record{UserID: userID}, in)
		if err != nil {
			return err
		}
		created, err = q.CreateRecord(ctx, rec)
		if err != nil {
			return err
		}
		return moveContribution(ctx, q, core.Record{AccountID: created.AccountID}, created)
	})
	if err != nil {
		return core.Record{}, fmt.Errorf("create record: %w", err)
	}

	s.events.LogRecordChange(ctx, applog.OpCreate, created, created.Contribution())
	s.publish(ctx, amqp.RecordCreated, created)
	return created, nil
}

// UpdateRecord replaces the record's fields. Switching the type clears the
// other side; moving it to another account moves its contribution too.
func (s *LedgerService) UpdateRecord(ctx context.Context, userID, recordID int64, in RecordInput) (core.Record, error) {
	return s.mutate(ctx, userID, recordID, func(q *storage.Queries, r *core.Record) error {
		rec, err := s.buildRecord(ctx, q, userID, *r, in)
		if err != nil {
			return err
		}
		*r = rec
		return nil
	})
}

// AddIncome increments the record's income and credits its account.
func (s *LedgerService) AddIncome(ctx context.Context, userID, recordID int64, amount float64) (core.Record, error) {
	return s.mutate(ctx, userID, recordID, func(_ *storage.Queries, r *core.Record) error {
		return r.AddIncome(amount)
	})
}

// AddExpense increments the record's expense and debits its account.
func (s *LedgerService) AddExpense(ctx context.Context, userID, recordID int64, amount float64) (core.Record, error) {
	return s.mutate(ctx, userID, recordID, func(_ *storage.Queries, r *core.Record) error {
		return r.AddExpense(amount)
	})
}

// UpdateIncome replaces the record's income; the account moves by the difference.
func (s *LedgerService) UpdateIncome(ctx context.Context, userID, recordID int64, value float64) (core.Record, error) {
	return s.mutate(ctx, userID, recordID, func(_ *storage.Queries, r *core.Record) error {
		return r.UpdateIncome(value)
	})
}

// UpdateExpense replaces the record's expense; the account moves by the difference.
func (s *LedgerService) UpdateExpense(ctx context.Context, userID, recordID int64, value float64) (core.Record, error) {
	return s.mutate(ctx, userID, recordID, func(_ *storage.Queries, r *core.Record) error {
		return r.UpdateExpense(value)
	})
}

// DeleteRecord removes the record and reverses its contribution.
func (s *LedgerService) DeleteRecord(ctx context.Context, userID, recordID int64) error {
	var deleted core.Record
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		deleted, err = q.GetRecord(ctx, userID, recordID)
		if err != nil {
			return err
		}
		if err := q.DeleteRecord(ctx, userID, recordID); err != nil {
			return err
		}
		return moveContribution(ctx, q, deleted, core.Record{AccountID: deleted.AccountID})
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	s.events.LogRecordChange(ctx, applog.OpDelete, deleted, -deleted.Contribution())
	s.publish(ctx, amqp.RecordDeleted, deleted)
	return nil
}

func (s *LedgerService) GetRecord(ctx context.Context, userID, recordID int64) (core.Record, error) {
	return s.storage.GetRecord(ctx, userID, recordID)
}

func (s *LedgerService) ListRecords(ctx context.Context, userID int64) ([]core.RecordDetail, error) {
	return s.storage.ListRecordDetails(ctx, userID)
}

// Summarize totals every record of the user. Missing data counts as zero.
func (s *LedgerService) Summarize(ctx context.Context, userID int64) (core.Summary, error) {
	sum, err := s.storage.SummaryByUser(ctx, userID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return sum, nil
}

// ApplyDelta adjusts an account balance directly, outside any record.
// The record contributions no longer add up to the balance afterwards;
// Reconcile reports the difference.
func (s *LedgerService) ApplyDelta(ctx context.Context, userID, accountID int64, delta float64) (core.Account, error) {
	var acc core.Account
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, userID, accountID); err != nil {
			return err
		}
		if err := q.AddToBalance(ctx, accountID, delta); err != nil {
			return err
		}
		var err error
		acc, err = q.GetAccount(ctx, userID, accountID)
		return err
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("apply delta: %w", err)
	}

	s.logger.InfoContext(ctx, "Balance adjusted",
		applog.FieldUserID, userID,
		applog.FieldAccountID, accountID,
		applog.FieldDelta, delta)
	return acc, nil
}

// Reconciliation compares an account balance with its records.
type Reconciliation struct {
	Account       core.Account
	Contributions float64
	// Drift is balance minus contributions; non-zero only after direct adjustments.
	Drift float64
}

func (s *LedgerService) Reconcile(ctx context.Context, userID, accountID int64) (Reconciliation, error) {
	acc, err := s.storage.GetAccount(ctx, userID, accountID)
	if err != nil {
		return Reconciliation{}, err
	}
	total, err := s.storage.AccountContribution(ctx, accountID)
	if err != nil {
		return Reconciliation{}, err
	}
	return Reconciliation{
		Account:       acc,
		Contributions: total,
		Drift:         core.Delta(total, acc.Balance),
	}, nil
}

// mutate loads a record, applies change, validates the result and writes it
// together with the balance movement.
func (s *LedgerService) mutate(ctx context.Context, userID, recordID int64, change func(*storage.Queries, *core.Record) error) (core.Record, error) {
	var before, updated core.Record
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		before, err = q.GetRecord(ctx, userID, recordID)
		if err != nil {
			return err
		}
		after := before
		if err := change(q, &after); err != nil {
			return err
		}
		if err := after.Validate(); err != nil {
			return err
		}
		cat, err := q.GetCategory(ctx, userID, after.CategoryID)
		if err != nil {
			return err
		}
		if err := after.MatchesCategory(cat.Type); err != nil {
			return err
		}
		updated, err = q.UpdateRecord(ctx, after)
		if err != nil {
			return err
		}
		return moveContribution(ctx, q, before, updated)
	})
	if err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}

	s.events.LogRecordChange(ctx, applog.OpUpdate, updated, core.Delta(before.Contribution(), updated.Contribution()))
	s.publish(ctx, amqp.RecordUpdated, updated)
	return updated, nil
}

// buildRecord applies in to base after checking ownership and types.
func (s *LedgerService) buildRecord(ctx context.Context, q *storage.Queries, userID int64, base core.Record, in RecordInput) (core.Record, error) {
	if _, err := q.GetAccount(ctx, userID, in.AccountID); err != nil {
		return core.Record{}, err
	}
	cat, err := q.GetCategory(ctx, userID, in.CategoryID)
	if err != nil {
		return core.Record{}, err
	}

	typ := in.Type
	if typ == "" {
		typ = cat.Type
	}
	if err := typ.Validate(); err != nil {
		return core.Record{}, err
	}
	if typ != cat.Type {
		return core.Record{}, core.ErrCategoryMismatch
	}

	rec := base
	rec.AccountID = in.AccountID
	rec.CategoryID = in.CategoryID
	if err := rec.SetAmount(typ, in.Amount); err != nil {
		return core.Record{}, err
	}
	rec.DateRange = strings.TrimSpace(in.DateRange)
	if rec.DateRange == "" {
		rec.DateRange = s.now().Format(core.DateLayout)
	}
	rec.Description = strings.TrimSpace(in.Description)
	return rec, nil
}

// moveContribution shifts account balances from before's contribution to after's.
func moveContribution(ctx context.Context, q *storage.Queries, before, after core.Record) error {
	if before.AccountID == after.AccountID {
		delta := core.Delta(before.Contribution(), after.Contribution())
		if delta == 0 {
			return nil
		}
		return q.AddToBalance(ctx, after.AccountID, delta)
	}
	if c := before.Contribution(); c != 0 {
		if err := q.AddToBalance(ctx, before.AccountID, -c); err != nil {
			return err
		}
	}
	if c := after.Contribution(); c != 0 {
		return q.AddToBalance(ctx, after.AccountID, c)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, event amqp.EventType, r core.Record) {
	publishRecordEvent(ctx, s.publisher, s.logger, event, r)
}
