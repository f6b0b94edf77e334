package services

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// Aggregator turns a user's records into bucketed income and expense totals
// and stores every result as an Analysis snapshot.
type Aggregator struct {
	storage *storage.SQLiteRepository
	logger  *applog.Logger
	now     func() time.Time
}

func NewAggregator(storage *storage.SQLiteRepository, logger *applog.Logger) *Aggregator {
	return &Aggregator{
		storage: storage,
		logger:  logger.WithComponent(applog.ComponentAnalysis),
		now:     time.Now,
	}
}

// Aggregate groups records by the granularity's bucket. Income sums
// total_income over Income categories and expense sums total_expense over
// Expense categories. An unknown granularity yields two empty mappings.
func Aggregate(records []core.RecordDetail, g core.Granularity) (income, expense map[string]float64, skipped int) {
	bucketer, ok := GetBucketer(g)
	if !ok {
		return map[string]float64{}, map[string]float64{}, 0
	}

	incomeSums, expenseSums := core.Sums{}, core.Sums{}
	for _, r := range records {
		key, ok := bucketer.BucketKey(r)
		if !ok {
			skipped++
			continue
		}
		switch r.CategoryType {
		case core.Income:
			incomeSums.Add(key, r.TotalIncome)
		case core.Expense:
			expenseSums.Add(key, r.TotalExpense)
		}
	}
	return incomeSums.Floats(), expenseSums.Floats(), skipped
}

// CreateAnalysis aggregates the user's records and persists the snapshot.
// Calling it twice with the same arguments stores two snapshots.
func (a *Aggregator) CreateAnalysis(ctx context.Context, userID int64, granularity core.Granularity) (core.Analysis, error) {
	records, err := a.storage.ListRecordDetails(ctx, userID)
	if err != nil {
		return core.Analysis{}, fmt.Errorf("load records: %w", err)
	}

	income, expense, skipped := Aggregate(records, granularity)
	if _, known := GetBucketer(granularity); !known {
		a.logger.DebugContext(ctx, "Unknown granularity, storing empty analysis",
			applog.FieldUserID, userID, applog.FieldGranularity, granularity)
	}
	if skipped > 0 {
		a.logger.DebugContext(ctx, "Skipped records without a parsable date",
			applog.FieldUserID, userID, "skipped", skipped)
	}

	var snapshot core.Analysis
	err = a.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		snapshot, err = q.CreateAnalysis(ctx, core.Analysis{
			UserID:      userID,
			Granularity: granularity,
			IncomeData:  income,
			ExpenseData: expense,
			CreatedAt:   a.now(),
		})
		return err
	})
	if err != nil {
		return core.Analysis{}, fmt.Errorf("save analysis: %w", err)
	}

	a.logger.InfoContext(ctx, "Analysis created",
		applog.FieldUserID, userID,
		applog.FieldGranularity, granularity,
		applog.FieldBuckets, len(income)+len(expense))

	return snapshot, nil
}

func (a *Aggregator) GetAnalysis(ctx context.Context, userID, id int64) (core.Analysis, error) {
	return a.storage.GetAnalysis(ctx, userID, id)
}

func (a *Aggregator) ListAnalyses(ctx context.Context, userID int64) ([]core.Analysis, error) {
	return a.storage.ListAnalyses(ctx, userID)
}
