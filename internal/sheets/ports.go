package sheets

import (
	"context"

	"ledger/internal/core"
)

// ExportRow is one record as written to an external sheet.
type ExportRow struct {
	RecordID    int64
	Date        string
	Type        core.CategoryType
	Category    string
	Account     string
	Income      float64
	Expense     float64
	Description string
	Version     int64
}

func RowFromRecord(d core.RecordDetail) ExportRow {
	return ExportRow{
		RecordID:    d.ID,
		Date:        d.DateRange,
		Type:        d.CategoryType,
		Category:    d.CategoryName,
		Account:     d.AccountType,
		Income:      d.TotalIncome,
		Expense:     d.TotalExpense,
		Description: d.Description,
		Version:     d.Version,
	}
}

// Ports for outbound adapters.
type (
	// RecordExporter writes the row for a record, replacing an earlier
	// row of the same record if there is one.
	RecordExporter interface {
		Upsert(ctx context.Context, row ExportRow) (rowRef string, err error)
	}

	// RecordRemover removes the row of a deleted record. Missing rows are not an error.
	RecordRemover interface {
		Remove(ctx context.Context, recordID int64) error
	}

	Exporter interface {
		RecordExporter
		RecordRemover
	}
)
