// Package memory is an in-process exporter used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ledger/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows map[int64]sheets.ExportRow
}

var _ sheets.Exporter = (*Store)(nil)

func New() *Store {
	return &Store{rows: make(map[int64]sheets.ExportRow)}
}

func (s *Store) Upsert(_ context.Context, row sheets.ExportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.RecordID] = row
	return fmt.Sprintf("mem:%d", row.RecordID), nil
}

func (s *Store) Remove(_ context.Context, recordID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, recordID)
	return nil
}

// Rows returns the stored rows ordered by record id.
func (s *Store) Rows() []sheets.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.ExportRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}
