package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ports "ledger/internal/sheets"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID:   "sheet-id",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestLoadCredentials_PrefersInlineJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(file, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := loadCredentials(context.Background(), Options{CredentialsJSON: `{"from":"env"}`, CredentialsFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"from":"env"}` {
		t.Errorf("loadCredentials() = %s", got)
	}

	got, err = loadCredentials(context.Background(), Options{CredentialsFile: file})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"from":"file"}` {
		t.Errorf("loadCredentials() = %s", got)
	}
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: DefaultSheetName}

	if _, err := c.Upsert(context.Background(), ports.ExportRow{RecordID: 1}); err == nil {
		t.Error("Upsert() expected error without service")
	}
	if err := c.Remove(context.Background(), 1); err == nil {
		t.Error("Remove() expected error without service")
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"ID"},
		{"7"},
		{},
		{" 12 "},
		{float64(30)},
	}

	tests := []struct {
		id   int64
		want int
	}{
		{7, 2},
		{12, 4},
		{30, 5},
		{99, 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestRowValues(t *testing.T) {
	row := ports.ExportRow{
		RecordID:    3,
		Date:        "2024-03-01",
		Type:        "Expense",
		Category:    "Food",
		Account:     "Cash",
		Expense:     12.5,
		Description: "lunch",
		Version:     2,
	}

	got := rowValues(row)
	if len(got) != 9 {
		t.Fatalf("len(rowValues()) = %d, want 9", len(got))
	}
	if got[0] != int64(3) || got[2] != "Expense" || got[6] != 12.5 || got[8] != int64(2) {
		t.Errorf("unexpected row %v", got)
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Records", 4); got != "Records!A4:I4" {
		t.Errorf("rowRange() = %q", got)
	}
}
