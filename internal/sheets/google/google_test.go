package google

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"revtrack/internal/core"

	"github.com/shopspring/decimal"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Revenue"}
	ctx := context.Background()

	if err := c.UpsertEntry(ctx, core.RevenueEntry{ID: "e1"}); !errors.Is(err, errNoService) {
		t.Errorf("UpsertEntry: expected errNoService, got %v", err)
	}
	if err := c.DeleteEntry(ctx, "e1"); !errors.Is(err, errNoService) {
		t.Errorf("DeleteEntry: expected errNoService, got %v", err)
	}
	if err := c.ReplaceAll(ctx, nil); !errors.Is(err, errNoService) {
		t.Errorf("ReplaceAll: expected errNoService, got %v", err)
	}
	if _, err := c.ListEntries(ctx); !errors.Is(err, errNoService) {
		t.Errorf("ListEntries: expected errNoService, got %v", err)
	}
}

func TestEntryRowRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	e := core.RevenueEntry{
		ID:          "revenue-c1",
		Date:        core.NewDate(2024, 3, 1),
		Amount:      decimal.RequireFromString("1250.5"),
		Category:    core.CallsCategory,
		Description: "Conversion from call: Ada",
		CreatedAt:   created,
	}
	row := entryRow(e)
	if row[2] != "1250.50" {
		t.Fatalf("amount cell = %v, want 1250.50", row[2])
	}

	back, err := parseEntryRow(row)
	if err != nil {
		t.Fatalf("parseEntryRow: %v", err)
	}
	if back.ID != e.ID || back.Date.String() != "2024-03-01" || !back.Amount.Equal(e.Amount) ||
		back.Category != e.Category || back.Description != e.Description || !back.CreatedAt.Equal(created) {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestParseEntries(t *testing.T) {
	values := [][]any{
		{"ID", "Date", "Amount", "Category", "Description", "Created At"},
		{"e1", "2024-03-01", "1,234.50", "coaching"},
		{"e2", "not a date", "10"},
		{"e3", "2024-03-02", "99,90"},
		{},
	}
	got := parseEntries(context.Background(), values)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(got), got)
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("1234.5")) || got[0].Category != "coaching" {
		t.Errorf("unexpected first entry %+v", got[0])
	}
	if !got[1].Amount.Equal(decimal.RequireFromString("99.9")) {
		t.Errorf("unexpected decimal comma parse %v", got[1].Amount)
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {"a"}, {}, {" b "}}
	if got := findRow(values, "a"); got != 2 {
		t.Errorf("findRow(a) = %d, want 2", got)
	}
	if got := findRow(values, "b"); got != 4 {
		t.Errorf("findRow(b) = %d, want 4", got)
	}
	if got := findRow(values, "zzz"); got != -1 {
		t.Errorf("findRow(zzz) = %d, want -1", got)
	}
}
