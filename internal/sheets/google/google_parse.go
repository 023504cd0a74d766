package google

import (
	"fmt"
	"strings"
	"time"

	"revtrack/internal/core"

	"github.com/shopspring/decimal"
)

var header = []any{"ID", "Date", "Amount", "Category", "Description", "Created At"}

const lastColumn = "F"

func entryRow(e core.RevenueEntry) []any {
	return []any{
		e.ID,
		e.Date.String(),
		e.Amount.StringFixed(2),
		e.Category,
		e.Description,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// findRow returns the 1-based sheet row holding id in column A, or -1.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return -1
}

// parseEntryRow converts a sheet row back to an entry. Amounts may come back
// formatted with a decimal comma or thousands separators.
func parseEntryRow(row []any) (core.RevenueEntry, error) {
	cols := toStrings(row)
	if len(cols) < 3 {
		return core.RevenueEntry{}, fmt.Errorf("short row: %v", cols)
	}
	d, err := core.ParseDate(cols[1])
	if err != nil {
		return core.RevenueEntry{}, err
	}
	amount, err := parseAmount(cols[2])
	if err != nil {
		return core.RevenueEntry{}, fmt.Errorf("amount %q: %w", cols[2], err)
	}
	e := core.RevenueEntry{
		ID:          cols[0],
		Date:        d,
		Amount:      amount,
		Category:    safeGet(cols, 3),
		Description: safeGet(cols, 4),
	}
	if ts := safeGet(cols, 5); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			e.CreatedAt = t
		}
	}
	return e, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	}
	return core.ParseAmount(s)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
