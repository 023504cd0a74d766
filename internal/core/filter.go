package core

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// EntryFilter narrows the revenue entries shown on the dashboard.
// Zero-valued fields do not filter.
type EntryFilter struct {
	From       *Date
	To         *Date
	Categories []string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Search     string
}

// IsZero reports whether the filter lets every entry through.
func (f EntryFilter) IsZero() bool {
	return f.From == nil && f.To == nil && len(f.Categories) == 0 &&
		f.MinAmount == nil && f.MaxAmount == nil && strings.TrimSpace(f.Search) == ""
}

// Match applies the filter to one entry. Entries without a category are not
// excluded by a category filter, and entries without a description are not
// excluded by a search term.
func (f EntryFilter) Match(e RevenueEntry) bool {
	if f.From != nil && e.Date.Compare(*f.From) < 0 {
		return false
	}
	if f.To != nil && e.Date.Compare(*f.To) > 0 {
		return false
	}
	if len(f.Categories) > 0 && e.Category != "" && !slices.Contains(f.Categories, e.Category) {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" && e.Description != "" {
		if !strings.Contains(strings.ToLower(e.Description), term) {
			return false
		}
	}
	return true
}

// FilterEntries returns the entries accepted by f, preserving order.
func FilterEntries(entries []RevenueEntry, f EntryFilter) []RevenueEntry {
	out := make([]RevenueEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// CallFilter narrows calls by inclusive date range.
type CallFilter struct {
	From *Date
	To   *Date
}

func (f CallFilter) IsZero() bool { return f.From == nil && f.To == nil }

func (f CallFilter) Match(c Call) bool {
	if f.From != nil && c.Date.Compare(*f.From) < 0 {
		return false
	}
	if f.To != nil && c.Date.Compare(*f.To) > 0 {
		return false
	}
	return true
}

// FilterCalls returns the calls accepted by f, preserving order.
func FilterCalls(calls []Call, f CallFilter) []Call {
	out := make([]Call, 0, len(calls))
	for _, c := range calls {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
