// Package memory is an in-process sheets.EntryMirror used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"revtrack/internal/core"
	ports "revtrack/internal/sheets"
)

var (
	_ ports.EntryMirror = (*Mirror)(nil)
	_ ports.EntryLister = (*Mirror)(nil)
)

// Mirror keeps rows in insertion order, like appended sheet rows.
type Mirror struct {
	mu   sync.Mutex
	rows []core.RevenueEntry
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) UpsertEntry(_ context.Context, e core.RevenueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(e.ID); i >= 0 {
		m.rows[i] = e
		return nil
	}
	m.rows = append(m.rows, e)
	return nil
}

func (m *Mirror) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id); i >= 0 {
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	return nil
}

func (m *Mirror) ReplaceAll(_ context.Context, entries []core.RevenueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.Clone(entries)
	return nil
}

func (m *Mirror) ListEntries(_ context.Context) ([]core.RevenueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows), nil
}

func (m *Mirror) index(id string) int {
	return slices.IndexFunc(m.rows, func(e core.RevenueEntry) bool { return e.ID == id })
}
