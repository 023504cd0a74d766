package sheets

import (
	"context"

	"revtrack/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryMirror keeps a spreadsheet copy of the revenue entries, one row
	// per entry keyed by entry id.
	EntryMirror interface {
		UpsertEntry(ctx context.Context, e core.RevenueEntry) error
		DeleteEntry(ctx context.Context, id string) error
		// ReplaceAll rewrites the mirror so it holds exactly entries.
		ReplaceAll(ctx context.Context, entries []core.RevenueEntry) error
	}

	// EntryLister reads the mirrored entries back.
	EntryLister interface {
		ListEntries(ctx context.Context) ([]core.RevenueEntry, error)
	}
)
