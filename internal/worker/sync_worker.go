package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"revtrack/internal/amqp"
	"revtrack/internal/core"
	"revtrack/internal/sheets"
)

// EntrySource is the worker's read view of the revenue entries. Reload is
// called before every read because another process owns the writes.
type EntrySource interface {
	Load(ctx context.Context) error
	RevenueEntry(id string) (core.RevenueEntry, error)
	RevenueEntries(filter core.EntryFilter) []core.RevenueEntry
}

// SyncWorker mirrors revenue entries to a spreadsheet.
type SyncWorker struct {
	source EntrySource
	mirror sheets.EntryMirror
	lister sheets.EntryLister
}

// NewSyncWorker wires the worker. lister may be nil, in which case every
// full resync rewrites the mirror.
func NewSyncWorker(source EntrySource, mirror sheets.EntryMirror, lister sheets.EntryLister) *SyncWorker {
	return &SyncWorker{
		source: source,
		mirror: mirror,
		lister: lister,
	}
}

// HandleSyncMessage applies one entry change to the mirror. An upsert for an
// entry that no longer exists is treated as a delete, so messages that
// arrive out of order converge on the stored state.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"entry_id", msg.EntryID,
		"action", msg.Action)

	if msg.Action == amqp.ActionDelete {
		return w.deleteEntry(ctx, msg.EntryID)
	}

	if err := w.source.Load(ctx); err != nil {
		return fmt.Errorf("reload entries: %w", err)
	}
	e, err := w.source.RevenueEntry(msg.EntryID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Entry no longer exists, removing from mirror", "entry_id", msg.EntryID)
		return w.deleteEntry(ctx, msg.EntryID)
	}
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}

	if err := w.mirror.UpsertEntry(ctx, e); err != nil {
		return fmt.Errorf("upsert entry %s: %w", e.ID, err)
	}
	slog.InfoContext(ctx, "Successfully synced entry",
		"entry_id", e.ID,
		"date", e.Date.String(),
		"amount", e.Amount.String())
	return nil
}

func (w *SyncWorker) deleteEntry(ctx context.Context, id string) error {
	if err := w.mirror.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Successfully deleted entry", "entry_id", id)
	return nil
}

// FullResync rewrites the mirror from storage. It is the backup path for
// lost messages and is skipped when the mirror already matches.
func (w *SyncWorker) FullResync(ctx context.Context) error {
	if err := w.source.Load(ctx); err != nil {
		return fmt.Errorf("reload entries: %w", err)
	}
	entries := w.source.RevenueEntries(core.EntryFilter{})

	if w.lister != nil {
		mirrored, err := w.lister.ListEntries(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Could not read mirror, rewriting it", "error", err)
		} else if sameEntries(entries, mirrored) {
			slog.DebugContext(ctx, "Mirror is up to date", "count", len(entries))
			return nil
		}
	}

	if err := w.mirror.ReplaceAll(ctx, entries); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	slog.InfoContext(ctx, "Mirror resynced", "count", len(entries))
	return nil
}

// sameEntries compares the mirrored columns of two entry sets, ignoring order.
func sameEntries(a, b []core.RevenueEntry) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]core.RevenueEntry, len(a))
	for _, e := range a {
		byID[e.ID] = e
	}
	for _, m := range b {
		e, ok := byID[m.ID]
		if !ok || !e.Amount.Equal(m.Amount) || e.Date.Compare(m.Date) != 0 ||
			e.Category != m.Category || e.Description != m.Description {
			return false
		}
	}
	return true
}
