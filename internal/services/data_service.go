package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"revtrack/internal/amqp"
	"revtrack/internal/catalog"
	"revtrack/internal/core"
	"revtrack/internal/log"
	"revtrack/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryPublisher announces revenue entry changes to the sync worker.
type EntryPublisher interface {
	PublishEntrySync(ctx context.Context, entryID string, action amqp.Action) error
}

// DataService owns the in-memory copy of every collection. Each mutation
// writes the affected collections through the repository in one Save and
// only then replaces the in-memory state, so a failed save changes nothing.
type DataService struct {
	mu      sync.RWMutex
	repo    storage.Repository
	data    dataset
	version atomic.Uint64

	publisher EntryPublisher
	catalog   *catalog.Catalog
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
	newID     func() string
}

type dataset struct {
	entries     []core.RevenueEntry
	goals       []core.Goal
	calls       []core.Call
	forms       []core.Form
	submissions []core.FormSubmission
}

type Option func(*DataService)

// WithPublisher enables sync messages after successful entry writes.
func WithPublisher(p EntryPublisher) Option {
	return func(s *DataService) { s.publisher = p }
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(s *DataService) { s.catalog = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *DataService) { s.logger = l.WithComponent(log.ComponentData) }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *DataService) { s.now = now }
}

// WithIDGenerator replaces uuid generation, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(s *DataService) { s.newID = newID }
}

func NewDataService(repo storage.Repository, opts ...Option) *DataService {
	s := &DataService{
		repo:    repo,
		catalog: catalog.Default(),
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentData),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Load reads every collection from the repository, replacing the
// in-memory state, and reports conversion drift found in the loaded data.
func (s *DataService) Load(ctx context.Context) error {
	var next dataset
	for _, name := range storage.Collections {
		b, err := s.repo.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		if err := next.decode(name, b); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.data = next
	s.version.Add(1)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Data loaded",
		"entries", len(next.entries),
		"goals", len(next.goals),
		"calls", len(next.calls),
		"forms", len(next.forms),
		"submissions", len(next.submissions))

	for _, d := range core.FindConversionDrift(next.calls, next.entries) {
		s.logger.WarnContext(ctx, "Conversion drift detected",
			"kind", d.Kind, log.FieldCallID, d.CallID, log.FieldEntryID, d.EntryID)
	}
	return nil
}

func (d *dataset) decode(name string, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	switch name {
	case storage.RevenueEntries:
		return json.Unmarshal(b, &d.entries)
	case storage.Goals:
		return json.Unmarshal(b, &d.goals)
	case storage.Calls:
		return json.Unmarshal(b, &d.calls)
	case storage.Forms:
		return json.Unmarshal(b, &d.forms)
	case storage.FormSubmissions:
		return json.Unmarshal(b, &d.submissions)
	}
	return fmt.Errorf("unknown collection %q", name)
}

func (d *dataset) encode(name string) ([]byte, error) {
	switch name {
	case storage.RevenueEntries:
		return marshalList(d.entries)
	case storage.Goals:
		return marshalList(d.goals)
	case storage.Calls:
		return marshalList(d.calls)
	case storage.Forms:
		return marshalList(d.forms)
	case storage.FormSubmissions:
		return marshalList(d.submissions)
	}
	return nil, fmt.Errorf("unknown collection %q", name)
}

func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// commit persists the named collections of next and installs next as the
// current state. The caller holds s.mu for writing.
func (s *DataService) commit(ctx context.Context, next dataset, collections ...string) error {
	snaps := make([]storage.Snapshot, 0, len(collections))
	for _, name := range collections {
		b, err := next.encode(name)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		snaps = append(snaps, storage.Snapshot{Collection: name, Payload: b})
	}
	if err := s.repo.Save(ctx, snaps...); err != nil {
		return fmt.Errorf("save %v: %w", collections, err)
	}
	s.data = next
	s.version.Add(1)
	return nil
}

// Version changes after every load and every committed mutation. Views
// computed at one version stay valid until it changes.
func (s *DataService) Version() uint64 {
	return s.version.Load()
}

// Now reports the instant views are computed at.
func (s *DataService) Now() time.Time {
	return s.now()
}

type syncEvent struct {
	entryID string
	action  amqp.Action
}

func eventFor(d core.EntryDelta) []syncEvent {
	switch d.Kind {
	case core.DeltaUpsert:
		return []syncEvent{{d.EntryID, amqp.ActionUpsert}}
	case core.DeltaDelete:
		return []syncEvent{{d.EntryID, amqp.ActionDelete}}
	}
	return nil
}

// publish never fails the mutation; the worker's periodic resync repairs
// any message lost here.
func (s *DataService) publish(ctx context.Context, events ...syncEvent) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.PublishEntrySync(ctx, ev.entryID, ev.action); err != nil {
			s.events.LogError(ctx, "Failed to publish sync message", err, log.ComponentAMQP, log.OpSync,
				log.LogFields{log.FieldEntryID: ev.entryID, "action": string(ev.action)})
		}
	}
}

// Ping reports whether the repository is reachable when it supports it.
func (s *DataService) Ping(ctx context.Context) error {
	if p, ok := s.repo.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the repository.
func (s *DataService) Close() error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close repository: %w", err)
	}
	return nil
}

func (s *DataService) Catalog() *catalog.Catalog {
	return s.catalog
}

// EntryInput is the user-editable part of a revenue entry.
type EntryInput struct {
	Date        core.Date       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (s *DataService) AddRevenueEntry(ctx context.Context, in EntryInput) (core.RevenueEntry, error) {
	e := core.RevenueEntry{
		ID:          s.newID(),
		Date:        in.Date,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	if err := e.Validate(); err != nil {
		return core.RevenueEntry{}, err
	}

	s.mu.Lock()
	next := s.data
	next.entries = append([]core.RevenueEntry{e}, s.data.entries...)
	err := s.commit(ctx, next, storage.RevenueEntries)
	s.mu.Unlock()
	if err != nil {
		return core.RevenueEntry{}, err
	}

	s.events.LogEntryChanged(ctx, log.OpCreate, e.ID, e.Date.String(), e.Amount.String(), e.Category)
	s.publish(ctx, syncEvent{e.ID, amqp.ActionUpsert})
	return e, nil
}

// UpdateRevenueEntry replaces the editable fields of entry id. Entries owned
// by a converted call can only change through the call.
func (s *DataService) UpdateRevenueEntry(ctx context.Context, id string, in EntryInput) (core.RevenueEntry, error) {
	if _, derived := core.IsDerivedEntryID(id); derived {
		return core.RevenueEntry{}, fmt.Errorf("%w: entry %s belongs to a call", core.ErrConflict, id)
	}

	s.mu.Lock()
	i := indexByID(s.data.entries, id, func(e core.RevenueEntry) string { return e.ID })
	if i < 0 {
		s.mu.Unlock()
		return core.RevenueEntry{}, fmt.Errorf("%w: revenue entry %s", core.ErrNotFound, id)
	}
	e := s.data.entries[i]
	e.Date, e.Amount, e.Category, e.Description = in.Date, in.Amount, in.Category, in.Description
	if err := e.Validate(); err != nil {
		s.mu.Unlock()
		return core.RevenueEntry{}, err
	}
	next := s.data
	next.entries = slices.Clone(s.data.entries)
	next.entries[i] = e
	err := s.commit(ctx, next, storage.RevenueEntries)
	s.mu.Unlock()
	if err != nil {
		return core.RevenueEntry{}, err
	}

	s.events.LogEntryChanged(ctx, log.OpUpdate, e.ID, e.Date.String(), e.Amount.String(), e.Category)
	s.publish(ctx, syncEvent{e.ID, amqp.ActionUpsert})
	return e, nil
}

func (s *DataService) DeleteRevenueEntry(ctx context.Context, id string) error {
	if _, derived := core.IsDerivedEntryID(id); derived {
		return fmt.Errorf("%w: entry %s belongs to a call, revert the call instead", core.ErrConflict, id)
	}

	s.mu.Lock()
	i := indexByID(s.data.entries, id, func(e core.RevenueEntry) string { return e.ID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: revenue entry %s", core.ErrNotFound, id)
	}
	old := s.data.entries[i]
	next := s.data
	next.entries = slices.Delete(slices.Clone(s.data.entries), i, i+1)
	err := s.commit(ctx, next, storage.RevenueEntries)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.events.LogEntryChanged(ctx, log.OpDelete, id, old.Date.String(), old.Amount.String(), old.Category)
	s.publish(ctx, syncEvent{id, amqp.ActionDelete})
	return nil
}

// GoalInput creates a goal. An empty Period means the current bucket.
type GoalInput struct {
	Type         core.Granularity `json:"type"`
	Period       core.BucketKey   `json:"period,omitempty"`
	TargetAmount decimal.Decimal  `json:"targetAmount"`
	GoalType     core.GoalType    `json:"goalType"`
	Description  string           `json:"description,omitempty"`
	Category     string           `json:"category,omitempty"`
}

func (s *DataService) AddGoal(ctx context.Context, in GoalInput) (core.Goal, error) {
	now := s.now()
	if in.GoalType == "" {
		in.GoalType = core.GoalRevenue
	}
	if in.Period == "" && in.Type.Valid() {
		in.Period = core.CurrentBucket(now, in.Type)
	}
	g := core.Goal{
		ID:           s.newID(),
		Type:         in.Type,
		Period:       in.Period,
		TargetAmount: in.TargetAmount,
		GoalType:     in.GoalType,
		Description:  in.Description,
		Category:     in.Category,
		CreatedAt:    now,
	}
	return g, s.insertGoal(ctx, g)
}

// AddGoalFromTemplate instantiates a catalog template for the current period.
func (s *DataService) AddGoalFromTemplate(ctx context.Context, templateID string) (core.Goal, error) {
	tpl, ok := s.catalog.Template(templateID)
	if !ok {
		return core.Goal{}, fmt.Errorf("%w: goal template %s", core.ErrNotFound, templateID)
	}
	g := tpl.NewGoal(s.newID(), s.now())
	return g, s.insertGoal(ctx, g)
}

func (s *DataService) insertGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data
	next.goals = append(slices.Clone(s.data.goals), g)
	return s.commit(ctx, next, storage.Goals)
}

func (s *DataService) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexByID(s.data.goals, id, func(g core.Goal) string { return g.ID })
	if i < 0 {
		return fmt.Errorf("%w: goal %s", core.ErrNotFound, id)
	}
	next := s.data
	next.goals = slices.Delete(slices.Clone(s.data.goals), i, i+1)
	return s.commit(ctx, next, storage.Goals)
}

// CallInput is the user-editable part of a call.
type CallInput struct {
	ClientName       string          `json:"clientName"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	CallType         core.CallType   `json:"callType"`
	Date             core.Date       `json:"date"`
	Time             string          `json:"time"`
	Duration         int             `json:"duration"`
	Notes            string          `json:"notes,omitempty"`
	Status           core.CallStatus `json:"status"`
	IsConverted      bool            `json:"isConverted"`
	ConversionAmount decimal.Decimal `json:"conversionAmount"`
}

func (in CallInput) apply(c core.Call) core.Call {
	c.ClientName, c.Email, c.Phone = in.ClientName, in.Email, in.Phone
	c.CallType, c.Date, c.Time, c.Duration = in.CallType, in.Date, in.Time, in.Duration
	c.Notes, c.Status = in.Notes, in.Status
	c.IsConverted, c.ConversionAmount = in.IsConverted, in.ConversionAmount
	if !c.IsConverted {
		c.ConversionAmount = decimal.Zero
	}
	return c
}

// AddCall stores a new call. A call created already converted gets its
// derived revenue entry in the same write.
func (s *DataService) AddCall(ctx context.Context, in CallInput) (core.Call, error) {
	now := s.now()
	if in.Status == "" {
		in.Status = core.StatusScheduled
	}
	c := in.apply(core.Call{ID: s.newID(), CreatedAt: now})
	if err := c.Validate(); err != nil {
		return core.Call{}, err
	}

	s.mu.Lock()
	next := s.data
	next.calls = append([]core.Call{c}, s.data.calls...)
	delta := core.ReconcileCall(nil, c, now)
	err := s.commitCall(ctx, next, delta)
	s.mu.Unlock()
	if err != nil {
		return core.Call{}, err
	}

	s.logCall(ctx, log.OpCreate, c, delta)
	s.publish(ctx, eventFor(delta)...)
	return c, nil
}

// UpdateCall replaces the editable fields of call id and keeps its derived
// entry consistent with the new conversion state.
func (s *DataService) UpdateCall(ctx context.Context, id string, in CallInput) (core.Call, error) {
	return s.mutateCall(ctx, log.OpUpdate, id, func(prev core.Call, now time.Time) (core.Call, core.EntryDelta, error) {
		c := in.apply(prev)
		if err := c.Validate(); err != nil {
			return core.Call{}, core.EntryDelta{}, err
		}
		return c, core.ReconcileCall(&prev, c, now), nil
	})
}

// ConvertCall marks call id converted for amount and upserts its entry.
func (s *DataService) ConvertCall(ctx context.Context, id string, amount decimal.Decimal) (core.Call, error) {
	return s.mutateCall(ctx, log.OpConvert, id, func(prev core.Call, now time.Time) (core.Call, core.EntryDelta, error) {
		return core.ConvertCall(prev, amount, now)
	})
}

// RevertCall clears the conversion of call id and removes its entry.
func (s *DataService) RevertCall(ctx context.Context, id string) (core.Call, error) {
	return s.mutateCall(ctx, log.OpRevert, id, func(prev core.Call, _ time.Time) (core.Call, core.EntryDelta, error) {
		c, d := core.RevertCall(prev)
		return c, d, nil
	})
}

func (s *DataService) mutateCall(ctx context.Context, op, id string, fn func(core.Call, time.Time) (core.Call, core.EntryDelta, error)) (core.Call, error) {
	now := s.now()

	s.mu.Lock()
	i := indexByID(s.data.calls, id, func(c core.Call) string { return c.ID })
	if i < 0 {
		s.mu.Unlock()
		return core.Call{}, fmt.Errorf("%w: call %s", core.ErrNotFound, id)
	}
	c, delta, err := fn(s.data.calls[i], now)
	if err != nil {
		s.mu.Unlock()
		return core.Call{}, err
	}
	next := s.data
	next.calls = slices.Clone(s.data.calls)
	next.calls[i] = c
	err = s.commitCall(ctx, next, delta)
	s.mu.Unlock()
	if err != nil {
		return core.Call{}, err
	}

	s.logCall(ctx, op, c, delta)
	s.publish(ctx, eventFor(delta)...)
	return c, nil
}

// DeleteCall removes call id together with its derived entry, if any.
func (s *DataService) DeleteCall(ctx context.Context, id string) error {
	s.mu.Lock()
	i := indexByID(s.data.calls, id, func(c core.Call) string { return c.ID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: call %s", core.ErrNotFound, id)
	}
	var delta core.EntryDelta
	if s.data.calls[i].IsConverted {
		delta = core.EntryDelta{Kind: core.DeltaDelete, EntryID: core.DerivedEntryID(id)}
	}
	next := s.data
	next.calls = slices.Delete(slices.Clone(s.data.calls), i, i+1)
	err := s.commitCall(ctx, next, delta)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, eventFor(delta)...)
	return nil
}

func (s *DataService) logCall(ctx context.Context, op string, c core.Call, delta core.EntryDelta) {
	fields := log.NewFields().WithCall(c.ID).WithOperation(op)
	fields["converted"] = c.IsConverted
	fields["entry_delta"] = delta.Kind.String()
	s.logger.InfoContext(ctx, "Call changed", fields.ToSlice()...)
}

// commitCall writes the calls of next, plus the entries when delta changes
// them, as one atomic save.
func (s *DataService) commitCall(ctx context.Context, next dataset, delta core.EntryDelta) error {
	if delta.Kind == core.DeltaNone {
		return s.commit(ctx, next, storage.Calls)
	}
	next.entries = core.ApplyDelta(s.data.entries, delta)
	return s.commit(ctx, next, storage.Calls, storage.RevenueEntries)
}

func indexByID[T any](items []T, id string, key func(T) string) int {
	return slices.IndexFunc(items, func(v T) bool { return key(v) == id })
}

// RepairConversions rewrites the derived entries so that every drift
// reported by Consistency is resolved, and returns what it fixed.
func (s *DataService) RepairConversions(ctx context.Context) ([]core.Drift, error) {
	now := s.now()

	s.mu.Lock()
	drift := core.FindConversionDrift(s.data.calls, s.data.entries)
	if len(drift) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	calls := make(map[string]core.Call, len(s.data.calls))
	for _, c := range s.data.calls {
		calls[c.ID] = c
	}
	next := s.data
	var events []syncEvent
	for _, d := range drift {
		delta := core.EntryDelta{Kind: core.DeltaDelete, EntryID: d.EntryID}
		if d.Kind != core.DriftOrphanedEntry {
			e := core.DerivedEntry(calls[d.CallID], now)
			delta = core.EntryDelta{Kind: core.DeltaUpsert, Entry: e, EntryID: e.ID}
		}
		next.entries = core.ApplyDelta(next.entries, delta)
		events = append(events, eventFor(delta)...)
	}
	err := s.commit(ctx, next, storage.RevenueEntries)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Conversion drift repaired", "count", len(drift))
	s.publish(ctx, events...)
	return drift, nil
}
