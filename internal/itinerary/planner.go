package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Freshness tells a reader where a Day Index came from.
type Freshness string

const (
	// FreshnessLive is the store's current content plus unconfirmed writes.
	FreshnessLive Freshness = "live"
	// FreshnessStale is the last snapshot; the store could not be read.
	FreshnessStale Freshness = "stale"
	// FreshnessMissing means neither the store nor a snapshot was available.
	FreshnessMissing Freshness = "missing"
)

// EventKind names a change notification.
type EventKind string

// Event kinds.
const (
	EventItemCreated   EventKind = "item.created"
	EventItemUpdated   EventKind = "item.updated"
	EventItemDeleted   EventKind = "item.deleted"
	EventDayReordered  EventKind = "day.reordered"
	EventWriteFinished EventKind = "write.finished"
)

// Event is published for every optimistic change and for every finished
// write.
type Event struct {
	Kind    EventKind             `json:"kind"`
	Day     int                   `json:"day"`
	ItemID  string                `json:"itemId,omitempty"`
	WriteID string                `json:"writeId,omitempty"`
	Status  Status                `json:"status"`
	Error   string                `json:"error,omitempty"`
	Items   []types.ItineraryItem `json:"items,omitempty"`
}

// Options configure a Planner. The zero value is usable.
type Options struct {
	WriteTimeout time.Duration
	Snapshots    Snapshots
	Logger       *slog.Logger
	History      int
}

// Edit is the optimistic result of a create or update.
type Edit struct {
	Item     types.ItineraryItem
	Mutation *Mutation
}

// Planner is the facade the API and CLI use. Reads come from the store
// overlaid with unconfirmed writes; every write goes through the day's
// serializer lane. A Planner is safe for concurrent use.
type Planner struct {
	store     types.ItemStore
	snapshots Snapshots
	editor    *Editor
	engine    *Engine
	lanes     *Serializer
	tracker   *Tracker
	log       *slog.Logger

	mu       sync.Mutex
	overlays map[int]*overlay

	lmu       sync.RWMutex
	listeners map[int]func(Event)
	nextLn    int
}

// overlay is a day's optimistic order while writes to it are queued.
type overlay struct {
	items  []types.ItineraryItem
	latest string
}

// NewPlanner builds a Planner over store.
func NewPlanner(store types.ItemStore, opts Options) *Planner {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	p := &Planner{
		store:     store,
		snapshots: opts.Snapshots,
		editor:    NewEditor(),
		lanes:     NewSerializer(opts.WriteTimeout, log),
		tracker:   NewTracker(opts.History),
		log:       log,
		overlays:  make(map[int]*overlay),
		listeners: make(map[int]func(Event)),
	}
	p.engine = NewEngine(store, p.lanes, p.tracker, p.writeFinished)
	return p
}

// Close stops accepting writes and waits for queued ones.
func (p *Planner) Close(ctx context.Context) error {
	return p.lanes.Close(ctx)
}

// Subscribe registers fn for every Event and returns a function that removes
// it. Listeners run synchronously on the publishing goroutine and must not
// call back into the Planner.
func (p *Planner) Subscribe(fn func(Event)) (cancel func()) {
	p.lmu.Lock()
	id := p.nextLn
	p.nextLn++
	p.listeners[id] = fn
	p.lmu.Unlock()
	return func() {
		p.lmu.Lock()
		delete(p.listeners, id)
		p.lmu.Unlock()
	}
}

func (p *Planner) emit(ev Event) {
	p.lmu.RLock()
	defer p.lmu.RUnlock()
	for _, fn := range p.listeners {
		fn(ev)
	}
}

// Days returns the whole itinerary. When the store cannot be read it falls
// back to the last snapshot.
func (p *Planner) Days(ctx context.Context) (types.DayIndex, Freshness, error) {
	items, err := p.store.GetAll(ctx)
	if err != nil {
		if !errors.Is(err, types.ErrStoreUnavailable) {
			return nil, "", err
		}
		p.log.Warn("item store unavailable, serving snapshot", "error", err)
		if p.snapshots != nil {
			idx, ok, serr := p.snapshots.Load(ctx)
			if serr != nil {
				p.log.Warn("loading snapshot", "error", serr)
			} else if ok {
				return p.withOverlays(idx), FreshnessStale, nil
			}
		}
		return types.DayIndex{}, FreshnessMissing, nil
	}

	idx := Project(items)
	if p.snapshots != nil {
		if err := p.snapshots.Save(ctx, idx); err != nil {
			p.log.Warn("saving snapshot", "error", err)
		}
	}
	return p.withOverlays(idx), FreshnessLive, nil
}

func (p *Planner) withOverlays(idx types.DayIndex) types.DayIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	for day, ov := range p.overlays {
		if len(ov.items) == 0 {
			delete(idx, day)
			continue
		}
		idx[day] = cloneItems(ov.items)
	}
	return idx
}

// Day returns one day bucket.
func (p *Planner) Day(ctx context.Context, day int) ([]types.ItineraryItem, Freshness, error) {
	idx, fresh, err := p.Days(ctx)
	if err != nil {
		return nil, "", err
	}
	return idx.Bucket(day), fresh, nil
}

// Item returns one item by id.
func (p *Planner) Item(ctx context.Context, id string) (types.ItineraryItem, error) {
	idx, _, err := p.Days(ctx)
	if err != nil {
		return types.ItineraryItem{}, err
	}
	for _, bucket := range idx {
		if i := indexOf(bucket, id); i >= 0 {
			return bucket[i], nil
		}
	}
	return types.ItineraryItem{}, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
}

// Drop applies a finished gesture to its day.
func (p *Planner) Drop(ctx context.Context, out Outcome) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket, err := p.bucketLocked(ctx, out.Day)
	if err != nil {
		return Result{}, err
	}
	res, err := p.engine.Apply(bucket, out)
	if err != nil {
		return Result{}, err
	}
	if res.Mutation == nil {
		return res, nil
	}
	p.overlays[out.Day] = &overlay{items: cloneItems(res.Items), latest: res.Mutation.ID}

	kind := EventDayReordered
	if out.Kind == OutcomeDeleted {
		kind = EventItemDeleted
	}
	p.emit(Event{
		Kind: kind, Day: out.Day, ItemID: out.ActiveID,
		WriteID: res.Mutation.ID, Status: StatusPending, Items: cloneItems(res.Items),
	})
	return res, nil
}

// Move drags activeID onto overID within day.
func (p *Planner) Move(ctx context.Context, day int, activeID, overID string, after bool) (Result, error) {
	return p.Drop(ctx, resolve(day, activeID, ItemTarget(overID, after)))
}

// Trash drags id onto the trash zone.
func (p *Planner) Trash(ctx context.Context, day int, id string) (Result, error) {
	return p.Drop(ctx, resolve(day, id, TrashTarget()))
}

// CreateItem validates form and appends the new item to its day.
func (p *Planner) CreateItem(ctx context.Context, form FormData) (Edit, error) {
	if form.Day == nil || *form.Day < 1 {
		_, err := p.editor.Prepare(form, nil, 0)
		return Edit{}, err
	}
	day := *form.Day

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket, err := p.bucketLocked(ctx, day)
	if err != nil {
		return Edit{}, err
	}
	it, err := p.editor.Prepare(form, nil, len(bucket))
	if err != nil {
		return Edit{}, err
	}

	write := it.Clone()
	m, err := p.engine.Enqueue(day, OpCreate, func(ctx context.Context) error {
		stored, err := p.storedDay(ctx, day)
		if err != nil {
			return err
		}
		// Earlier writes on this lane have landed; append after them. A day
		// left with a gap by a failed compaction is closed up here.
		write.SortOrder = nextSortOrder(stored)
		if err := p.store.Upsert(ctx, write); err != nil {
			return err
		}
		if CheckDense(append(stored, write)) == nil {
			return nil
		}
		return p.store.BatchSetSortOrder(ctx, day, append(types.IDs(stored), write.ID))
	})
	if err != nil {
		return Edit{}, err
	}

	next := append(cloneItems(bucket), it.Clone())
	p.overlays[day] = &overlay{items: next, latest: m.ID}
	p.emit(Event{Kind: EventItemCreated, Day: day, ItemID: it.ID, WriteID: m.ID, Status: StatusPending, Items: cloneItems(next)})
	return Edit{Item: it, Mutation: m}, nil
}

// UpdateItem applies form to the item with id.
func (p *Planner) UpdateItem(ctx context.Context, id string, form FormData) (Edit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, bucket, err := p.findLocked(ctx, id)
	if err != nil {
		return Edit{}, err
	}
	it, err := p.editor.Prepare(form, &existing, len(bucket))
	if err != nil {
		return Edit{}, err
	}

	day := it.Day
	write := it.Clone()
	m, err := p.engine.Enqueue(day, OpUpdate, func(ctx context.Context) error {
		stored, err := p.storedDay(ctx, day)
		if err != nil {
			return err
		}
		i := indexOf(stored, id)
		if i < 0 {
			return fmt.Errorf("item %s: %w", id, types.ErrNotFound)
		}
		write.SortOrder = stored[i].SortOrder
		return p.store.Upsert(ctx, write)
	})
	if err != nil {
		return Edit{}, err
	}

	next := cloneItems(bucket)
	next[indexOf(next, id)] = it.Clone()
	p.overlays[day] = &overlay{items: next, latest: m.ID}
	p.emit(Event{Kind: EventItemUpdated, Day: day, ItemID: id, WriteID: m.ID, Status: StatusPending, Items: cloneItems(next)})
	return Edit{Item: it, Mutation: m}, nil
}

// WriteStatus reports the state of a queued write.
func (p *Planner) WriteStatus(id string) (WriteState, bool) {
	return p.tracker.Status(id)
}

// PendingWrites lists writes not yet confirmed or failed.
func (p *Planner) PendingWrites() []WriteState {
	return p.tracker.Pending()
}

// writeFinished runs on the lane goroutine after each write.
func (p *Planner) writeFinished(m *Mutation, st WriteState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ov, ok := p.overlays[m.Day]; ok && (ov.latest == m.ID || st.Status == StatusFailed) {
		delete(p.overlays, m.Day)
	}
	if st.Status == StatusFailed {
		p.log.Error("write failed", "write_id", m.ID, "day", m.Day, "op", m.Op, "error", st.Error)
	} else {
		p.log.Debug("write confirmed", "write_id", m.ID, "day", m.Day, "op", m.Op)
	}
	p.emit(Event{Kind: EventWriteFinished, Day: m.Day, WriteID: m.ID, Status: st.Status, Error: st.Error})
}

// bucketLocked returns the caller-visible order of day. Callers hold p.mu.
func (p *Planner) bucketLocked(ctx context.Context, day int) ([]types.ItineraryItem, error) {
	if ov, ok := p.overlays[day]; ok {
		return cloneItems(ov.items), nil
	}
	return p.storedDay(ctx, day)
}

// findLocked locates id in the overlays or the store. Callers hold p.mu.
func (p *Planner) findLocked(ctx context.Context, id string) (types.ItineraryItem, []types.ItineraryItem, error) {
	for _, ov := range p.overlays {
		if i := indexOf(ov.items, id); i >= 0 {
			return ov.items[i].Clone(), cloneItems(ov.items), nil
		}
	}
	items, err := p.store.GetAll(ctx)
	if err != nil {
		return types.ItineraryItem{}, nil, err
	}
	for _, it := range items {
		if it.ID != id {
			continue
		}
		if _, pending := p.overlays[it.Day]; pending {
			// The day has queued writes and the item is not in its
			// optimistic view, so it was deleted.
			break
		}
		bucket := Project(items).Bucket(it.Day)
		return it, bucket, nil
	}
	return types.ItineraryItem{}, nil, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
}

// storedDay reads day's bucket straight from the store.
func (p *Planner) storedDay(ctx context.Context, day int) ([]types.ItineraryItem, error) {
	items, err := p.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Project(items).Bucket(day), nil
}

// nextSortOrder is one past the highest position in bucket.
func nextSortOrder(bucket []types.ItineraryItem) int {
	next := 0
	for _, it := range bucket {
		if it.SortOrder >= next {
			next = it.SortOrder + 1
		}
	}
	return next
}

func cloneItems(items []types.ItineraryItem) []types.ItineraryItem {
	out := make([]types.ItineraryItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
