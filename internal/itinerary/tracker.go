package itinerary

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the confirmation state of a queued write.
type Status string

// Write statuses.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// WriteState describes one tracked write.
type WriteState struct {
	ID       string    `json:"id"`
	Day      int       `json:"day"`
	Op       string    `json:"op"`
	Status   Status    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Queued   time.Time `json:"queued"`
	Finished time.Time `json:"finished,omitzero"`
}

// Mutation is a handle on a queued write.
type Mutation struct {
	ID   string
	Day  int
	Op   string
	done chan struct{}
	err  error
}

// Done is closed when the write has finished.
func (m *Mutation) Done() <-chan struct{} { return m.done }

// Wait blocks until the write finishes or ctx ends and returns the write
// error, or ctx's error.
func (m *Mutation) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mutation) complete(err error) {
	m.err = err
	close(m.done)
}

// Err returns the write error once Done is closed.
func (m *Mutation) Err() error {
	select {
	case <-m.done:
		return m.err
	default:
		return nil
	}
}

// DefaultHistory is how many finished writes a Tracker remembers.
const DefaultHistory = 512

// Tracker records queued writes so callers can tell optimistic state from
// confirmed state. Finished entries beyond the history limit are forgotten
// oldest first; pending entries are always kept.
type Tracker struct {
	mu      sync.Mutex
	limit   int
	states  map[string]*WriteState
	order   []string
	nowFunc func() time.Time
}

// NewTracker returns a tracker that keeps up to history finished writes.
func NewTracker(history int) *Tracker {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Tracker{
		limit:   history,
		states:  make(map[string]*WriteState),
		nowFunc: time.Now,
	}
}

// Begin registers a pending write.
func (t *Tracker) Begin(day int, op string) *Mutation {
	m := &Mutation{
		ID:   uuid.Must(uuid.NewV7()).String(),
		Day:  day,
		Op:   op,
		done: make(chan struct{}),
	}
	t.mu.Lock()
	t.states[m.ID] = &WriteState{ID: m.ID, Day: day, Op: op, Status: StatusPending, Queued: t.nowFunc()}
	t.order = append(t.order, m.ID)
	t.mu.Unlock()
	return m
}

// Finish records the result of m and releases its waiters.
func (t *Tracker) Finish(m *Mutation, err error) WriteState {
	st := t.Record(m, err)
	m.complete(err)
	return st
}

// Record stores the result of m without releasing its waiters; the caller
// must follow up with Release.
func (t *Tracker) Record(m *Mutation, err error) WriteState {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[m.ID]
	if !ok {
		st = &WriteState{ID: m.ID, Day: m.Day, Op: m.Op}
		t.states[m.ID] = st
		t.order = append(t.order, m.ID)
	}
	st.Finished = t.nowFunc()
	if err != nil {
		st.Status = StatusFailed
		st.Error = err.Error()
	} else {
		st.Status = StatusConfirmed
	}
	out := *st
	t.trimLocked()
	return out
}

// Release wakes the waiters of a recorded mutation.
func (t *Tracker) Release(m *Mutation, err error) {
	m.complete(err)
}

// Status returns the state of a write.
func (t *Tracker) Status(id string) (WriteState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[id]
	if !ok {
		return WriteState{}, false
	}
	return *st, true
}

// Pending returns the writes that have not finished, oldest first.
func (t *Tracker) Pending() []WriteState {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []WriteState
	for _, id := range t.order {
		if st := t.states[id]; st.Status == StatusPending {
			out = append(out, *st)
		}
	}
	return out
}

func (t *Tracker) trimLocked() {
	finished := 0
	for _, id := range t.order {
		if t.states[id].Status != StatusPending {
			finished++
		}
	}
	if finished <= t.limit {
		return
	}
	drop := finished - t.limit
	kept := t.order[:0]
	for _, id := range t.order {
		if drop > 0 && t.states[id].Status != StatusPending {
			delete(t.states, id)
			drop--
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}
