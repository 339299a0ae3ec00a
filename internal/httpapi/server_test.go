package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/internal/checklist"
	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/internal/memstore"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

type fixture struct {
	srv     *Server
	http    *httptest.Server
	planner *itinerary.Planner
	items   types.ItemStore
}

func bucket(day int, ids ...string) []types.ItineraryItem {
	out := make([]types.ItineraryItem, len(ids))
	for i, id := range ids {
		out[i] = types.ItineraryItem{ID: id, Day: day, SortOrder: i, Title: id, Type: types.ItemSight}
	}
	return out
}

func newFixture(t *testing.T, store types.ItemStore, expenses types.ExpenseStore, cfg Config) *fixture {
	t.Helper()
	if expenses == nil {
		expenses = memstore.NewExpenses()
	}
	p := itinerary.NewPlanner(store, itinerary.Options{WriteTimeout: 2 * time.Second})
	lists := checklist.New(&memstore.Checklist{}, types.Checklist{
		Todo:    []types.ChecklistEntry{{ID: "1", Text: "Check passport expiry"}},
		Packing: []types.ChecklistEntry{{ID: "1", Text: "Passport", Category: "文件"}},
	}, nil)
	s := New(p, expenses, lists, cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
		p.Close(context.Background())
	})
	return &fixture{srv: s, http: ts, planner: p, items: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, f.http.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func storedOrder(t *testing.T, store types.ItemStore, day int) []string {
	t.Helper()
	all, err := store.GetAll(context.Background())
	require.NoError(t, err)
	return types.IDs(itinerary.Project(all).Bucket(day))
}

func TestHealthAndHeaders(t *testing.T) {
	f := newFixture(t, memstore.NewItems(), nil, Config{AllowedOrigins: []string{"http://app.test"}})

	req, _ := http.NewRequest(http.MethodGet, f.http.URL+"/health", nil)
	req.Header.Set("Origin", "http://app.test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "http://app.test", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestListDays(t *testing.T) {
	store := memstore.NewItems(append(bucket(2, "X"), bucket(1, "A", "B")...)...)
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodGet, "/api/days", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[daysResponse](t, resp)
	assert.Equal(t, itinerary.FreshnessLive, got.Freshness)
	require.Len(t, got.Days, 2)
	assert.Equal(t, 1, got.Days[0].Day)
	assert.Equal(t, []string{"A", "B"}, types.IDs(got.Days[0].Items))
	assert.NotNil(t, got.Pending)

	resp = f.do(t, http.MethodGet, "/api/days/7", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	day := decode[dayResponse](t, resp)
	assert.Equal(t, 7, day.Day)
	assert.Empty(t, day.Items)

	resp = f.do(t, http.MethodGet, "/api/days/zero", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDropAndWait(t *testing.T) {
	store := memstore.NewItems(bucket(1, "A", "B", "C", "D")...)
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodPost, "/api/days/1/drop?wait=true", dropRequest{ActiveID: "A", OverID: "C"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[mutationResponse](t, resp)
	assert.Equal(t, itinerary.StatusConfirmed, got.Status)
	assert.Equal(t, itinerary.OutcomeReordered, got.Outcome)
	assert.Equal(t, []string{"B", "A", "C", "D"}, types.IDs(got.Items))
	assert.Equal(t, []string{"B", "A", "C", "D"}, storedOrder(t, store, 1))
}

func TestDropAccepted(t *testing.T) {
	store := memstore.NewItems(bucket(1, "A", "B", "C")...)
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodPost, "/api/days/1/drop", dropRequest{ActiveID: "C", OverID: "A"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	got := decode[mutationResponse](t, resp)
	require.NotEmpty(t, got.WriteID)
	assert.Equal(t, itinerary.StatusPending, got.Status)

	assert.Eventually(t, func() bool {
		r := f.do(t, http.MethodGet, "/api/writes/"+got.WriteID, nil)
		return decode[itinerary.WriteState](t, r).Status == itinerary.StatusConfirmed
	}, 2*time.Second, 10*time.Millisecond)

	resp = f.do(t, http.MethodGet, "/api/writes/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDropTrashWinsOverItem(t *testing.T) {
	store := memstore.NewItems(bucket(1, "A", "B", "C")...)
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodPost, "/api/days/1/drop?wait=true", dropRequest{ActiveID: "B", OverID: "A", Trash: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[mutationResponse](t, resp)
	assert.Equal(t, itinerary.OutcomeDeleted, got.Outcome)
	assert.Equal(t, []string{"A", "C"}, storedOrder(t, store, 1))
}

func TestDropNowhereIsCancelled(t *testing.T) {
	store := memstore.NewItems(bucket(1, "A", "B")...)
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodPost, "/api/days/1/drop", dropRequest{ActiveID: "A"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[mutationResponse](t, resp)
	assert.Equal(t, itinerary.OutcomeCancelled, got.Outcome)
	assert.Empty(t, got.WriteID)
	assert.Empty(t, f.planner.PendingWrites())
}

func TestDropErrors(t *testing.T) {
	store := memstore.NewItems(bucket(1, "A", "B")...)
	f := newFixture(t, store, nil, Config{})

	tests := []struct {
		name  string
		path  string
		body  any
		code  int
		field string
	}{
		{name: "unknown item", path: "/api/days/1/drop", body: dropRequest{ActiveID: "Z", OverID: "A"}, code: http.StatusNotFound},
		{name: "unknown target", path: "/api/days/1/drop", body: dropRequest{ActiveID: "A", OverID: "Z"}, code: http.StatusNotFound},
		{name: "missing active id", path: "/api/days/1/drop", body: dropRequest{OverID: "A"}, code: http.StatusUnprocessableEntity, field: "activeId"},
		{name: "malformed body", path: "/api/days/1/drop", body: "{", code: http.StatusBadRequest},
		{name: "bad day", path: "/api/days/0/drop", body: dropRequest{ActiveID: "A", OverID: "B"}, code: http.StatusBadRequest, field: "day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.field, decode[errorBody](t, resp).Field)
		})
	}
	assert.Equal(t, []string{"A", "B"}, storedOrder(t, store, 1))
}

// failingStore fails every reorder.
type failingStore struct {
	*memstore.Items
}

func (s failingStore) BatchSetSortOrder(context.Context, int, []string) error {
	return types.WriteFailed("batch set sort order", assert.AnError)
}

func TestDropWriteFailure(t *testing.T) {
	store := failingStore{memstore.NewItems(bucket(1, "A", "B")...)}
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodPost, "/api/days/1/drop?wait=true", dropRequest{ActiveID: "B", OverID: "A"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	got := decode[mutationResponse](t, resp)
	assert.Equal(t, itinerary.StatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)

	st, ok := f.planner.WriteStatus(got.WriteID)
	require.True(t, ok)
	assert.Equal(t, itinerary.StatusFailed, st.Status)
}

func TestCreateAndUpdateItem(t *testing.T) {
	store := memstore.NewItems(bucket(2, "A", "B")...)
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodPost, "/api/items?wait=true", map[string]any{"day": 2, "title": "Night market", "type": "food"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decode[mutationResponse](t, resp)
	require.NotNil(t, created.Item)
	assert.Equal(t, 2, created.Item.SortOrder)
	assert.Equal(t, types.ItemFood, created.Item.Type)
	assert.Equal(t, []string{"A", "B", created.Item.ID}, storedOrder(t, store, 2))

	resp = f.do(t, http.MethodPut, "/api/items/A?wait=true", map[string]any{"notes": "bring cash"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[mutationResponse](t, resp)
	assert.Equal(t, "bring cash", updated.Item.Notes)
	assert.Equal(t, 0, updated.Item.SortOrder)

	resp = f.do(t, http.MethodPost, "/api/items", map[string]any{"day": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "title", decode[errorBody](t, resp).Field)

	resp = f.do(t, http.MethodPut, "/api/items/A", map[string]any{"type": "museum"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/items/nope", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrashShortcut(t *testing.T) {
	store := memstore.NewItems(append(bucket(1, "A", "B", "C"), bucket(2, "X")...)...)
	f := newFixture(t, store, nil, Config{})

	resp := f.do(t, http.MethodDelete, "/api/items/B?wait=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "C"}, storedOrder(t, store, 1))
	assert.Equal(t, []string{"X"}, storedOrder(t, store, 2))

	resp = f.do(t, http.MethodDelete, "/api/items/B", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "deleting twice is a no-op")
	assert.Equal(t, []string{"A", "C"}, storedOrder(t, store, 1))
}

func TestRateLimitOnMutations(t *testing.T) {
	f := newFixture(t, memstore.NewItems(), nil, Config{RatePerSecond: 0.001, RateBurst: 1})

	resp := f.do(t, http.MethodPost, "/api/items", map[string]any{"day": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/api/items", map[string]any{"day": 1})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/days", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads are not limited")
}

func TestChangeFeed(t *testing.T) {
	store := memstore.NewItems(bucket(1, "A", "B", "C")...)
	f := newFixture(t, store, nil, Config{})

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.srv.Hub().Len() == 1 }, time.Second, 5*time.Millisecond)

	resp := f.do(t, http.MethodPost, "/api/days/1/drop", dropRequest{ActiveID: "C", OverID: "A"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var kinds []itinerary.EventKind
	for len(kinds) < 2 {
		var ev itinerary.Event
		require.NoError(t, conn.ReadJSON(&ev))
		kinds = append(kinds, ev.Kind)
		if ev.Kind == itinerary.EventDayReordered {
			assert.Equal(t, []string{"C", "A", "B"}, types.IDs(ev.Items))
		}
	}
	assert.Equal(t, []itinerary.EventKind{itinerary.EventDayReordered, itinerary.EventWriteFinished}, kinds)
}

func TestChangeFeedRejectsForeignOrigin(t *testing.T) {
	f := newFixture(t, memstore.NewItems(), nil, Config{AllowedOrigins: []string{"http://app.test"}})

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
