package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

type dayBody struct {
	Day   int                   `json:"day"`
	Items []types.ItineraryItem `json:"items"`
}

type daysResponse struct {
	Freshness itinerary.Freshness    `json:"freshness"`
	Days      []dayBody              `json:"days"`
	Pending   []itinerary.WriteState `json:"pending"`
}

type dayResponse struct {
	Freshness itinerary.Freshness `json:"freshness"`
	dayBody
}

// mutationResponse is the reply to every item mutation.
type mutationResponse struct {
	WriteID string                `json:"writeId,omitempty"`
	Status  itinerary.Status      `json:"status"`
	Error   string                `json:"error,omitempty"`
	Day     int                   `json:"day"`
	Item    *types.ItineraryItem  `json:"item,omitempty"`
	Items   []types.ItineraryItem `json:"items,omitempty"`
	Outcome itinerary.OutcomeKind `json:"outcome,omitempty"`
}

type dropRequest struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
	After    bool   `json:"after"`
	Trash    bool   `json:"trash"`
}

func dayParam(w http.ResponseWriter, ps httprouter.Params) (int, bool) {
	day, err := strconv.Atoi(ps.ByName("day"))
	if err != nil || day < 1 {
		respondError(w, http.StatusBadRequest, "day must be a positive integer", "day")
		return 0, false
	}
	return day, true
}

func (s *Server) listDays(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	idx, fresh, err := s.planner.Days(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	resp := daysResponse{Freshness: fresh, Days: []dayBody{}, Pending: s.planner.PendingWrites()}
	for _, day := range idx.Days() {
		resp.Days = append(resp.Days, dayBody{Day: day, Items: idx.Bucket(day)})
	}
	if resp.Pending == nil {
		resp.Pending = []itinerary.WriteState{}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}
	bucket, fresh, err := s.planner.Day(r.Context(), day)
	if err != nil {
		respondErr(w, err)
		return
	}
	if bucket == nil {
		bucket = []types.ItineraryItem{}
	}
	respondJSON(w, http.StatusOK, dayResponse{Freshness: fresh, dayBody: dayBody{Day: day, Items: bucket}})
}

func (s *Server) drop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := dayParam(w, ps)
	if !ok {
		return
	}
	var req dropRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ActiveID == "" {
		respondErr(w, types.Invalid("activeId", "must not be empty"))
		return
	}

	var drag itinerary.Drag
	if err := drag.Start(day, req.ActiveID); err != nil {
		respondErr(w, err)
		return
	}
	var hits []itinerary.DropTarget
	if req.Trash {
		hits = append(hits, itinerary.TrashTarget())
	}
	if req.OverID != "" {
		hits = append(hits, itinerary.ItemTarget(req.OverID, req.After))
	}
	if err := drag.Hover(hits...); err != nil {
		respondErr(w, err)
		return
	}
	out, err := drag.End()
	if err != nil {
		respondErr(w, err)
		return
	}

	res, err := s.planner.Drop(r.Context(), out)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.respondMutation(w, r, res.Mutation, mutationResponse{Day: day, Items: res.Items, Outcome: out.Kind})
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var form itinerary.FormData
	if !decodeBody(w, r, &form) {
		return
	}
	edit, err := s.planner.CreateItem(r.Context(), form)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.respondMutation(w, r, edit.Mutation, mutationResponse{Day: edit.Item.Day, Item: &edit.Item})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var form itinerary.FormData
	if !decodeBody(w, r, &form) {
		return
	}
	edit, err := s.planner.UpdateItem(r.Context(), ps.ByName("id"), form)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.respondMutation(w, r, edit.Mutation, mutationResponse{Day: edit.Item.Day, Item: &edit.Item})
}

// trashItem is the delete shortcut: the item is dropped on the trash zone of
// its own day.
func (s *Server) trashItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	it, err := s.planner.Item(r.Context(), id)
	if errors.Is(err, types.ErrNotFound) {
		// Already deleted.
		s.respondMutation(w, r, nil, mutationResponse{Outcome: itinerary.OutcomeDeleted})
		return
	}
	if err != nil {
		respondErr(w, err)
		return
	}
	res, err := s.planner.Trash(r.Context(), it.Day, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.respondMutation(w, r, res.Mutation, mutationResponse{Day: it.Day, Items: res.Items, Outcome: itinerary.OutcomeDeleted})
}

func (s *Server) writeStatus(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	st, ok := s.planner.WriteStatus(ps.ByName("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown write id", "")
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// respondMutation replies 202 with the optimistic result, or with ?wait=true
// waits for the write and replies 200 or 502.
func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, m *itinerary.Mutation, resp mutationResponse) {
	if resp.Items == nil && resp.Item == nil {
		resp.Items = []types.ItineraryItem{}
	}
	if m == nil {
		resp.Status = itinerary.StatusConfirmed
		respondJSON(w, http.StatusOK, resp)
		return
	}
	resp.WriteID = m.ID
	resp.Status = itinerary.StatusPending

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		respondJSON(w, http.StatusAccepted, resp)
		return
	}

	err := m.Wait(r.Context())
	switch {
	case err == nil:
		resp.Status = itinerary.StatusConfirmed
		respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, r.Context().Err()):
		// The client went away; the write carries on.
		s.log.Debug("client left before write finished", "write", m.ID)
	default:
		resp.Status = itinerary.StatusFailed
		resp.Error = err.Error()
		code := http.StatusBadGateway
		if !errors.Is(err, types.ErrWriteFailed) {
			code = statusFor(err)
		}
		respondJSON(w, code, resp)
	}
}
