package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/mesh-intelligence/tripdeck/internal/checklist"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

type checklistResponse struct {
	types.Checklist
	Progress map[string]checklist.Progress `json:"progress"`
	Packed   []checklist.Group             `json:"packingByCategory"`
}

type addEntryRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// checklistEvent is pushed on the change feed after a checklist write.
type checklistEvent struct {
	Kind string `json:"kind"`
	List string `json:"list"`
	ID   string `json:"id"`
}

const eventChecklistUpdated = "checklist.updated"

func (s *Server) getChecklist(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	c, err := s.lists.Get(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, checklistResponse{
		Checklist: c,
		Progress:  checklist.Summarize(c),
		Packed:    checklist.ByCategory(c.Packing),
	})
}

func (s *Server) addChecklistEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req addEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	list := ps.ByName("list")
	e, err := s.lists.Add(r.Context(), list, req.Text, req.Category)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.broadcast(checklistEvent{Kind: eventChecklistUpdated, List: list, ID: e.ID})
	respondJSON(w, http.StatusCreated, e)
}

func (s *Server) updateChecklistEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p checklist.Patch
	if !decodeBody(w, r, &p) {
		return
	}
	list, id := ps.ByName("list"), ps.ByName("id")
	e, err := s.lists.Update(r.Context(), list, id, p)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.broadcast(checklistEvent{Kind: eventChecklistUpdated, List: list, ID: id})
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) toggleChecklistEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	list, id := ps.ByName("list"), ps.ByName("id")
	e, err := s.lists.Toggle(r.Context(), list, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	s.broadcast(checklistEvent{Kind: eventChecklistUpdated, List: list, ID: id})
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) removeChecklistEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	list, id := ps.ByName("list"), ps.ByName("id")
	if err := s.lists.Remove(r.Context(), list, id); err != nil {
		respondErr(w, err)
		return
	}
	s.broadcast(checklistEvent{Kind: eventChecklistUpdated, List: list, ID: id})
	w.WriteHeader(http.StatusNoContent)
}
