package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/mesh-intelligence/tripdeck/internal/budget"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

type expensesResponse struct {
	Expenses []types.Expense `json:"expenses"`
	Summary  budget.Summary  `json:"summary"`
}

// expenseEvent is pushed on the change feed after a ledger write.
type expenseEvent struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Expense feed event kinds.
const (
	eventExpenseSaved   = "expense.saved"
	eventExpenseDeleted = "expense.deleted"
)

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := s.expenses.List(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	date := r.URL.Query().Get("date")
	shown := list
	if date != "" {
		shown = []types.Expense{}
		for _, e := range list {
			if e.Date == date {
				shown = append(shown, e)
			}
		}
	}
	respondJSON(w, http.StatusOK, expensesResponse{Expenses: shown, Summary: budget.Summarize(list, date)})
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var e types.Expense
	if !decodeBody(w, r, &e) {
		return
	}
	e.ID = ""
	s.putExpense(w, r, e, http.StatusCreated)
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var e types.Expense
	if !decodeBody(w, r, &e) {
		return
	}
	e.ID = ps.ByName("id")
	s.putExpense(w, r, e, http.StatusOK)
}

func (s *Server) putExpense(w http.ResponseWriter, r *http.Request, e types.Expense, code int) {
	id, err := s.expenses.Put(r.Context(), e)
	if err != nil {
		respondErr(w, err)
		return
	}
	e.ID = id
	e.Normalize()
	s.broadcast(expenseEvent{Kind: eventExpenseSaved, ID: id})
	respondJSON(w, code, e)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}
	s.broadcast(expenseEvent{Kind: eventExpenseDeleted, ID: id})
	w.WriteHeader(http.StatusNoContent)
}
