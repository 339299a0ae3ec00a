package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, code int, msg, field string) {
	respondJSON(w, code, errorBody{Error: msg, Field: field})
}

// respondErr maps err onto a status code and writes it.
func respondErr(w http.ResponseWriter, err error) {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		respondError(w, http.StatusUnprocessableEntity, ve.Error(), ve.Field)
		return
	}
	respondError(w, statusFor(err), err.Error(), "")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidDay),
		errors.Is(err, types.ErrInvalidItemType):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrStoreUnavailable),
		errors.Is(err, types.ErrDetached),
		errors.Is(err, itinerary.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, types.ErrWriteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into v. On failure it replies 400
// and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		msg := fmt.Sprintf("malformed JSON: %v", err)
		if errors.Is(err, io.EOF) {
			msg = "empty request body"
		}
		respondError(w, http.StatusBadRequest, msg, "")
		return false
	}
	return true
}
