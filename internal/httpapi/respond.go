package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"kumbara/internal/core"
	"kumbara/internal/engine"
	applog "kumbara/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", applog.FieldError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeMutation maps an engine mutation result onto a response. The
// durable-write failure case is special: the in-memory change stuck, so the
// entity is returned with a warning instead of being reported as lost.
func (s *Server) writeMutation(w http.ResponseWriter, status int, v any, err error) {
	var persistErr *engine.PersistenceError
	switch {
	case err == nil:
		s.writeJSON(w, status, v)
	case errors.Is(err, core.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrDuplicateBudget):
		s.writeError(w, http.StatusConflict, "budget already exists for this category and month")
	case errors.As(err, &persistErr):
		s.writeJSON(w, status, map[string]any{
			"result":  v,
			"warning": "changes may not be saved",
		})
	default:
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
