package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/quizchamp/quizchamp/internal/apperr"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the error taxonomy onto status codes. Anything outside
// the taxonomy is a storage-layer failure: logged, surfaced opaquely.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case apperr.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrAlreadyAttempted):
		http.Error(w, "already attempted", http.StatusForbidden)
	case errors.Is(err, apperr.ErrExamEnded):
		http.Error(w, "exam has ended", http.StatusForbidden)
	default:
		log.Printf("internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
