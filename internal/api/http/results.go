package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizchamp/quizchamp/internal/exam"
)

// GET /exams/{examID}/results
func ListExamResultsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := svc.ResultsForExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// GET /results/{resultID} — attempt joined with its exam and the full
// questions (answer keys included: this is the grading view).
func GetResultHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.ResultDetail(r.Context(), chi.URLParam(r, "resultID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

type gradeResultReq struct {
	LongMarks float64 `json:"long_marks"`
}

// POST /results/{resultID}/grade — idempotent: repeating the call with
// the same marks yields the same final score.
func GradeResultHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeResultReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := svc.Grade(r.Context(), chi.URLParam(r, "resultID"), req.LongMarks)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
