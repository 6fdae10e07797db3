package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quizchamp/quizchamp/internal/auth"
	"github.com/quizchamp/quizchamp/internal/exam"
	"github.com/quizchamp/quizchamp/internal/grading"
	"github.com/quizchamp/quizchamp/internal/rbac"
)

// GET /join/{code} — resolve a join code to the student projection of an
// exam (questions in order, answer keys stripped).
func JoinExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := auth.SubjectFromContext(r.Context())
		if email == "" {
			email = r.URL.Query().Get("email")
		}
		je, err := svc.Join(r.Context(), chi.URLParam(r, "code"), email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, je)
	}
}

type submitExamReq struct {
	// Answers may carry mcq indices as JSON numbers or strings; they are
	// canonicalized before grading and storage.
	Answers map[string]any `json:"answers"`
}

// POST /exams/{examID}/submit
func SubmitExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitExamReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sum, err := svc.Submit(r.Context(),
			chi.URLParam(r, "examID"),
			auth.SubjectFromContext(r.Context()),
			grading.CanonicalAnswers(req.Answers))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// GET /students/{email}/results — newest first, joined with exam titles.
// Students only ever see their own; teachers may look up any student.
func ListStudentResultsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(chi.URLParam(r, "email"))
		role := rbac.RoleFromContext(r.Context())
		if role != "teacher" {
			email = auth.SubjectFromContext(r.Context())
		}
		results, err := svc.ResultsForStudent(r.Context(), email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
