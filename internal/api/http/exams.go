package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizchamp/quizchamp/internal/auth"
	"github.com/quizchamp/quizchamp/internal/exam"
)

type createExamReq struct {
	Title        string   `json:"title" validate:"required"`
	QuestionIDs  []string `json:"question_ids" validate:"required,min=1"`
	TimeLimitMin int      `json:"time_limit_min" validate:"required,gt=0"`
}

// POST /exams — creates and immediately starts an exam, returning its
// join code.
func CreateExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExamReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		e, err := svc.Create(r.Context(), exam.CreateExamInput{
			Title:        req.Title,
			QuestionIDs:  req.QuestionIDs,
			TimeLimitMin: req.TimeLimitMin,
			AuthorID:     auth.SubjectFromContext(r.Context()),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"exam_id": e.ID, "join_code": e.JoinCode, "exam": e})
	}
}

// POST /exams/{examID}/end
func EndExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.End(r.Context(), chi.URLParam(r, "examID")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "exam ended"})
	}
}

// GET /exams — the caller's exams, newest first.
func ListTeacherExamsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exams, err := svc.ExamsForTeacher(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exams)
	}
}
