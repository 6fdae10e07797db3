package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/quizchamp/quizchamp/internal/auth"
	"github.com/quizchamp/quizchamp/internal/db"
	"github.com/quizchamp/quizchamp/internal/exam"
	"github.com/quizchamp/quizchamp/internal/grading"
	"github.com/quizchamp/quizchamp/internal/question"
	"github.com/quizchamp/quizchamp/internal/rbac"
)

// asUser stamps subject and role into the context the way JWTMiddleware
// would, so handlers and RBAC run exactly as in production.
func asUser(email, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithSubject(r.Context(), email)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type testApp struct {
	svc       *exam.Service
	questions question.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })

	questions := question.NewSQLStore(dbh)
	svc := exam.NewService(exam.NewSQLStore(dbh), questions, grading.NewDefaultGrader())
	return &testApp{svc: svc, questions: questions}
}

func (a *testApp) router(email, role string) chi.Router {
	r := chi.NewRouter()
	r.Use(asUser(email, role))
	r.With(rbac.Require("question:create")).Post("/questions", CreateQuestionHandler(a.questions))
	r.With(rbac.Require("exam:create")).Post("/exams", CreateExamHandler(a.svc))
	r.With(rbac.Require("exam:end")).Post("/exams/{examID}/end", EndExamHandler(a.svc))
	r.With(rbac.Require("exam:join")).Get("/join/{code}", JoinExamHandler(a.svc))
	r.With(rbac.Require("exam:submit")).Post("/exams/{examID}/submit", SubmitExamHandler(a.svc))
	r.With(rbac.Require("results:view-all")).Get("/exams/{examID}/results", ListExamResultsHandler(a.svc))
	r.With(rbac.Require("results:grade")).Post("/results/{resultID}/grade", GradeResultHandler(a.svc))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExamFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	teacher := app.router("teacher@example.com", "teacher")
	student := app.router("student@example.com", "student")

	// Teacher authors a question bank.
	rec := doJSON(t, teacher, "POST", "/questions", map[string]any{
		"kind": "mcq", "text": "2+2?", "options": []string{"3", "4"}, "correct_option": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create question: %d %s", rec.Code, rec.Body)
	}
	var q question.Question
	if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode question: %v", err)
	}

	// Teacher starts an exam.
	rec = doJSON(t, teacher, "POST", "/exams", map[string]any{
		"title": "Mini", "question_ids": []string{q.ID}, "time_limit_min": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create exam: %d %s", rec.Code, rec.Body)
	}
	var created struct {
		ExamID   string `json:"exam_id"`
		JoinCode string `json:"join_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode exam: %v", err)
	}

	// Student joins by code; projection must not leak the key.
	rec = doJSON(t, student, "GET", "/join/"+created.JoinCode, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("join: %d %s", rec.Code, rec.Body)
	}
	var joined exam.JoinedExam
	if err := json.Unmarshal(rec.Body.Bytes(), &joined); err != nil {
		t.Fatalf("decode join: %v", err)
	}
	if len(joined.Questions) != 1 || joined.Questions[0].CorrectOption != nil {
		t.Fatalf("student projection leaks key: %+v", joined.Questions)
	}

	// Student submits a numeric index; coerced and graded.
	rec = doJSON(t, student, "POST", "/exams/"+created.ExamID+"/submit", map[string]any{
		"answers": map[string]any{q.ID: 1},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body)
	}
	var sum exam.ScoreSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.MCQScore != 1 || sum.TotalMCQMarks != 1 {
		t.Fatalf("score %+v, want 1/1", sum)
	}

	// Second submission is rejected as already attempted.
	rec = doJSON(t, student, "POST", "/exams/"+created.ExamID+"/submit", map[string]any{
		"answers": map[string]any{q.ID: 1},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("double submit: %d, want 403", rec.Code)
	}

	// Teacher grades the attempt.
	rec = doJSON(t, teacher, "GET", "/exams/"+created.ExamID+"/results", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results: %d", rec.Code)
	}
	var attempts []exam.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &attempts); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("got %d attempts, want 1", len(attempts))
	}
	rec = doJSON(t, teacher, "POST", "/results/"+attempts[0].ID+"/grade", map[string]any{"long_marks": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("grade: %d %s", rec.Code, rec.Body)
	}
	var graded exam.Attempt
	if err := json.Unmarshal(rec.Body.Bytes(), &graded); err != nil {
		t.Fatalf("decode graded: %v", err)
	}
	if graded.FinalScore != 6 {
		t.Fatalf("final score %v, want 6", graded.FinalScore)
	}

	// Teacher ends the exam; late joins 404, late submits 403.
	rec = doJSON(t, teacher, "POST", "/exams/"+created.ExamID+"/end", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("end: %d", rec.Code)
	}
	late := app.router("late@example.com", "student")
	if rec = doJSON(t, late, "GET", "/join/"+created.JoinCode, nil); rec.Code != http.StatusNotFound {
		t.Errorf("join ended exam: %d, want 404", rec.Code)
	}
	rec = doJSON(t, late, "POST", "/exams/"+created.ExamID+"/submit", map[string]any{"answers": map[string]any{}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("submit ended exam: %d, want 403", rec.Code)
	}
}

func TestRBACBlocksCrossRoleCalls(t *testing.T) {
	app := newTestApp(t)
	student := app.router("student@example.com", "student")

	rec := doJSON(t, student, "POST", "/questions", map[string]any{"kind": "long", "text": "x"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("student created a question: %d, want 403", rec.Code)
	}
	rec = doJSON(t, student, "POST", "/exams", map[string]any{
		"title": "T", "question_ids": []string{"x"}, "time_limit_min": 5,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("student created an exam: %d, want 403", rec.Code)
	}

	teacher := app.router("teacher@example.com", "teacher")
	rec = doJSON(t, teacher, "GET", "/join/123456", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("teacher joined an exam: %d, want 403", rec.Code)
	}
}

func TestCreateExamValidationOverHTTP(t *testing.T) {
	app := newTestApp(t)
	teacher := app.router("teacher@example.com", "teacher")

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"question_ids": []string{"x"}, "time_limit_min": 5}},
		{name: "no questions", body: map[string]any{"title": "T", "time_limit_min": 5}},
		{name: "zero time limit", body: map[string]any{"title": "T", "question_ids": []string{"x"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, teacher, "POST", "/exams", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", rec.Code)
			}
		})
	}
}
