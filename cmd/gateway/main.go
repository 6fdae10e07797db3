package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/quizchamp/quizchamp/internal/api/http"
	"github.com/quizchamp/quizchamp/internal/auth"
	"github.com/quizchamp/quizchamp/internal/config"
	"github.com/quizchamp/quizchamp/internal/db"
	"github.com/quizchamp/quizchamp/internal/exam"
	"github.com/quizchamp/quizchamp/internal/grading"
	"github.com/quizchamp/quizchamp/internal/question"
	"github.com/quizchamp/quizchamp/internal/rbac"
	syncx "github.com/quizchamp/quizchamp/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	questions := question.NewSQLStore(dbh)
	store := exam.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)
	svc := exam.NewService(store, questions, grading.NewDefaultGrader(),
		exam.WithEvents(events),
		exam.WithMaxLongMarks(cfg.MaxLongMarks),
		exam.WithDeadlineEnforcement(cfg.EnforceDeadline),
	)

	users := auth.NewUserStore(dbh)
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/signup", auth.SignupHandler(users))
	r.Post("/auth/login", auth.LoginHandler(users, authSvc))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Teacher: question bank
		pr.With(rbac.Require("question:create")).
			Post("/questions", api.CreateQuestionHandler(questions))
		pr.With(rbac.Require("question:delete")).
			Delete("/questions/{questionID}", api.DeleteQuestionHandler(questions))
		pr.With(rbac.Require("question:list")).
			Get("/questions", api.ListQuestionsHandler(questions))

		// Teacher: exam lifecycle
		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.CreateExamHandler(svc))
		pr.With(rbac.Require("exam:end")).
			Post("/exams/{examID}/end", api.EndExamHandler(svc))
		pr.With(rbac.Require("exam:list-own")).
			Get("/exams", api.ListTeacherExamsHandler(svc))

		// Student flow
		pr.With(rbac.Require("exam:join")).
			Get("/join/{code}", api.JoinExamHandler(svc))
		pr.With(rbac.Require("exam:submit")).
			Post("/exams/{examID}/submit", api.SubmitExamHandler(svc))
		pr.With(rbac.RequireAny("results:view-own", "results:view-all")).
			Get("/students/{email}/results", api.ListStudentResultsHandler(svc))

		// Teacher: results and manual grading
		pr.With(rbac.Require("results:view-all")).
			Get("/exams/{examID}/results", api.ListExamResultsHandler(svc))
		pr.With(rbac.Require("results:view-all")).
			Get("/results/{resultID}", api.GetResultHandler(svc))
		pr.With(rbac.Require("results:grade")).
			Post("/results/{resultID}/grade", api.GradeResultHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
