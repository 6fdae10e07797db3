package exam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizchamp/quizchamp/internal/apperr"
	"github.com/quizchamp/quizchamp/internal/grading"
	"github.com/quizchamp/quizchamp/internal/question"
	syncx "github.com/quizchamp/quizchamp/internal/sync"
)

// Service is the exam lifecycle controller: it owns the legality of
// create/join/submit/grade/end transitions and delegates persistence to
// the Store, hydration to the question store, and scoring to the grader.
type Service struct {
	store     Store
	questions question.Store
	grader    grading.Grader
	events    *syncx.EventRepo

	maxLongMarks    float64 // 0 = unbounded
	enforceDeadline bool
}

type Option func(*Service)

// WithEvents enables the audit event log.
func WithEvents(r *syncx.EventRepo) Option { return func(s *Service) { s.events = r } }

// WithMaxLongMarks caps teacher-awarded long-answer marks. Zero leaves
// the award unbounded.
func WithMaxLongMarks(max float64) Option { return func(s *Service) { s.maxLongMarks = max } }

// WithDeadlineEnforcement rejects submissions after createdAt +
// timeLimit. Off by default: the countdown is otherwise a client-observed
// deadline only.
func WithDeadlineEnforcement(on bool) Option { return func(s *Service) { s.enforceDeadline = on } }

func NewService(store Store, questions question.Store, grader grading.Grader, opts ...Option) *Service {
	s := &Service{store: store, questions: questions, grader: grader}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScoreSummary is what a student sees immediately after submitting.
type ScoreSummary struct {
	MCQScore      float64 `json:"mcq_score"`
	TotalMCQMarks float64 `json:"total_mcq_marks"`
}

func (s *Service) Create(ctx context.Context, in CreateExamInput) (Exam, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Exam{}, apperr.Validationf("exam title required")
	}
	if len(in.QuestionIDs) == 0 {
		return Exam{}, apperr.Validationf("exam needs at least one question")
	}
	if in.TimeLimitMin <= 0 {
		return Exam{}, apperr.Validationf("time limit must be positive")
	}
	seen := make(map[string]struct{}, len(in.QuestionIDs))
	for _, id := range in.QuestionIDs {
		if _, dup := seen[id]; dup {
			return Exam{}, apperr.Validationf("duplicate question id %s", id)
		}
		seen[id] = struct{}{}
	}
	if _, err := s.questions.GetByIDs(ctx, in.QuestionIDs); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Exam{}, apperr.Validationf("exam references an unknown question")
		}
		return Exam{}, err
	}

	e := Exam{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		QuestionIDs:  in.QuestionIDs,
		TimeLimitMin: in.TimeLimitMin,
		Status:       StatusStarted,
		AuthorID:     NormalizeEmail(in.AuthorID),
		CreatedAt:    time.Now().Unix(),
	}
	e, err := s.store.CreateExam(ctx, e)
	if err != nil {
		return Exam{}, err
	}
	s.record(ctx, syncx.EventExamCreated, e.ID, map[string]string{"join_code": e.JoinCode})
	return e, nil
}

// Join resolves a 6-digit code to a started exam and serves the
// student-facing projection. The attempt lookup here is advisory (a
// friendly early rejection); the real single-attempt guarantee is the
// unique constraint hit by Submit.
func (s *Service) Join(ctx context.Context, code, studentEmail string) (JoinedExam, error) {
	email := NormalizeEmail(studentEmail)
	if email == "" {
		return JoinedExam{}, apperr.Validationf("student email required")
	}
	e, err := s.store.GetExamByCode(ctx, code)
	if err != nil {
		return JoinedExam{}, err
	}
	if _, exists, err := s.store.FindAttempt(ctx, e.ID, email); err != nil {
		return JoinedExam{}, err
	} else if exists {
		return JoinedExam{}, apperr.ErrAlreadyAttempted
	}
	qs, err := s.questions.GetByIDs(ctx, e.QuestionIDs)
	if err != nil {
		return JoinedExam{}, fmt.Errorf("hydrate exam %s: %w", e.ID, err)
	}
	for i := range qs {
		qs[i] = qs[i].StudentView()
	}
	return JoinedExam{Exam: e, Questions: qs}, nil
}

// Submit auto-grades the objective questions and records the attempt.
// This is the only path that creates an attempt.
func (s *Service) Submit(ctx context.Context, examID, studentEmail string, answers map[string]string) (ScoreSummary, error) {
	email := NormalizeEmail(studentEmail)
	if email == "" {
		return ScoreSummary{}, apperr.Validationf("student email required")
	}
	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return ScoreSummary{}, err
	}
	if e.Status == StatusEnded {
		return ScoreSummary{}, apperr.ErrExamEnded
	}
	if s.enforceDeadline {
		deadline := e.CreatedAt + int64(e.TimeLimitMin)*60
		if time.Now().Unix() > deadline {
			return ScoreSummary{}, apperr.ErrExamEnded
		}
	}
	qs, err := s.questions.GetByIDs(ctx, e.QuestionIDs)
	if err != nil {
		return ScoreSummary{}, fmt.Errorf("hydrate exam %s: %w", e.ID, err)
	}
	bd, err := grading.AutoGrade(ctx, s.grader, gradingView(qs), answers)
	if err != nil {
		return ScoreSummary{}, fmt.Errorf("autograde: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}
	a := Attempt{
		ID:            uuid.NewString(),
		ExamID:        e.ID,
		StudentEmail:  email,
		Answers:       answers,
		MCQScore:      bd.MCQScore,
		TotalMCQMarks: bd.TotalMCQMarks,
		FinalScore:    bd.MCQScore, // long marks pending
		CreatedAt:     time.Now().Unix(),
	}
	if err := s.store.InsertAttempt(ctx, a); err != nil {
		return ScoreSummary{}, err
	}
	s.record(ctx, syncx.EventAttemptSubmitted, a.ID, ScoreSummary{MCQScore: bd.MCQScore, TotalMCQMarks: bd.TotalMCQMarks})
	return ScoreSummary{MCQScore: bd.MCQScore, TotalMCQMarks: bd.TotalMCQMarks}, nil
}

// Grade applies teacher-awarded long-answer marks. Allowed at any exam
// status and idempotent: marks and final score are assigned, so re-running
// with the same input leaves the attempt unchanged.
func (s *Service) Grade(ctx context.Context, resultID string, longMarks float64) (Attempt, error) {
	a, err := s.store.GetAttempt(ctx, resultID)
	if err != nil {
		return Attempt{}, err
	}
	marks := grading.ManualMarks(longMarks, s.maxLongMarks)
	final := grading.FinalScore(a.MCQScore, marks)
	a, err = s.store.UpdateAttemptMarks(ctx, a.ID, marks, final)
	if err != nil {
		return Attempt{}, err
	}
	s.record(ctx, syncx.EventResultGraded, a.ID, map[string]float64{"long_marks": marks, "final_score": final})
	return a, nil
}

func (s *Service) End(ctx context.Context, examID string) error {
	if err := s.store.EndExam(ctx, examID); err != nil {
		return err
	}
	s.record(ctx, syncx.EventExamEnded, examID, nil)
	return nil
}

func (s *Service) ResultsForExam(ctx context.Context, examID string) ([]Attempt, error) {
	return s.store.ListAttemptsByExam(ctx, examID)
}

// ResultDetail is the teacher-facing view: attempt plus exam plus the
// full questions, answer keys included.
func (s *Service) ResultDetail(ctx context.Context, resultID string) (ResultDetail, error) {
	a, err := s.store.GetAttempt(ctx, resultID)
	if err != nil {
		return ResultDetail{}, err
	}
	e, err := s.store.GetExam(ctx, a.ExamID)
	if err != nil {
		return ResultDetail{}, err
	}
	qs, err := s.questions.GetByIDs(ctx, e.QuestionIDs)
	if err != nil {
		return ResultDetail{}, fmt.Errorf("hydrate exam %s: %w", e.ID, err)
	}
	return ResultDetail{Attempt: a, Exam: e, Questions: qs}, nil
}

func (s *Service) ExamsForTeacher(ctx context.Context, authorID string) ([]Exam, error) {
	return s.store.ListExamsByAuthor(ctx, authorID)
}

func (s *Service) ResultsForStudent(ctx context.Context, studentEmail string) ([]AttemptSummary, error) {
	return s.store.ListAttemptsByStudent(ctx, studentEmail)
}

// record appends to the audit log when one is wired. Best effort: a
// failed audit write never fails the transition it describes.
func (s *Service) record(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	_ = s.events.Record(ctx, typ, key, payload)
}

func gradingView(qs []question.Question) []grading.Q {
	out := make([]grading.Q, len(qs))
	for i, q := range qs {
		out[i] = grading.Q{ID: q.ID, Kind: q.Kind, CorrectOption: q.CorrectOption}
	}
	return out
}
