package exam

import "context"

type CreateExamInput struct {
	Title        string
	QuestionIDs  []string
	TimeLimitMin int
	AuthorID     string
}

// Store is the persistence surface for the exam registry and the attempt
// ledger. InsertAttempt is the single serialization point for the
// one-attempt-per-(exam,student) invariant: it must rely on the
// datastore's unique constraint, never on a prior existence check.
type Store interface {
	// Registry
	CreateExam(ctx context.Context, e Exam) (Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)
	GetExamByCode(ctx context.Context, code string) (Exam, error) // started exams only
	ListExamsByAuthor(ctx context.Context, authorID string) ([]Exam, error)
	EndExam(ctx context.Context, id string) error

	// Ledger
	InsertAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	FindAttempt(ctx context.Context, examID, studentEmail string) (Attempt, bool, error)
	ListAttemptsByExam(ctx context.Context, examID string) ([]Attempt, error)
	ListAttemptsByStudent(ctx context.Context, studentEmail string) ([]AttemptSummary, error)
	UpdateAttemptMarks(ctx context.Context, id string, longMarks, finalScore float64) (Attempt, error)
}
