package exam

import (
	"strings"

	"github.com/quizchamp/quizchamp/internal/question"
)

// Exam status. Monotonic: started -> ended, never back.
const (
	StatusStarted = "started"
	StatusEnded   = "ended"
)

type Exam struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	QuestionIDs  []string `json:"question_ids"` // presentation order, no duplicates
	TimeLimitMin int      `json:"time_limit_min"`
	JoinCode     string   `json:"join_code"` // 6-digit, unique among exams
	Status       string   `json:"status"`    // started|ended
	AuthorID     string   `json:"author_id"`
	CreatedAt    int64    `json:"created_at"`
}

// Attempt is one student's single permitted submission for one exam.
// Uniqueness of (ExamID, StudentEmail) is enforced by the datastore.
type Attempt struct {
	ID            string            `json:"id"`
	ExamID        string            `json:"exam_id"`
	StudentEmail  string            `json:"student_email"` // normalized
	Answers       map[string]string `json:"answers"`       // questionID -> canonical value
	MCQScore      float64           `json:"mcq_score"`
	TotalMCQMarks float64           `json:"total_mcq_marks"`
	LongMarks     *float64          `json:"long_marks,omitempty"` // nil until manually graded
	FinalScore    float64           `json:"final_score"`
	CreatedAt     int64             `json:"created_at"`
}

// AttemptSummary is an attempt joined with its exam's title, for the
// student dashboard.
type AttemptSummary struct {
	Attempt
	ExamTitle string `json:"exam_title"`
}

// JoinedExam is the student-facing projection served on the join path:
// the exam plus its hydrated questions, answer keys stripped.
type JoinedExam struct {
	Exam      Exam                `json:"exam"`
	Questions []question.Question `json:"questions"`
}

// ResultDetail is the teacher-facing projection of a graded (or gradable)
// attempt: answer keys included.
type ResultDetail struct {
	Attempt   Attempt             `json:"attempt"`
	Exam      Exam                `json:"exam"`
	Questions []question.Question `json:"questions"`
}

// NormalizeEmail is the identity rule for students and exam authors:
// trimmed and lowercased, so lookups are case-insensitive.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
