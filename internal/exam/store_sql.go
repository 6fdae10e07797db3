package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quizchamp/quizchamp/internal/apperr"
)

// Join codes are uniform draws from [100000, 999999]. The UNIQUE index on
// exams.join_code is the collision detector; CreateExam redraws on
// conflict instead of trusting the generator.
const (
	joinCodeMin     = 100000
	joinCodeSpan    = 900000
	joinCodeRetries = 5
)

func newJoinCode() string {
	return strconv.Itoa(joinCodeMin + rand.Intn(joinCodeSpan))
}

type SQLStore struct {
	db      *sql.DB
	newCode func() string
	retries int
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, newCode: newJoinCode, retries: joinCodeRetries}
}

func (s *SQLStore) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	qj, err := json.Marshal(e.QuestionIDs)
	if err != nil {
		return Exam{}, err
	}
	for i := 0; i < s.retries; i++ {
		e.JoinCode = s.newCode()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO exams (id,title,question_ids_json,time_limit_min,join_code,status,author_id,created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			e.ID, e.Title, string(qj), e.TimeLimitMin, e.JoinCode, e.Status, e.AuthorID, e.CreatedAt)
		if err == nil {
			return e, nil
		}
		if uniqueViolation(err) {
			continue
		}
		return Exam{}, fmt.Errorf("insert exam: %w", err)
	}
	return Exam{}, fmt.Errorf("join code space exhausted after %d draws: %w", s.retries, err)
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,question_ids_json,time_limit_min,join_code,status,author_id,created_at
		 FROM exams WHERE id=$1`, id)
	return scanExam(row)
}

func (s *SQLStore) GetExamByCode(ctx context.Context, code string) (Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,question_ids_json,time_limit_min,join_code,status,author_id,created_at
		 FROM exams WHERE join_code=$1 AND status=$2`, strings.TrimSpace(code), StatusStarted)
	return scanExam(row)
}

func (s *SQLStore) ListExamsByAuthor(ctx context.Context, authorID string) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,question_ids_json,time_limit_min,join_code,status,author_id,created_at
		 FROM exams WHERE author_id=$1 ORDER BY created_at DESC, id DESC`,
		NormalizeEmail(authorID))
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EndExam flips started -> ended. Ending an already-ended exam is a
// no-op so the caller sees the operation as idempotent.
func (s *SQLStore) EndExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exams SET status=$1 WHERE id=$2 AND status=$3`,
		StatusEnded, id, StatusStarted)
	if err != nil {
		return fmt.Errorf("end exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

func (s *SQLStore) InsertAttempt(ctx context.Context, a Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	var long sql.NullFloat64
	if a.LongMarks != nil {
		long = sql.NullFloat64{Float64: *a.LongMarks, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id,exam_id,student_email,answers_json,mcq_score,total_mcq_marks,long_marks,final_score,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.ExamID, a.StudentEmail, string(aj), a.MCQScore, a.TotalMCQMarks, long, a.FinalScore, a.CreatedAt)
	if uniqueViolation(err) {
		return apperr.ErrAlreadyAttempted
	}
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,exam_id,student_email,answers_json,mcq_score,total_mcq_marks,long_marks,final_score,created_at
		 FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) FindAttempt(ctx context.Context, examID, studentEmail string) (Attempt, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,exam_id,student_email,answers_json,mcq_score,total_mcq_marks,long_marks,final_score,created_at
		 FROM attempts WHERE exam_id=$1 AND student_email=$2`,
		examID, NormalizeEmail(studentEmail))
	a, err := scanAttempt(row)
	if errors.Is(err, apperr.ErrNotFound) {
		return Attempt{}, false, nil
	}
	if err != nil {
		return Attempt{}, false, err
	}
	return a, true, nil
}

func (s *SQLStore) ListAttemptsByExam(ctx context.Context, examID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,exam_id,student_email,answers_json,mcq_score,total_mcq_marks,long_marks,final_score,created_at
		 FROM attempts WHERE exam_id=$1 ORDER BY created_at DESC, id DESC`, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAttemptsByStudent(ctx context.Context, studentEmail string) ([]AttemptSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id,a.exam_id,a.student_email,a.answers_json,a.mcq_score,a.total_mcq_marks,a.long_marks,a.final_score,a.created_at,e.title
		 FROM attempts a JOIN exams e ON e.id=a.exam_id
		 WHERE a.student_email=$1 ORDER BY a.created_at DESC, a.id DESC`,
		NormalizeEmail(studentEmail))
	if err != nil {
		return nil, fmt.Errorf("list student attempts: %w", err)
	}
	defer rows.Close()
	out := []AttemptSummary{}
	for rows.Next() {
		var sum AttemptSummary
		var aj string
		var long sql.NullFloat64
		if err := rows.Scan(&sum.ID, &sum.ExamID, &sum.StudentEmail, &aj, &sum.MCQScore,
			&sum.TotalMCQMarks, &long, &sum.FinalScore, &sum.CreatedAt, &sum.ExamTitle); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &sum.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		if long.Valid {
			v := long.Float64
			sum.LongMarks = &v
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// UpdateAttemptMarks assigns (never adds to) the manual marks and the
// recomputed final score. Re-running with the same marks is a no-op.
func (s *SQLStore) UpdateAttemptMarks(ctx context.Context, id string, longMarks, finalScore float64) (Attempt, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET long_marks=$1, final_score=$2 WHERE id=$3`,
		longMarks, finalScore, id)
	if err != nil {
		return Attempt{}, fmt.Errorf("update marks: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Attempt{}, apperr.ErrNotFound
	}
	return s.GetAttempt(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(r rowScanner) (Exam, error) {
	var e Exam
	var qj string
	if err := r.Scan(&e.ID, &e.Title, &qj, &e.TimeLimitMin, &e.JoinCode, &e.Status, &e.AuthorID, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, apperr.ErrNotFound
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(qj), &e.QuestionIDs); err != nil {
		return Exam{}, fmt.Errorf("decode question ids: %w", err)
	}
	return e, nil
}

func scanAttempt(r rowScanner) (Attempt, error) {
	var a Attempt
	var aj string
	var long sql.NullFloat64
	if err := r.Scan(&a.ID, &a.ExamID, &a.StudentEmail, &aj, &a.MCQScore, &a.TotalMCQMarks, &long, &a.FinalScore, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, apperr.ErrNotFound
		}
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("decode answers: %w", err)
	}
	if long.Valid {
		v := long.Float64
		a.LongMarks = &v
	}
	return a, nil
}

// uniqueViolation recognizes unique-constraint failures from both
// supported drivers: pgx reports SQLSTATE 23505, modernc sqlite has no
// typed constant for it so the message is matched.
func uniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
