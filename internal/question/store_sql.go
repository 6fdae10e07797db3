package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizchamp/quizchamp/internal/apperr"
)

type CreateInput struct {
	Kind          string
	Text          string
	Options       []string
	CorrectOption *int
	AuthorID      string
}

type Store interface {
	Create(ctx context.Context, in CreateInput) (Question, error)
	Delete(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, authorID string) ([]Question, error)

	// GetByIDs returns questions in the order the ids were requested.
	// Missing ids surface as ErrNotFound.
	GetByIDs(ctx context.Context, ids []string) ([]Question, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, in CreateInput) (Question, error) {
	if err := validate(in); err != nil {
		return Question{}, err
	}
	q := Question{
		ID:        uuid.NewString(),
		Kind:      in.Kind,
		Text:      strings.TrimSpace(in.Text),
		AuthorID:  normalizeAuthor(in.AuthorID),
		CreatedAt: time.Now().Unix(),
	}
	if in.Kind == KindMCQ {
		q.Options = in.Options
		q.CorrectOption = in.CorrectOption
	}
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return Question{}, err
	}
	var correct sql.NullInt64
	if q.CorrectOption != nil {
		correct = sql.NullInt64{Int64: int64(*q.CorrectOption), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id,kind,text,options_json,correct_option,author_id,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.Kind, q.Text, string(oj), correct, q.AuthorID, q.CreatedAt)
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListByAuthor(ctx context.Context, authorID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,kind,text,options_json,correct_option,author_id,created_at
		 FROM questions WHERE author_id=$1 ORDER BY created_at DESC`,
		normalizeAuthor(authorID))
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetByIDs(ctx context.Context, ids []string) ([]Question, error) {
	byID := make(map[string]Question, len(ids))
	for _, id := range ids {
		row := s.db.QueryRowContext(ctx,
			`SELECT id,kind,text,options_json,correct_option,author_id,created_at
			 FROM questions WHERE id=$1`, id)
		q, err := scanQuestion(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("question %s: %w", id, apperr.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		byID[id] = q
	}
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(r rowScanner) (Question, error) {
	var q Question
	var oj string
	var correct sql.NullInt64
	if err := r.Scan(&q.ID, &q.Kind, &q.Text, &oj, &correct, &q.AuthorID, &q.CreatedAt); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
		return Question{}, fmt.Errorf("decode options: %w", err)
	}
	if correct.Valid {
		v := int(correct.Int64)
		q.CorrectOption = &v
	}
	return q, nil
}

func validate(in CreateInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return apperr.Validationf("question text required")
	}
	switch in.Kind {
	case KindMCQ:
		if len(in.Options) < 2 {
			return apperr.Validationf("mcq question needs at least 2 options")
		}
		if in.CorrectOption == nil {
			return apperr.Validationf("mcq question needs a correct option")
		}
		if *in.CorrectOption < 0 || *in.CorrectOption >= len(in.Options) {
			return apperr.Validationf("correct option %d out of range", *in.CorrectOption)
		}
	case KindLong:
		// free text, nothing to key
	default:
		return apperr.Validationf("unknown question kind %q", in.Kind)
	}
	return nil
}

func normalizeAuthor(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
