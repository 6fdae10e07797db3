package grading

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	ID            string
	Kind          string // mcq|long
	CorrectOption *int   // nil for long
}

// Result is the outcome of grading a single question response.
type Result struct {
	AutoPoints  float64 // points awarded automatically
	MaxPoints   float64 // weight the question carries at submission time
	NeedsManual bool    // true if teacher review is required
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

// Grader routes by question kind to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response string) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response string) (Result, error) {
	s, ok := g.strategies[q.Kind]
	if !ok {
		return Result{NeedsManual: true}, nil
	}
	return s.Grade(ctx, q, response)
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			"mcq":  mcqStrategy{},
			"long": longStrategy{},
		},
	}
}

type mcqStrategy struct{}

// Grade compares the canonical string form of the submitted index against
// the stored correct index. Clients send indices as strings or numbers;
// CanonicalAnswer has already reduced both sides to trimmed strings, so
// "1" matches a stored correctOption of 1.
func (mcqStrategy) Grade(_ context.Context, q Q, response string) (Result, error) {
	res := Result{MaxPoints: 1}
	if q.CorrectOption == nil {
		return res, errors.New("mcq question has no answer key")
	}
	if strings.TrimSpace(response) == strconv.Itoa(*q.CorrectOption) {
		res.AutoPoints = 1
	}
	return res, nil
}

type longStrategy struct{}

// Long answers contribute nothing at submission time; a teacher supplies
// marks afterwards via ManualMarks.
func (longStrategy) Grade(_ context.Context, q Q, response string) (Result, error) {
	return Result{NeedsManual: true}, nil
}

// Breakdown is the objective part of an attempt's score.
type Breakdown struct {
	MCQScore      float64 `json:"mcq_score"`
	TotalMCQMarks float64 `json:"total_mcq_marks"`
}

// AutoGrade scores the objective questions of an exam. It is a pure
// function of (questions, answers): each mcq contributes one mark to the
// total and one point to the score iff the submitted index matches.
func AutoGrade(ctx context.Context, g Grader, questions []Q, answers map[string]string) (Breakdown, error) {
	var bd Breakdown
	for _, q := range questions {
		res, err := g.Grade(ctx, q, answers[q.ID])
		if err != nil {
			return Breakdown{}, err
		}
		bd.TotalMCQMarks += res.MaxPoints
		bd.MCQScore += res.AutoPoints
	}
	return bd, nil
}

// ManualMarks clamps teacher-supplied long-answer marks. Negative input
// clamps to zero; max bounds the award when positive (0 leaves it open).
func ManualMarks(raw, max float64) float64 {
	if raw < 0 {
		raw = 0
	}
	if max > 0 && raw > max {
		raw = max
	}
	return raw
}

// FinalScore combines the objective score with manually awarded marks.
// Assignment, not accumulation: re-grading with the same marks yields the
// same final score.
func FinalScore(mcqScore, longMarks float64) float64 {
	return mcqScore + longMarks
}

// CanonicalAnswer reduces a submitted answer value to the stored string
// form. JSON clients may send an mcq index as a number or a string.
func CanonicalAnswer(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return ""
	}
}

// CanonicalAnswers applies CanonicalAnswer across a raw answers payload.
func CanonicalAnswers(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = CanonicalAnswer(v)
	}
	return out
}
