package question

// Kind of question. MCQ items are auto-graded at submission; long-answer
// items wait for manual marks.
const (
	KindMCQ  = "mcq"
	KindLong = "long"
)

type Question struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"` // mcq|long
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"` // mcq only, presentation order

	// CorrectOption indexes into Options. Nil for long-answer questions.
	// Omitted from the student-facing projection, see StudentView.
	CorrectOption *int `json:"correct_option,omitempty"`

	AuthorID  string `json:"author_id"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// StudentView strips the answer key. Served on the join path so a student
// client never sees correct indices.
func (q Question) StudentView() Question {
	q.CorrectOption = nil
	return q
}
