package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Lifecycle transitions worth an audit trail entry.
const (
	EventExamCreated      = "ExamCreated"
	EventAttemptSubmitted = "AttemptSubmitted"
	EventResultGraded     = "ResultGraded"
	EventExamEnded        = "ExamEnded"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: examID or attemptID
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// Record marshals payload and appends. Convenience for callers that hold
// a struct rather than pre-encoded JSON.
func (r *EventRepo) Record(ctx context.Context, typ, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.Append(ctx, Event{Type: typ, Key: key, DataJSON: string(data)})
}
