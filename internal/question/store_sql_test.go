package question

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/quizchamp/quizchamp/internal/apperr"
	"github.com/quizchamp/quizchamp/internal/db"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return NewSQLStore(dbh)
}

func intp(i int) *int { return &i }

func TestCreateValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{name: "empty text", in: CreateInput{Kind: KindMCQ, Text: " ", Options: []string{"a", "b"}, CorrectOption: intp(0)}},
		{name: "unknown kind", in: CreateInput{Kind: "truefalse", Text: "x"}},
		{name: "mcq one option", in: CreateInput{Kind: KindMCQ, Text: "x", Options: []string{"a"}, CorrectOption: intp(0)}},
		{name: "mcq no key", in: CreateInput{Kind: KindMCQ, Text: "x", Options: []string{"a", "b"}}},
		{name: "mcq key out of range", in: CreateInput{Kind: KindMCQ, Text: "x", Options: []string{"a", "b"}, CorrectOption: intp(2)}},
		{name: "mcq negative key", in: CreateInput{Kind: KindMCQ, Text: "x", Options: []string{"a", "b"}, CorrectOption: intp(-1)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tc.in); !apperr.IsValidation(err) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}
}

func TestCreateAndListByAuthor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mcq, err := store.Create(ctx, CreateInput{
		Kind: KindMCQ, Text: "pick one",
		Options: []string{"a", "b", "c"}, CorrectOption: intp(2),
		AuthorID: "Teacher@Example.com ",
	})
	if err != nil {
		t.Fatalf("create mcq: %v", err)
	}
	if mcq.AuthorID != "teacher@example.com" {
		t.Errorf("author not normalized: %q", mcq.AuthorID)
	}
	long, err := store.Create(ctx, CreateInput{
		Kind: KindLong, Text: "write an essay", AuthorID: "teacher@example.com",
	})
	if err != nil {
		t.Fatalf("create long: %v", err)
	}
	if long.CorrectOption != nil || long.Options != nil {
		t.Errorf("long question carries mcq fields: %+v", long)
	}
	// Options passed for a long question are discarded, not stored.
	stray, err := store.Create(ctx, CreateInput{
		Kind: KindLong, Text: "another", Options: []string{"x"}, CorrectOption: intp(0),
		AuthorID: "teacher@example.com",
	})
	if err != nil {
		t.Fatalf("create stray: %v", err)
	}
	if stray.CorrectOption != nil {
		t.Error("long question kept a correct option")
	}

	qs, err := store.ListByAuthor(ctx, "TEACHER@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("got %d questions, want 3", len(qs))
	}

	if qs2, _ := store.ListByAuthor(ctx, "other@example.com"); len(qs2) != 0 {
		t.Errorf("foreign author sees %d questions", len(qs2))
	}
}

func TestGetByIDsPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"first", "second", "third"} {
		q, err := store.Create(ctx, CreateInput{Kind: KindLong, Text: text, AuthorID: "t@x.com"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, q.ID)
	}

	reversed := []string{ids[2], ids[0], ids[1]}
	qs, err := store.GetByIDs(ctx, reversed)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for i, q := range qs {
		if q.ID != reversed[i] {
			t.Errorf("position %d: got %s, want %s", i, q.ID, reversed[i])
		}
	}

	if _, err := store.GetByIDs(ctx, []string{ids[0], "missing"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing id: got %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	q, err := store.Create(ctx, CreateInput{Kind: KindLong, Text: "bye", AuthorID: "t@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, q.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestStudentViewStripsKey(t *testing.T) {
	q := Question{ID: "q", Kind: KindMCQ, Options: []string{"a", "b"}, CorrectOption: intp(1)}
	sv := q.StudentView()
	if sv.CorrectOption != nil {
		t.Error("student view leaks correct option")
	}
	if q.CorrectOption == nil {
		t.Error("StudentView mutated the original")
	}
}
