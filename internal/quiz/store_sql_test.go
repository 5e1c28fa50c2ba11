package quiz

import (
	"context"
	"fmt"
	"testing"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/db"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/scoring"
)

func newSQLTestStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return NewSQLStore(dbh, "sqlite", nil)
}

func TestSQLStore_BankSearchIgnoresCase(t *testing.T) {
	s := newSQLTestStore(t)
	ctx := context.Background()

	for i, text := range []string{"Warfarin dosing", "Heparin monitoring"} {
		q := Question{
			ID: fmt.Sprintf("q-%d", i), Text: text, Type: scoring.TypeSingleChoice, Active: true,
			Options: []Option{
				{ID: fmt.Sprintf("o-%d-a", i), Text: "Yes", Correct: true},
				{ID: fmt.Sprintf("o-%d-b", i), Text: "No"},
			},
		}
		if err := s.PutQuestion(ctx, q); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	for _, needle := range []string{"warfarin", "WARFARIN", "Warfarin"} {
		got, err := s.ListQuestions(ctx, BankListOpts{Q: needle})
		if err != nil {
			t.Fatalf("list %q: %v", needle, err)
		}
		if len(got) != 1 || got[0].ID != "q-0" {
			t.Fatalf("search %q: got %d results, want q-0 only", needle, len(got))
		}
		n, err := s.CountQuestions(ctx, BankListOpts{Q: needle})
		if err != nil || n != 1 {
			t.Fatalf("count %q: n=%d err=%v, want 1", needle, n, err)
		}
	}
}

func TestSQLStore_ListQuestionsOffsetWithoutLimit(t *testing.T) {
	s := newSQLTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q := Question{
			ID: fmt.Sprintf("q-%d", i), Text: fmt.Sprintf("Question %d", i),
			Type: scoring.TypeSingleChoice, Active: true,
			CreatedAt: int64(100 + i),
			Options: []Option{
				{ID: fmt.Sprintf("o-%d-a", i), Text: "Yes", Correct: true},
				{ID: fmt.Sprintf("o-%d-b", i), Text: "No"},
			},
		}
		if err := s.PutQuestion(ctx, q); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	got, err := s.ListQuestions(ctx, BankListOpts{Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("offset-only list: got %d rows, want 3", len(got))
	}
	// newest first, so offset 2 starts at q-2
	if got[0].ID != "q-2" {
		t.Fatalf("first row: got %s, want q-2", got[0].ID)
	}
}
