package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	authmw "github.com/pharmaprepa/pharmaprepa-lms/internal/auth/middleware"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/quiz"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/rbac"
)

func asUser(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := authmw.WithSubject(r.Context(), sub)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func seedRouter(t *testing.T, sub, role string) (chi.Router, quiz.Store, string) {
	t.Helper()
	store := quiz.NewInMemoryStore()
	ctx := context.Background()

	qcma := quiz.Question{
		ID: "q1", Text: "Which are beta-lactams?", Type: "QCMA", Active: true,
		Options: []quiz.Option{
			{ID: "a", Text: "Amoxicillin", Correct: true},
			{ID: "b", Text: "Gentamicin"},
		},
	}
	qroc := quiz.Question{
		ID: "q2", Text: "First-line for strep throat?", Type: "QROC", Active: true,
		Options: []quiz.Option{{ID: "ref", Text: "Amoxicillin", Correct: true}},
	}
	for _, q := range []quiz.Question{qcma, qroc} {
		if err := store.PutQuestion(ctx, q); err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	qz := quiz.Quiz{
		ID: "quiz-1", Title: "Antibiotics", Kind: quiz.KindExam,
		Questions: []quiz.Question{{ID: "q1"}, {ID: "q2"}},
	}
	if err := store.PutQuiz(ctx, qz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	r := chi.NewRouter()
	r.Use(asUser(sub, role))
	ownsAttempt := AttemptOwner(store)
	r.Get("/quizzes/{quizID}", GetQuizHandler(store))
	r.Post("/quizzes/{quizID}/attempts", StartAttemptHandler(store))
	r.Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(store))
	r.With(rbac.RequireOwnerOr("attempt:view-all", ownsAttempt)).
		Get("/attempts/{attemptID}", GetAttemptHandler(store))
	r.With(rbac.RequireOwnerOr("attempt:view-all", ownsAttempt)).
		Get("/attempts/{attemptID}/result", GetAttemptResultHandler(store))
	r.Post("/revision", CreateRevisionHandler(store))
	return r, store, qz.ID
}

func TestGetQuizHidesKeysFromStudents(t *testing.T) {
	r, _, quizID := seedRouter(t, "stu-1", "student")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/quizzes/"+quizID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var qz quiz.Quiz
	if err := json.Unmarshal(rec.Body.Bytes(), &qz); err != nil {
		t.Fatal(err)
	}
	for _, q := range qz.Questions {
		for _, o := range q.Options {
			if o.Correct {
				t.Fatalf("option %s leaked correctness to student payload", o.ID)
			}
		}
	}
}

func TestGetQuizKeepsKeysForTeachers(t *testing.T) {
	r, _, quizID := seedRouter(t, "tea-1", "teacher")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/quizzes/"+quizID, nil))
	var qz quiz.Quiz
	if err := json.Unmarshal(rec.Body.Bytes(), &qz); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, q := range qz.Questions {
		for _, o := range q.Options {
			found = found || o.Correct
		}
	}
	if !found {
		t.Fatal("teacher payload should include answer keys")
	}
}

func TestAttemptFlowOverHTTP(t *testing.T) {
	r, _, quizID := seedRouter(t, "stu-1", "student")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/quizzes/"+quizID+"/attempts", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var started struct {
		Attempt quiz.Attempt `json:"attempt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]any{
		"answers": []map[string]any{
			{"question_id": "q1", "selected_option_ids": []string{"a"}},
			{"question_id": "q2", "text_answer": "  AMOXICILLIN "},
		},
	})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/attempts/"+started.Attempt.ID+"/submit", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res quiz.AttemptResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Score != 2 || res.Percentage != 100 {
		t.Fatalf("score = %v%%, pct = %v, want 2 and 100", res.Score, res.Percentage)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/attempts/"+started.Attempt.ID+"/result", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("result: status = %d", rec.Code)
	}
}

func TestResultHiddenFromOtherStudents(t *testing.T) {
	r, store, quizID := seedRouter(t, "stu-2", "student")

	att, err := store.StartAttempt(context.Background(), quizID, "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.SubmitAttempt(context.Background(), att.ID, "stu-1", nil); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/attempts/"+att.ID+"/result", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestResultVisibleToTeachers(t *testing.T) {
	r, store, quizID := seedRouter(t, "tea-1", "teacher")

	att, err := store.StartAttempt(context.Background(), quizID, "stu-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.SubmitAttempt(context.Background(), att.ID, "stu-1", nil); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/attempts/"+att.ID+"/result", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRevisionRejectsBadCounts(t *testing.T) {
	r, _, _ := seedRouter(t, "stu-1", "student")

	for _, n := range []int{1, 4, 51} {
		body, _ := json.Marshal(map[string]any{"question_count": n})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("POST", "/revision", bytes.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("count %d: status = %d, want 400", n, rec.Code)
		}
	}
}
