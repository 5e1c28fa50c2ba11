package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/scoring"
)

func seedStore(t *testing.T) (Store, Quiz) {
	t.Helper()
	s := NewInMemoryStore()
	ctx := context.Background()

	questions := []Question{
		{
			ID: "q-qcma", Text: "Which are beta-lactams?", Type: scoring.TypeAllOrNothing, Active: true,
			Options: []Option{
				{ID: "a1", Text: "Penicillin", Correct: true},
				{ID: "a2", Text: "Cephalexin", Correct: true},
				{ID: "a3", Text: "Erythromycin"},
			},
		},
		{
			ID: "q-qcmp", Text: "Select ACE inhibitors", Type: scoring.TypePartialCredit, Active: true,
			Options: []Option{
				{ID: "b1", Text: "Lisinopril", Correct: true},
				{ID: "b2", Text: "Ramipril", Correct: true},
				{ID: "b3", Text: "Losartan"},
				{ID: "b4", Text: "Amlodipine"},
			},
		},
		{
			ID: "q-qcs", Text: "First-line for anaphylaxis?", Type: scoring.TypeSingleChoice, Active: true,
			Options: []Option{
				{ID: "c1", Text: "Adrenaline", Correct: true},
				{ID: "c2", Text: "Hydrocortisone"},
			},
		},
		{
			ID: "q-qroc", Text: "Name the penicillin prototype", Type: scoring.TypeOpenResponse, Active: true,
			Options: []Option{{ID: "d1", Text: "Penicillin", Correct: true}},
		},
	}
	for _, q := range questions {
		if err := s.PutQuestion(ctx, q); err != nil {
			t.Fatalf("put question: %v", err)
		}
	}
	qz := Quiz{ID: "quiz-1", Title: "Pharmacology exam", Kind: KindExam, TimeLimitMin: 30, Questions: questions}
	if err := s.PutQuiz(ctx, qz); err != nil {
		t.Fatalf("put quiz: %v", err)
	}
	return s, qz
}

func TestGetQuiz_StripsAnswerKeys(t *testing.T) {
	s, qz := seedStore(t)
	got, err := s.GetQuiz(context.Background(), qz.ID, false)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(got.Questions) != 4 {
		t.Fatalf("questions: got %d, want 4", len(got.Questions))
	}
	for _, q := range got.Questions {
		if q.Explanation != "" {
			t.Fatalf("question %s leaked explanation", q.ID)
		}
		for _, o := range q.Options {
			if o.Correct {
				t.Fatalf("question %s leaked correctness flag on option %s", q.ID, o.ID)
			}
		}
	}
}

func TestAttemptFlow_SubmitAndResult(t *testing.T) {
	s, qz := seedStore(t)
	ctx := context.Background()

	a, err := s.StartAttempt(ctx, qz.ID, "student-1")
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if a.Status != StatusInProgress || a.MaxScore != 4 || a.Deadline == 0 {
		t.Fatalf("unexpected attempt: %+v", a)
	}

	// second live attempt is rejected
	if _, err := s.StartAttempt(ctx, qz.ID, "student-1"); !errors.Is(err, ErrAttemptInProgress) {
		t.Fatalf("second start: got %v, want ErrAttemptInProgress", err)
	}

	answers := []AnswerInput{
		{QuestionID: "q-qcma", SelectedOptionIDs: []string{"a2", "a1"}},       // 1
		{QuestionID: "q-qcmp", SelectedOptionIDs: []string{"b1", "b3"}},       // (1-1)/2 = 0
		{QuestionID: "q-qcs", SelectedOptionIDs: []string{"c1"}},              // 1
		{QuestionID: "q-qroc", TextAnswer: "  PENICILLIN "},                   // 1
	}
	res, err := s.SubmitAttempt(ctx, a.ID, "student-1", answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 3 || res.MaxScore != 4 || res.Percentage != 75 {
		t.Fatalf("result: got score=%v max=%d pct=%v, want 3/4/75", res.Score, res.MaxScore, res.Percentage)
	}
	if len(res.Questions) != 4 {
		t.Fatalf("reviews: got %d, want 4", len(res.Questions))
	}
	if !res.Questions[0].Correct || res.Questions[1].Correct {
		t.Fatalf("review correctness wrong: %+v", res.Questions[:2])
	}
	if res.Questions[1].Score != 0 {
		t.Fatalf("qcmp review score: got %v, want 0", res.Questions[1].Score)
	}

	// resubmission is idempotent
	again, err := s.SubmitAttempt(ctx, a.ID, "student-1", nil)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.Score != res.Score || again.CompletedAt != res.CompletedAt {
		t.Fatalf("resubmit changed stored result: %+v vs %+v", again, res)
	}

	stored, err := s.GetAttemptResult(ctx, a.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if stored.Score != 3 || len(stored.Questions) != 4 {
		t.Fatalf("stored result: %+v", stored)
	}
}

func TestSubmitAttempt_UnansweredQuestionsScoreZero(t *testing.T) {
	s, qz := seedStore(t)
	ctx := context.Background()
	a, _ := s.StartAttempt(ctx, qz.ID, "student-2")

	res, err := s.SubmitAttempt(ctx, a.ID, "student-2", []AnswerInput{
		{QuestionID: "q-qcs", SelectedOptionIDs: []string{"c1"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 1 || res.Percentage != 25 {
		t.Fatalf("got score=%v pct=%v, want 1/25", res.Score, res.Percentage)
	}
	for _, rv := range res.Questions {
		if rv.QuestionID != "q-qcs" && len(rv.UserAnswer) == 1 && rv.UserAnswer[0] != "no answer" {
			t.Fatalf("unanswered question %s: %+v", rv.QuestionID, rv.UserAnswer)
		}
	}
}

func TestSubmitAttempt_WrongUser(t *testing.T) {
	s, qz := seedStore(t)
	ctx := context.Background()
	a, _ := s.StartAttempt(ctx, qz.ID, "student-1")
	if _, err := s.SubmitAttempt(ctx, a.ID, "intruder", nil); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("got %v, want ErrAttemptNotFound", err)
	}
}

func TestGetAttemptResult_InProgress(t *testing.T) {
	s, qz := seedStore(t)
	ctx := context.Background()
	a, _ := s.StartAttempt(ctx, qz.ID, "student-1")
	if _, err := s.GetAttemptResult(ctx, a.ID); !errors.Is(err, ErrAttemptNotScored) {
		t.Fatalf("got %v, want ErrAttemptNotScored", err)
	}
}

func TestGenerateRevision(t *testing.T) {
	s, _ := seedStore(t)
	ctx := context.Background()

	// tag the seeded questions with a module
	for _, id := range []string{"q-qcma", "q-qcmp", "q-qcs", "q-qroc"} {
		q, _ := s.GetQuestion(ctx, id)
		q.ModuleID = "mod-pharm"
		if err := s.PutQuestion(ctx, q); err != nil {
			t.Fatalf("retag: %v", err)
		}
	}

	sess, err := s.GenerateRevision(ctx, "student-1", RevisionOpts{
		ModuleIDs:     []string{"mod-pharm"},
		QuestionCount: 3,
		TimeLimitMin:  15,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sess.Quiz.Kind != KindSession || len(sess.Quiz.Questions) != 3 {
		t.Fatalf("session quiz: %+v", sess.Quiz)
	}
	for _, q := range sess.Quiz.Questions {
		for _, o := range q.Options {
			if o.Correct {
				t.Fatalf("generated quiz leaked correctness flag")
			}
		}
	}
	if sess.Attempt.Status != StatusInProgress || sess.Attempt.QuizID != sess.Quiz.ID {
		t.Fatalf("session attempt: %+v", sess.Attempt)
	}

	// too many questions requested
	_, err = s.GenerateRevision(ctx, "student-1", RevisionOpts{
		ModuleIDs:     []string{"mod-pharm"},
		QuestionCount: 40,
	})
	if !errors.Is(err, ErrNotEnoughQuestions) {
		t.Fatalf("got %v, want ErrNotEnoughQuestions", err)
	}
}

func TestGenerateRevision_ModuleScopeIncludesLessonQuestions(t *testing.T) {
	s, _ := seedStore(t)
	ctx := context.Background()
	mem := s.(*memoryStore)
	mem.RegisterLesson("les-abx", "mod-pharm")

	// attached to the lesson only; the module link comes via the lesson
	for _, id := range []string{"l1", "l2", "l3", "l4", "l5"} {
		q := Question{
			ID: "q-" + id, Text: "Spectrum of " + id, Type: scoring.TypeSingleChoice,
			LessonID: "les-abx", Active: true,
			Options: []Option{
				{ID: id + "-a", Text: "Broad", Correct: true},
				{ID: id + "-b", Text: "Narrow"},
			},
		}
		if err := s.PutQuestion(ctx, q); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	sess, err := s.GenerateRevision(ctx, "student-1", RevisionOpts{
		ModuleIDs:     []string{"mod-pharm"},
		QuestionCount: 5,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(sess.Quiz.Questions) != 5 {
		t.Fatalf("questions: got %d, want 5", len(sess.Quiz.Questions))
	}
	for _, q := range sess.Quiz.Questions {
		if q.LessonID != "les-abx" {
			t.Fatalf("question %s outside the module scope", q.ID)
		}
	}
}

func TestExpireOverdueAttempts(t *testing.T) {
	s, qz := seedStore(t)
	ctx := context.Background()
	a, _ := s.StartAttempt(ctx, qz.ID, "student-1")

	// not yet overdue
	n, err := s.ExpireOverdueAttempts(ctx, a.StartedAt)
	if err != nil || n != 0 {
		t.Fatalf("early sweep: n=%d err=%v", n, err)
	}

	// far in the future: past the 30-minute deadline
	n, err = s.ExpireOverdueAttempts(ctx, a.StartedAt+3600)
	if err != nil || n != 1 {
		t.Fatalf("sweep: n=%d err=%v, want 1", n, err)
	}
	got, _ := s.GetAttempt(ctx, a.ID)
	if got.Status != StatusAbandoned {
		t.Fatalf("status: got %s, want abandoned", got.Status)
	}

	// abandoned attempts cannot be submitted
	if _, err := s.SubmitAttempt(ctx, a.ID, "student-1", nil); !errors.Is(err, ErrAttemptFinished) {
		t.Fatalf("submit after sweep: got %v, want ErrAttemptFinished", err)
	}
}

func TestQuizStats(t *testing.T) {
	s, qz := seedStore(t)
	ctx := context.Background()

	for i, user := range []string{"u1", "u2"} {
		a, err := s.StartAttempt(ctx, qz.ID, user)
		if err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		var answers []AnswerInput
		if i == 0 {
			answers = []AnswerInput{
				{QuestionID: "q-qcma", SelectedOptionIDs: []string{"a1", "a2"}},
				{QuestionID: "q-qcmp", SelectedOptionIDs: []string{"b1", "b2"}},
				{QuestionID: "q-qcs", SelectedOptionIDs: []string{"c1"}},
				{QuestionID: "q-qroc", TextAnswer: "penicillin"},
			}
		}
		if _, err := s.SubmitAttempt(ctx, a.ID, user, answers); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	st, err := s.Stats(ctx, qz.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Attempts != 2 {
		t.Fatalf("attempts: got %d, want 2", st.Attempts)
	}
	if st.AvgScore != 2 || st.AvgPercentage != 50 {
		t.Fatalf("averages: got %v/%v, want 2/50", st.AvgScore, st.AvgPercentage)
	}
}
