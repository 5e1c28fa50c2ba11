package quiz

import (
	"context"
	"errors"
)

var (
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptFinished    = errors.New("attempt already finished")
	ErrAttemptNotScored   = errors.New("attempt not submitted yet")
	ErrAttemptInProgress  = errors.New("an attempt is already in progress")
	ErrNotEnoughQuestions = errors.New("not enough questions for the selected filters")
)

type BankListOpts struct {
	ModuleID   string
	LessonID   string
	Type       string
	Difficulty string
	Q          string // substring match on question text
	ActiveOnly bool
	Limit      int
	Offset     int
}

type QuizListOpts struct {
	Kind     string
	ModuleID string
	Limit    int
	Offset   int
}

type AttemptListOpts struct {
	QuizID string
	UserID string
	Status string
	Limit  int
	Offset int
}

// RevisionOpts selects bank questions for a generated session quiz.
type RevisionOpts struct {
	Title         string
	ModuleIDs     []string
	LessonIDs     []string
	Types         []string
	Difficulty    string
	QuestionCount int
	TimeLimitMin  int
}

type QuizStats struct {
	Attempts      int     `json:"attempts"`
	AvgScore      float64 `json:"avg_score"`
	AvgPercentage float64 `json:"avg_percentage"`
}

type Store interface {
	// Question bank
	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestions(ctx context.Context, opts BankListOpts) ([]Question, error)
	CountQuestions(ctx context.Context, opts BankListOpts) (int, error)
	SetQuestionActive(ctx context.Context, id string, active bool) error
	DeleteQuestion(ctx context.Context, id string) error

	// Quizzes
	PutQuiz(ctx context.Context, qz Quiz) error
	// GetQuiz returns the quiz with its questions. When withKeys is
	// false the questions are student-safe (no correctness flags).
	GetQuiz(ctx context.Context, id string, withKeys bool) (Quiz, error)
	ListQuizzes(ctx context.Context, opts QuizListOpts) ([]Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error
	DuplicateQuiz(ctx context.Context, id, actor string) (Quiz, error)
	Stats(ctx context.Context, quizID string) (QuizStats, error)

	// Attempt lifecycle
	StartAttempt(ctx context.Context, quizID, userID string) (Attempt, error)
	SubmitAttempt(ctx context.Context, attemptID, userID string, answers []AnswerInput) (AttemptResult, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	GetAttemptResult(ctx context.Context, id string) (AttemptResult, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// Revision sessions
	GenerateRevision(ctx context.Context, userID string, opts RevisionOpts) (RevisionSession, error)

	// ExpireOverdueAttempts abandons in-progress attempts whose deadline
	// passed. Returns the number of attempts swept.
	ExpireOverdueAttempts(ctx context.Context, now int64) (int, error)
}
