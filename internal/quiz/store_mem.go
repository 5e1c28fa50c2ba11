package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/scoring"
)

// memoryStore is a Store for tests and single-process demos.
type memoryStore struct {
	mu        sync.RWMutex
	engine    *scoring.Engine
	questions map[string]Question
	quizzes   map[string]Quiz
	attempts  map[string]Attempt
	results   map[string]AttemptResult
	lessons   map[string]string // lesson id -> module id, for revision scoping
}

func NewInMemoryStore() Store {
	return &memoryStore{
		engine:    scoring.NewEngine(),
		questions: map[string]Question{},
		quizzes:   map[string]Quiz{},
		attempts:  map[string]Attempt{},
		results:   map[string]AttemptResult{},
		lessons:   map[string]string{},
	}
}

// RegisterLesson teaches the store which module a lesson belongs to so
// module-scoped revision filters include lesson questions.
func (m *memoryStore) RegisterLesson(lessonID, moduleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessons[lessonID] = moduleID
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return q, nil
}

func (m *memoryStore) matchBank(q Question, opts BankListOpts) bool {
	if opts.ModuleID != "" && q.ModuleID != opts.ModuleID {
		return false
	}
	if opts.LessonID != "" && q.LessonID != opts.LessonID {
		return false
	}
	if opts.Type != "" && q.Type != opts.Type {
		return false
	}
	if opts.Difficulty != "" && q.Difficulty != opts.Difficulty {
		return false
	}
	if opts.Q != "" && !strings.Contains(strings.ToLower(q.Text), strings.ToLower(opts.Q)) {
		return false
	}
	if opts.ActiveOnly && !q.Active {
		return false
	}
	return true
}

func (m *memoryStore) ListQuestions(_ context.Context, opts BankListOpts) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, q := range m.questions {
		if m.matchBank(q, opts) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) CountQuestions(_ context.Context, opts BankListOpts) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.questions {
		if m.matchBank(q, opts) {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) SetQuestionActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return ErrQuestionNotFound
	}
	q.Active = active
	m.questions[id] = q
	return nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) PutQuiz(_ context.Context, qz Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if qz.ID == "" {
		qz.ID = uuid.NewString()
	}
	if qz.Kind == "" {
		qz.Kind = KindExam
	}
	if qz.CreatedAt == 0 {
		qz.CreatedAt = time.Now().Unix()
	}
	if len(qz.Questions) > 0 {
		qz.QuestionCount = len(qz.Questions)
	}
	// keep only question refs; bank is the source of truth
	refs := make([]Question, len(qz.Questions))
	for i, q := range qz.Questions {
		if _, ok := m.questions[q.ID]; !ok {
			m.questions[q.ID] = q
		}
		refs[i] = Question{ID: q.ID}
	}
	qz.Questions = refs
	m.quizzes[qz.ID] = qz
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string, withKeys bool) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getQuizLocked(id, withKeys)
}

func (m *memoryStore) getQuizLocked(id string, withKeys bool) (Quiz, error) {
	qz, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	qs := make([]Question, 0, len(qz.Questions))
	for _, ref := range qz.Questions {
		if q, ok := m.questions[ref.ID]; ok {
			qs = append(qs, q)
		}
	}
	if !withKeys {
		qs = stripKeys(qs)
	}
	qz.Questions = qs
	return qz, nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, opts QuizListOpts) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Quiz{}
	for _, qz := range m.quizzes {
		if opts.Kind != "" && qz.Kind != opts.Kind {
			continue
		}
		if opts.ModuleID != "" && qz.ModuleID != opts.ModuleID {
			continue
		}
		qz.Questions = nil
		out = append(out, qz)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return ErrQuizNotFound
	}
	delete(m.quizzes, id)
	return nil
}

func (m *memoryStore) DuplicateQuiz(ctx context.Context, id, actor string) (Quiz, error) {
	src, err := m.GetQuiz(ctx, id, true)
	if err != nil {
		return Quiz{}, err
	}
	dup := src
	dup.ID = uuid.NewString()
	dup.Title = src.Title + " (copy)"
	dup.CreatedBy = actor
	dup.CreatedAt = time.Now().Unix()
	if err := m.PutQuiz(ctx, dup); err != nil {
		return Quiz{}, err
	}
	return m.GetQuiz(ctx, dup.ID, true)
}

func (m *memoryStore) Stats(_ context.Context, quizID string) (QuizStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st QuizStats
	var scoreSum, pctSum float64
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.Status == StatusSubmitted {
			st.Attempts++
			scoreSum += a.Score
			pctSum += a.Percentage
		}
	}
	if st.Attempts > 0 {
		st.AvgScore = scoring.Round2(scoreSum / float64(st.Attempts))
		st.AvgPercentage = scoring.Round2(pctSum / float64(st.Attempts))
	}
	return st, nil
}

func (m *memoryStore) StartAttempt(_ context.Context, quizID, userID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qz, err := m.getQuizLocked(quizID, false)
	if err != nil {
		return Attempt{}, err
	}
	for _, a := range m.attempts {
		if a.QuizID == quizID && a.UserID == userID && a.Status == StatusInProgress {
			return Attempt{}, ErrAttemptInProgress
		}
	}
	now := time.Now().Unix()
	a := Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    StatusInProgress,
		MaxScore:  len(qz.Questions),
		StartedAt: now,
	}
	if qz.TimeLimitMin > 0 {
		a.Deadline = now + int64(qz.TimeLimitMin)*60
	}
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memoryStore) SubmitAttempt(_ context.Context, attemptID, userID string, answers []AnswerInput) (AttemptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return AttemptResult{}, ErrAttemptNotFound
	}
	if userID != "" && a.UserID != userID {
		return AttemptResult{}, ErrAttemptNotFound
	}
	if a.Status == StatusSubmitted {
		return m.results[attemptID], nil
	}
	if a.Status == StatusAbandoned {
		return AttemptResult{}, ErrAttemptFinished
	}
	qz, err := m.getQuizLocked(a.QuizID, true)
	if err != nil {
		return AttemptResult{}, err
	}

	byQuestion := make(map[string]*AnswerInput, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}
	pairs := make([]scoring.Graded, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		g := scoring.Graded{Question: scoringQuestion(q)}
		if in, ok := byQuestion[q.ID]; ok {
			g.Answer = &scoring.Answer{
				QuestionID:        in.QuestionID,
				SelectedOptionIDs: in.SelectedOptionIDs,
				TextAnswer:        in.TextAnswer,
			}
		}
		pairs = append(pairs, g)
	}
	res := m.engine.ScoreAttempt(pairs)

	now := time.Now().Unix()
	a.Status = StatusSubmitted
	a.Score = res.TotalScore
	a.MaxScore = res.MaxScore
	a.Percentage = scoring.Round2(res.Percentage)
	a.FinishedAt = now
	m.attempts[attemptID] = a

	out := AttemptResult{
		AttemptID:    attemptID,
		QuizID:       qz.ID,
		Title:        qz.Title,
		Score:        a.Score,
		MaxScore:     a.MaxScore,
		Percentage:   a.Percentage,
		CompletedAt:  now,
		TimeSpentMin: int((now - a.StartedAt + 30) / 60),
	}
	for i, q := range qz.Questions {
		out.Questions = append(out.Questions, review(q, byQuestion[q.ID], res.PerQuestion[i]))
	}
	m.results[attemptID] = out
	return out, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) GetAttemptResult(_ context.Context, id string) (AttemptResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return AttemptResult{}, ErrAttemptNotFound
	}
	if a.Status != StatusSubmitted {
		return AttemptResult{}, ErrAttemptNotScored
	}
	return m.results[id], nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt != out[j].StartedAt {
			return out[i].StartedAt > out[j].StartedAt
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) GenerateRevision(ctx context.Context, userID string, opts RevisionOpts) (RevisionSession, error) {
	m.mu.RLock()
	moduleSet := toStringSet(opts.ModuleIDs)
	lessonSet := toStringSet(opts.LessonIDs)
	typeSet := toStringSet(opts.Types)
	candidates := []Question{}
	for _, q := range m.questions {
		if !q.Active {
			continue
		}
		if len(moduleSet) > 0 || len(lessonSet) > 0 {
			_, inLesson := lessonSet[q.LessonID]
			_, inModule := moduleSet[q.ModuleID]
			if !inModule && q.LessonID != "" {
				_, inModule = moduleSet[m.lessons[q.LessonID]]
			}
			if !inLesson && !inModule {
				continue
			}
		}
		if len(typeSet) > 0 {
			if _, ok := typeSet[q.Type]; !ok {
				continue
			}
		}
		if opts.Difficulty != "" && q.Difficulty != opts.Difficulty {
			continue
		}
		candidates = append(candidates, q)
	}
	m.mu.RUnlock()

	if len(candidates) < opts.QuestionCount {
		return RevisionSession{}, ErrNotEnoughQuestions
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	picked := candidates[:opts.QuestionCount]

	title := opts.Title
	if title == "" {
		title = "Revision quiz"
	}
	qz := Quiz{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  fmt.Sprintf("Generated revision quiz with %d questions", opts.QuestionCount),
		Kind:         KindSession,
		TimeLimitMin: opts.TimeLimitMin,
		CreatedBy:    userID,
		Questions:    picked,
	}
	if err := m.PutQuiz(ctx, qz); err != nil {
		return RevisionSession{}, err
	}
	a, err := m.StartAttempt(ctx, qz.ID, userID)
	if err != nil {
		return RevisionSession{}, err
	}
	qz.Questions = stripKeys(picked)
	return RevisionSession{Quiz: qz, Attempt: a}, nil
}

func (m *memoryStore) ExpireOverdueAttempts(_ context.Context, now int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, a := range m.attempts {
		if a.Status == StatusInProgress && a.Deadline > 0 && a.Deadline < now {
			a.Status = StatusAbandoned
			a.FinishedAt = now
			m.attempts[id] = a
			n++
		}
	}
	return n, nil
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return []T{}
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func toStringSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v != "" {
			m[v] = struct{}{}
		}
	}
	return m
}
