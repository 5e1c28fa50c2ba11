package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/scoring"
	syncx "github.com/pharmaprepa/pharmaprepa-lms/internal/sync"
)

// SQLStore backs the quiz domain with database/sql. Placeholders use
// the $N form, which both the pgx and modernc sqlite drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	engine *scoring.Engine
	events *syncx.EventRepo
}

func NewSQLStore(db *sql.DB, driver string, events *syncx.EventRepo) *SQLStore {
	return &SQLStore{db: db, driver: driver, engine: scoring.NewEngine(), events: events}
}

// --- Question bank ---

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	active := 0
	if q.Active {
		active = 1
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO question_bank
		(id,text,qtype,explanation,difficulty,module_id,lesson_id,active,options_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, qtype=EXCLUDED.qtype,
			explanation=EXCLUDED.explanation, difficulty=EXCLUDED.difficulty,
			module_id=EXCLUDED.module_id, lesson_id=EXCLUDED.lesson_id,
			active=EXCLUDED.active, options_json=EXCLUDED.options_json`,
		q.ID, q.Text, q.Type, q.Explanation, q.Difficulty, q.ModuleID, q.LessonID, active, string(oj), q.CreatedAt)
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,text,qtype,explanation,difficulty,module_id,lesson_id,active,options_json,created_at
		FROM question_bank WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	return q, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanQuestion(r rowScanner) (Question, error) {
	var q Question
	var active int
	var oj string
	if err := r.Scan(&q.ID, &q.Text, &q.Type, &q.Explanation, &q.Difficulty,
		&q.ModuleID, &q.LessonID, &active, &oj, &q.CreatedAt); err != nil {
		return Question{}, err
	}
	q.Active = active != 0
	if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
		return Question{}, err
	}
	return q, nil
}

func bankWhere(opts BankListOpts) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if opts.ModuleID != "" {
		add("module_id=$%d", opts.ModuleID)
	}
	if opts.LessonID != "" {
		add("lesson_id=$%d", opts.LessonID)
	}
	if opts.Type != "" {
		add("qtype=$%d", opts.Type)
	}
	if opts.Difficulty != "" {
		add("difficulty=$%d", opts.Difficulty)
	}
	if opts.Q != "" {
		add("LOWER(text) LIKE $%d", "%"+strings.ToLower(opts.Q)+"%")
	}
	if opts.ActiveOnly {
		conds = append(conds, "active=1")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// limitOffset appends LIMIT/OFFSET clauses. sqlite only accepts OFFSET
// after a LIMIT, so an offset-only listing gets an unbounded limit.
func limitOffset(q string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 && offset > 0 {
		limit = 1<<31 - 1
	}
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return q, args
}

func (s *SQLStore) ListQuestions(ctx context.Context, opts BankListOpts) ([]Question, error) {
	where, args := bankWhere(opts)
	q := `SELECT id,text,qtype,explanation,difficulty,module_id,lesson_id,active,options_json,created_at
		FROM question_bank` + where + ` ORDER BY created_at DESC, id`
	q, args = limitOffset(q, args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		qq, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qq)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountQuestions(ctx context.Context, opts BankListOpts) (int, error) {
	where, args := bankWhere(opts)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_bank`+where, args...).Scan(&n)
	return n, err
}

func (s *SQLStore) SetQuestionActive(ctx context.Context, id string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	res, err := s.db.ExecContext(ctx, `UPDATE question_bank SET active=$1 WHERE id=$2`, v, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM question_bank WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// --- Quizzes ---

func (s *SQLStore) PutQuiz(ctx context.Context, qz Quiz) error {
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
	_, err := s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,title,description,kind,time_limit_min,module_id,question_count,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			kind=EXCLUDED.kind, time_limit_min=EXCLUDED.time_limit_min,
			module_id=EXCLUDED.module_id, question_count=EXCLUDED.question_count`,
		qz.ID, qz.Title, qz.Description, qz.Kind, qz.TimeLimitMin, qz.ModuleID,
		qz.QuestionCount, qz.CreatedBy, qz.CreatedAt)
	if err != nil {
		return err
	}
	if len(qz.Questions) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quiz_questions WHERE quiz_id=$1`, qz.ID); err != nil {
		return err
	}
	for i, q := range qz.Questions {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO quiz_questions (quiz_id,question_id,position) VALUES ($1,$2,$3)`,
			qz.ID, q.ID, i+1); err != nil {
			return err
		}
	}
	s.append(ctx, "QuizCreated", qz.ID, map[string]any{"kind": qz.Kind, "questions": qz.QuestionCount})
	return nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string, withKeys bool) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,description,kind,time_limit_min,module_id,question_count,created_by,created_at
		FROM quizzes WHERE id=$1`, id)
	var qz Quiz
	if err := row.Scan(&qz.ID, &qz.Title, &qz.Description, &qz.Kind, &qz.TimeLimitMin,
		&qz.ModuleID, &qz.QuestionCount, &qz.CreatedBy, &qz.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT qb.id,qb.text,qb.qtype,qb.explanation,qb.difficulty,qb.module_id,qb.lesson_id,qb.active,qb.options_json,qb.created_at
		FROM quiz_questions qq JOIN question_bank qb ON qb.id = qq.question_id
		WHERE qq.quiz_id=$1 ORDER BY qq.position`, id)
	if err != nil {
		return Quiz{}, err
	}
	defer rows.Close()
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return Quiz{}, err
		}
		qz.Questions = append(qz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return Quiz{}, err
	}
	if !withKeys {
		qz.Questions = stripKeys(qz.Questions)
	}
	return qz, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts QuizListOpts) ([]Quiz, error) {
	var conds []string
	var args []any
	if opts.Kind != "" {
		args = append(args, opts.Kind)
		conds = append(conds, fmt.Sprintf("kind=$%d", len(args)))
	}
	if opts.ModuleID != "" {
		args = append(args, opts.ModuleID)
		conds = append(conds, fmt.Sprintf("module_id=$%d", len(args)))
	}
	q := `SELECT id,title,description,kind,time_limit_min,module_id,question_count,created_by,created_at FROM quizzes`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	q, args = limitOffset(q, args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		var qz Quiz
		if err := rows.Scan(&qz.ID, &qz.Title, &qz.Description, &qz.Kind, &qz.TimeLimitMin,
			&qz.ModuleID, &qz.QuestionCount, &qz.CreatedBy, &qz.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, qz)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuizNotFound
	}
	return nil
}

func (s *SQLStore) DuplicateQuiz(ctx context.Context, id, actor string) (Quiz, error) {
	src, err := s.GetQuiz(ctx, id, true)
	if err != nil {
		return Quiz{}, err
	}
	dup := src
	dup.ID = uuid.NewString()
	dup.Title = src.Title + " (copy)"
	dup.CreatedBy = actor
	dup.CreatedAt = time.Now().Unix()
	if err := s.PutQuiz(ctx, dup); err != nil {
		return Quiz{}, err
	}
	return s.GetQuiz(ctx, dup.ID, true)
}

func (s *SQLStore) Stats(ctx context.Context, quizID string) (QuizStats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(AVG(score),0), COALESCE(AVG(percentage),0)
		FROM attempts WHERE quiz_id=$1 AND status=$2`, quizID, StatusSubmitted)
	var st QuizStats
	if err := row.Scan(&st.Attempts, &st.AvgScore, &st.AvgPercentage); err != nil {
		return QuizStats{}, err
	}
	st.AvgScore = scoring.Round2(st.AvgScore)
	st.AvgPercentage = scoring.Round2(st.AvgPercentage)
	return st, nil
}

// --- Attempts ---

func (s *SQLStore) StartAttempt(ctx context.Context, quizID, userID string) (Attempt, error) {
	qz, err := s.GetQuiz(ctx, quizID, false)
	if err != nil {
		return Attempt{}, err
	}
	var live int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts WHERE quiz_id=$1 AND user_id=$2 AND status=$3`,
		quizID, userID, StatusInProgress).Scan(&live); err != nil {
		return Attempt{}, err
	}
	if live > 0 {
		return Attempt{}, ErrAttemptInProgress
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
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,quiz_id,user_id,status,score,max_score,percentage,started_at,deadline)
		VALUES ($1,$2,$3,$4,0,$5,0,$6,$7)`,
		a.ID, a.QuizID, a.UserID, a.Status, a.MaxScore, a.StartedAt, a.Deadline)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SubmitAttempt(ctx context.Context, attemptID, userID string, answers []AnswerInput) (AttemptResult, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return AttemptResult{}, err
	}
	if userID != "" && a.UserID != userID {
		return AttemptResult{}, ErrAttemptNotFound
	}
	if a.Status == StatusSubmitted {
		// Idempotent: a re-submit returns the stored result.
		return s.GetAttemptResult(ctx, attemptID)
	}
	if a.Status == StatusAbandoned {
		return AttemptResult{}, ErrAttemptFinished
	}

	qz, err := s.GetQuiz(ctx, a.QuizID, true)
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
	res := s.engine.ScoreAttempt(pairs)

	now := time.Now().Unix()
	pct := scoring.Round2(res.Percentage)
	if _, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status=$1, score=$2, max_score=$3, percentage=$4, finished_at=$5 WHERE id=$6`,
		StatusSubmitted, res.TotalScore, res.MaxScore, pct, now, attemptID); err != nil {
		return AttemptResult{}, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempt_answers WHERE attempt_id=$1`, attemptID); err != nil {
		return AttemptResult{}, err
	}
	out := AttemptResult{
		AttemptID:    attemptID,
		QuizID:       qz.ID,
		Title:        qz.Title,
		Score:        res.TotalScore,
		MaxScore:     res.MaxScore,
		Percentage:   pct,
		CompletedAt:  now,
		TimeSpentMin: int((now - a.StartedAt + 30) / 60),
	}
	for i, q := range qz.Questions {
		qr := res.PerQuestion[i]
		in := byQuestion[q.ID]
		var sel string
		var text string
		if in != nil {
			sj, _ := json.Marshal(in.SelectedOptionIDs)
			sel = string(sj)
			text = in.TextAnswer
		} else {
			sel = "[]"
		}
		correct := 0
		if qr.Correct {
			correct = 1
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO attempt_answers
			(attempt_id,question_id,selected_json,text_answer,score,correct)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			attemptID, q.ID, sel, text, qr.Score, correct); err != nil {
			return AttemptResult{}, err
		}
		out.Questions = append(out.Questions, review(q, in, qr))
	}

	s.append(ctx, "AttemptSubmitted", attemptID, map[string]any{
		"quiz_id": qz.ID, "user_id": a.UserID, "score": res.TotalScore, "max_score": res.MaxScore,
	})
	return out, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,user_id,status,score,max_score,percentage,started_at,COALESCE(finished_at,0),deadline
		FROM attempts WHERE id=$1`, id)
	var a Attempt
	if err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.Score, &a.MaxScore,
		&a.Percentage, &a.StartedAt, &a.FinishedAt, &a.Deadline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) GetAttemptResult(ctx context.Context, id string) (AttemptResult, error) {
	a, err := s.GetAttempt(ctx, id)
	if err != nil {
		return AttemptResult{}, err
	}
	if a.Status != StatusSubmitted {
		return AttemptResult{}, ErrAttemptNotScored
	}
	qz, err := s.GetQuiz(ctx, a.QuizID, true)
	if err != nil {
		return AttemptResult{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT question_id,selected_json,text_answer,score,correct
		FROM attempt_answers WHERE attempt_id=$1`, id)
	if err != nil {
		return AttemptResult{}, err
	}
	defer rows.Close()
	type stored struct {
		in      AnswerInput
		score   float64
		correct bool
	}
	byQuestion := map[string]stored{}
	for rows.Next() {
		var qid, sel, text string
		var score float64
		var correct int
		if err := rows.Scan(&qid, &sel, &text, &score, &correct); err != nil {
			return AttemptResult{}, err
		}
		st := stored{score: score, correct: correct != 0}
		st.in = AnswerInput{QuestionID: qid, TextAnswer: text}
		_ = json.Unmarshal([]byte(sel), &st.in.SelectedOptionIDs)
		byQuestion[qid] = st
	}
	if err := rows.Err(); err != nil {
		return AttemptResult{}, err
	}

	out := AttemptResult{
		AttemptID:    a.ID,
		QuizID:       qz.ID,
		Title:        qz.Title,
		Score:        a.Score,
		MaxScore:     a.MaxScore,
		Percentage:   a.Percentage,
		CompletedAt:  a.FinishedAt,
		TimeSpentMin: int((a.FinishedAt - a.StartedAt + 30) / 60),
	}
	for _, q := range qz.Questions {
		st, ok := byQuestion[q.ID]
		var in *AnswerInput
		if ok {
			in = &st.in
		}
		out.Questions = append(out.Questions, review(q, in, scoring.QuestionResult{
			QuestionID: q.ID, Score: st.score, Correct: st.correct,
		}))
	}
	return out, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	var conds []string
	var args []any
	if opts.QuizID != "" {
		args = append(args, opts.QuizID)
		conds = append(conds, fmt.Sprintf("quiz_id=$%d", len(args)))
	}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		conds = append(conds, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	q := `SELECT id,quiz_id,user_id,status,score,max_score,percentage,started_at,COALESCE(finished_at,0),deadline FROM attempts`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY started_at DESC, id"
	q, args = limitOffset(q, args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.Score, &a.MaxScore,
			&a.Percentage, &a.StartedAt, &a.FinishedAt, &a.Deadline); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Revision sessions ---

func (s *SQLStore) GenerateRevision(ctx context.Context, userID string, opts RevisionOpts) (RevisionSession, error) {
	candidates, err := s.revisionCandidates(ctx, opts)
	if err != nil {
		return RevisionSession{}, err
	}
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
	if err := s.PutQuiz(ctx, qz); err != nil {
		return RevisionSession{}, err
	}
	a, err := s.StartAttempt(ctx, qz.ID, userID)
	if err != nil {
		return RevisionSession{}, err
	}
	qz.Questions = stripKeys(qz.Questions)
	return RevisionSession{Quiz: qz, Attempt: a}, nil
}

func (s *SQLStore) revisionCandidates(ctx context.Context, opts RevisionOpts) ([]Question, error) {
	var conds []string
	var args []any
	in := func(col string, vals []string) string {
		ph := make([]string, len(vals))
		for i, v := range vals {
			args = append(args, v)
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		return col + " IN (" + strings.Join(ph, ",") + ")"
	}
	conds = append(conds, "active=1")
	// Questions attached to a selected lesson or directly to a selected module.
	var scope []string
	if len(opts.LessonIDs) > 0 {
		scope = append(scope, in("lesson_id", opts.LessonIDs))
	}
	if len(opts.ModuleIDs) > 0 {
		scope = append(scope, in("module_id", opts.ModuleIDs))
		scope = append(scope, "lesson_id IN (SELECT id FROM lessons WHERE "+in("module_id", opts.ModuleIDs)+")")
	}
	if len(scope) > 0 {
		conds = append(conds, "("+strings.Join(scope, " OR ")+")")
	}
	if len(opts.Types) > 0 {
		conds = append(conds, in("qtype", opts.Types))
	}
	if opts.Difficulty != "" {
		args = append(args, opts.Difficulty)
		conds = append(conds, fmt.Sprintf("difficulty=$%d", len(args)))
	}
	q := `SELECT id,text,qtype,explanation,difficulty,module_id,lesson_id,active,options_json,created_at
		FROM question_bank WHERE ` + strings.Join(conds, " AND ")
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		qq, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qq)
	}
	return out, rows.Err()
}

// --- Maintenance ---

func (s *SQLStore) ExpireOverdueAttempts(ctx context.Context, now int64) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET status=$1, finished_at=$2
		WHERE status=$3 AND deadline > 0 AND deadline < $4`,
		StatusAbandoned, now, StatusInProgress, now)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLStore) append(ctx context.Context, typ, key string, data map[string]any) {
	if s.events == nil {
		return
	}
	buf, _ := json.Marshal(data)
	_ = s.events.Append(ctx, syncx.Event{Type: typ, Key: key, DataJSON: string(buf)})
}
