package quiz

import "github.com/pharmaprepa/pharmaprepa-lms/internal/scoring"

// Quiz kinds. Exams are authored; sessions are generated on demand from
// the question bank (revision quizzes).
const (
	KindExam    = "exam"
	KindSession = "session"
)

// Attempt statuses.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusAbandoned  = "abandoned"
)

type Option struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Correct  bool   `json:"correct,omitempty"`
	Position int    `json:"position,omitempty"`
}

// Question is a bank question. For QROC the single option flagged
// correct holds the reference answer text.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Type        string   `json:"type"` // QCMA|QCMP|QCS|QROC
	Explanation string   `json:"explanation,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"` // easy|medium|hard
	ModuleID    string   `json:"module_id,omitempty"`
	LessonID    string   `json:"lesson_id,omitempty"`
	Active      bool     `json:"active"`
	Options     []Option `json:"options,omitempty"`
	CreatedAt   int64    `json:"created_at,omitempty"`
}

type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Kind          string     `json:"kind"`
	TimeLimitMin  int        `json:"time_limit_min"`
	ModuleID      string     `json:"module_id,omitempty"`
	QuestionCount int        `json:"question_count"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedAt     int64      `json:"created_at,omitempty"`
	Questions     []Question `json:"questions,omitempty"`
}

type Attempt struct {
	ID         string  `json:"id"`
	QuizID     string  `json:"quiz_id"`
	UserID     string  `json:"user_id"`
	Status     string  `json:"status"`
	Score      float64 `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
	StartedAt  int64   `json:"started_at"`
	FinishedAt int64   `json:"finished_at,omitempty"`
	Deadline   int64   `json:"deadline,omitempty"` // unix, 0 = untimed
}

// AnswerInput is one submitted answer as it arrives from the client.
type AnswerInput struct {
	QuestionID        string   `json:"question_id"`
	SelectedOptionIDs []string `json:"selected_option_ids,omitempty"`
	TextAnswer        string   `json:"text_answer,omitempty"`
}

// QuestionReview is the per-question breakdown shown after submission.
type QuestionReview struct {
	QuestionID    string   `json:"question_id"`
	QuestionText  string   `json:"question_text"`
	QuestionType  string   `json:"question_type"`
	UserAnswer    []string `json:"user_answer"`
	CorrectAnswer []string `json:"correct_answer"`
	Correct       bool     `json:"correct"`
	Score         float64  `json:"score"`
	MaxScore      float64  `json:"max_score"`
	Explanation   string   `json:"explanation,omitempty"`
}

type AttemptResult struct {
	AttemptID    string           `json:"attempt_id"`
	QuizID       string           `json:"quiz_id"`
	Title        string           `json:"title"`
	Score        float64          `json:"score"`
	MaxScore     int              `json:"max_score"`
	Percentage   float64          `json:"percentage"`
	CompletedAt  int64            `json:"completed_at"`
	TimeSpentMin int              `json:"time_spent_min"`
	Questions    []QuestionReview `json:"questions"`
}

// RevisionSession is a freshly generated revision quiz plus the attempt
// opened for it. Quiz questions are student-safe (no correctness flags).
type RevisionSession struct {
	Quiz    Quiz    `json:"quiz"`
	Attempt Attempt `json:"attempt"`
}

const noAnswerText = "no answer"

// scoringQuestion converts a bank question to the engine's view.
func scoringQuestion(q Question) scoring.Question {
	sq := scoring.Question{ID: q.ID, Type: q.Type, Options: make([]scoring.Option, 0, len(q.Options))}
	for _, o := range q.Options {
		sq.Options = append(sq.Options, scoring.Option{ID: o.ID, Text: o.Text, Correct: o.Correct})
	}
	return sq
}

// review builds the per-question breakdown for one graded question.
func review(q Question, in *AnswerInput, r scoring.QuestionResult) QuestionReview {
	rv := QuestionReview{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		QuestionType: q.Type,
		Correct:      r.Correct,
		Score:        r.Score,
		MaxScore:     1,
		Explanation:  q.Explanation,
	}
	for _, o := range q.Options {
		if o.Correct {
			rv.CorrectAnswer = append(rv.CorrectAnswer, o.Text)
		}
	}
	if in == nil {
		rv.UserAnswer = []string{noAnswerText}
		return rv
	}
	if q.Type == scoring.TypeOpenResponse {
		if in.TextAnswer == "" {
			rv.UserAnswer = []string{noAnswerText}
		} else {
			rv.UserAnswer = []string{in.TextAnswer}
		}
		return rv
	}
	for _, id := range in.SelectedOptionIDs {
		text := "unknown option"
		for _, o := range q.Options {
			if o.ID == id {
				text = o.Text
				break
			}
		}
		rv.UserAnswer = append(rv.UserAnswer, text)
	}
	if len(rv.UserAnswer) == 0 {
		rv.UserAnswer = []string{noAnswerText}
	}
	return rv
}

// stripKeys hides correctness flags and explanations from students.
func stripKeys(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		q.Explanation = ""
		opts := make([]Option, len(q.Options))
		for j, o := range q.Options {
			o.Correct = false
			opts[j] = o
		}
		q.Options = opts
		out[i] = q
	}
	return out
}
