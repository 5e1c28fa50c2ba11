package scoring

// Question types as stored in the question bank.
const (
	TypeAllOrNothing  = "QCMA" // multiple choice, exact set required
	TypePartialCredit = "QCMP" // multiple choice, partial credit
	TypeSingleChoice  = "QCS"  // single choice
	TypeOpenResponse  = "QROC" // short free-text response
)

type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is the minimal view of a bank question needed for scoring.
type Question struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Options []Option `json:"options"`
}

// Answer is one respondent's answer to a single question.
// SelectedOptionIDs applies to choice types, TextAnswer to QROC.
type Answer struct {
	QuestionID        string   `json:"question_id"`
	SelectedOptionIDs []string `json:"selected_option_ids"`
	TextAnswer        string   `json:"text_answer,omitempty"`
}

// Result is the outcome for a single question. Every question is worth
// one point, so Score is always in [0,1] and Correct means Score == 1.
type Result struct {
	Score   float64 `json:"score"`
	Correct bool    `json:"correct"`
}

// Graded pairs a question with the answer given for it. A nil Answer
// means the question was left unanswered.
type Graded struct {
	Question Question
	Answer   *Answer
}

type QuestionResult struct {
	QuestionID string  `json:"question_id"`
	Score      float64 `json:"score"`
	Correct    bool    `json:"correct"`
}

// AttemptResult aggregates one attempt. TotalScore is rounded to two
// decimals; Percentage is raw and callers apply their own rounding.
type AttemptResult struct {
	TotalScore  float64          `json:"total_score"`
	MaxScore    int              `json:"max_score"`
	Percentage  float64          `json:"percentage"`
	PerQuestion []QuestionResult `json:"per_question"`
}

// strategy scores a single question of one type.
type strategy interface {
	score(q Question, ans *Answer) Result
}

// Engine routes by question type to the correct strategy. It is pure:
// no I/O, no state, safe for concurrent use.
type Engine struct {
	strategies map[string]strategy
}

func NewEngine() *Engine {
	return &Engine{
		strategies: map[string]strategy{
			TypeAllOrNothing:  allOrNothingStrategy{},
			TypePartialCredit: partialCreditStrategy{},
			TypeSingleChoice:  singleChoiceStrategy{},
			TypeOpenResponse:  openResponseStrategy{},
		},
	}
}

// ScoreQuestion never fails: a missing answer, an unknown question type,
// or a malformed option set all degrade to a zero score. Callers that
// care about authoring defects (e.g. no correct option flagged) should
// log them; the engine itself stays silent.
func (e *Engine) ScoreQuestion(q Question, ans *Answer) Result {
	if ans == nil {
		return Result{}
	}
	s, ok := e.strategies[q.Type]
	if !ok {
		return Result{}
	}
	return s.score(q, ans)
}

// ScoreAttempt scores every pair in order. Each question is worth one
// point, so MaxScore is simply the number of pairs.
func (e *Engine) ScoreAttempt(pairs []Graded) AttemptResult {
	out := AttemptResult{
		MaxScore:    len(pairs),
		PerQuestion: make([]QuestionResult, 0, len(pairs)),
	}
	total := 0.0
	for _, p := range pairs {
		r := e.ScoreQuestion(p.Question, p.Answer)
		total += r.Score
		out.PerQuestion = append(out.PerQuestion, QuestionResult{
			QuestionID: p.Question.ID,
			Score:      r.Score,
			Correct:    r.Correct,
		})
	}
	out.TotalScore = Round2(total)
	if out.MaxScore > 0 {
		out.Percentage = out.TotalScore / float64(out.MaxScore) * 100
	}
	return out
}

var defaultEngine = NewEngine()

// ScoreQuestion scores with the default engine.
func ScoreQuestion(q Question, ans *Answer) Result { return defaultEngine.ScoreQuestion(q, ans) }

// ScoreAttempt scores with the default engine.
func ScoreAttempt(pairs []Graded) AttemptResult { return defaultEngine.ScoreAttempt(pairs) }

// --- Strategies ---

type allOrNothingStrategy struct{}

func (allOrNothingStrategy) score(q Question, ans *Answer) Result {
	correct := correctIDSet(q)
	selected := toSet(ans.SelectedOptionIDs)
	if len(correct) == 0 || !setEqual(selected, correct) {
		return Result{}
	}
	return Result{Score: 1, Correct: true}
}

type partialCreditStrategy struct{}

func (partialCreditStrategy) score(q Question, ans *Answer) Result {
	correct := correctIDSet(q)
	n := len(correct)
	if n == 0 {
		// authoring defect: no correct option flagged
		return Result{}
	}
	hits, misses := 0, 0
	for id := range toSet(ans.SelectedOptionIDs) {
		if _, ok := correct[id]; ok {
			hits++
		} else {
			misses++
		}
	}
	raw := float64(hits-misses) / float64(n)
	if raw < 0 {
		raw = 0
	}
	return Result{Score: raw, Correct: raw == 1}
}

type singleChoiceStrategy struct{}

// Only the first selected id is considered. The UI prevents
// multi-select for QCS; extra ids are ignored rather than rejected.
func (singleChoiceStrategy) score(q Question, ans *Answer) Result {
	if len(ans.SelectedOptionIDs) == 0 {
		return Result{}
	}
	picked := ans.SelectedOptionIDs[0]
	for _, o := range q.Options {
		if o.Correct {
			if picked == o.ID {
				return Result{Score: 1, Correct: true}
			}
			return Result{}
		}
	}
	return Result{}
}

type openResponseStrategy struct{}

// Exact match after trimming and lowercasing, against the text of the
// single option flagged correct. No fuzzy or partial matching.
func (openResponseStrategy) score(q Question, ans *Answer) Result {
	var ref string
	for _, o := range q.Options {
		if o.Correct {
			ref = o.Text
			break
		}
	}
	user := normalizeText(ans.TextAnswer)
	want := normalizeText(ref)
	if want == "" || user != want {
		return Result{}
	}
	return Result{Score: 1, Correct: true}
}

// --- helpers ---

func correctIDSet(q Question) map[string]struct{} {
	m := make(map[string]struct{})
	for _, o := range q.Options {
		if o.Correct {
			m[o.ID] = struct{}{}
		}
	}
	return m
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
