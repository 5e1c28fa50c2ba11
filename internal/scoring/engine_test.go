package scoring

import (
	"math"
	"testing"
)

func mcq(typ string, correct []string, wrong []string) Question {
	q := Question{ID: "q1", Type: typ}
	for _, id := range correct {
		q.Options = append(q.Options, Option{ID: id, Text: "opt " + id, Correct: true})
	}
	for _, id := range wrong {
		q.Options = append(q.Options, Option{ID: id, Text: "opt " + id})
	}
	return q
}

func picked(ids ...string) *Answer {
	return &Answer{QuestionID: "q1", SelectedOptionIDs: ids}
}

func TestScoreQuestion_AllOrNothing(t *testing.T) {
	q := mcq(TypeAllOrNothing, []string{"A", "B"}, []string{"C", "D"})

	tests := []struct {
		name    string
		ans     *Answer
		score   float64
		correct bool
	}{
		{"exact set", picked("A", "B"), 1, true},
		{"order irrelevant", picked("B", "A"), 1, true},
		{"proper subset", picked("A"), 0, false},
		{"superset", picked("A", "B", "C"), 0, false},
		{"disjoint", picked("C", "D"), 0, false},
		{"unknown id breaks equality", picked("A", "B", "zzz"), 0, false},
		{"empty selection", picked(), 0, false},
		{"no answer", nil, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreQuestion(q, tc.ans)
			if got.Score != tc.score || got.Correct != tc.correct {
				t.Fatalf("got score=%v correct=%v, want score=%v correct=%v",
					got.Score, got.Correct, tc.score, tc.correct)
			}
		})
	}
}

func TestScoreQuestion_PartialCredit(t *testing.T) {
	q := mcq(TypePartialCredit, []string{"A", "B", "C"}, []string{"D", "E"})

	tests := []struct {
		name    string
		ans     *Answer
		score   float64
		correct bool
	}{
		{"all correct", picked("A", "B", "C"), 1, true},
		{"two of three", picked("A", "B"), 2.0 / 3.0, false},
		{"two right one wrong", picked("A", "B", "D"), 1.0 / 3.0, false},
		{"floor at zero", picked("A", "D", "E"), 0, false}, // 1 hit, 2 misses -> -1/3 floored
		{"unknown ids count as wrong", picked("A", "B", "C", "x", "y", "z"), 0, false},
		{"empty selection", picked(), 0, false},
		{"no answer", nil, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreQuestion(q, tc.ans)
			if math.Abs(got.Score-tc.score) > 1e-9 || got.Correct != tc.correct {
				t.Fatalf("got score=%v correct=%v, want score=%v correct=%v",
					got.Score, got.Correct, tc.score, tc.correct)
			}
		})
	}
}

// Adding one more incorrect pick to an otherwise-correct answer must
// strictly decrease the score until it hits the zero floor.
func TestScoreQuestion_PartialCredit_MonotonicPenalty(t *testing.T) {
	q := mcq(TypePartialCredit, []string{"A", "B"}, []string{"w1", "w2", "w3"})

	sel := []string{"A", "B"}
	prev := ScoreQuestion(q, picked(sel...)).Score
	if prev != 1 {
		t.Fatalf("baseline: got %v, want 1", prev)
	}
	for _, wrong := range []string{"w1", "w2", "w3"} {
		sel = append(sel, wrong)
		got := ScoreQuestion(q, picked(sel...)).Score
		if got > prev || (prev > 0 && got >= prev) {
			t.Fatalf("after adding %s: score %v did not decrease from %v", wrong, got, prev)
		}
		if got < 0 {
			t.Fatalf("score went negative: %v", got)
		}
		prev = got
	}
}

func TestScoreQuestion_PartialCredit_NoCorrectOptions(t *testing.T) {
	q := mcq(TypePartialCredit, nil, []string{"A", "B"})
	got := ScoreQuestion(q, picked("A"))
	if got.Score != 0 || got.Correct {
		t.Fatalf("malformed question should score 0, got %+v", got)
	}
}

func TestScoreQuestion_SingleChoice(t *testing.T) {
	q := mcq(TypeSingleChoice, []string{"A"}, []string{"B", "C"})

	tests := []struct {
		name    string
		ans     *Answer
		score   float64
		correct bool
	}{
		{"correct pick", picked("A"), 1, true},
		{"wrong pick", picked("B"), 0, false},
		{"unknown id", picked("zzz"), 0, false},
		{"empty selection", picked(), 0, false},
		{"no answer", nil, 0, false},
		// Multi-select should be blocked by the UI; only the first id counts.
		{"first of several wins", picked("A", "B"), 1, true},
		{"wrong first loses", picked("B", "A"), 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreQuestion(q, tc.ans)
			if got.Score != tc.score || got.Correct != tc.correct {
				t.Fatalf("got score=%v correct=%v, want score=%v correct=%v",
					got.Score, got.Correct, tc.score, tc.correct)
			}
		})
	}
}

func TestScoreQuestion_OpenResponse(t *testing.T) {
	q := Question{ID: "q1", Type: TypeOpenResponse, Options: []Option{
		{ID: "ref", Text: "Penicillin", Correct: true},
	}}

	tests := []struct {
		name    string
		ans     *Answer
		score   float64
		correct bool
	}{
		{"exact", &Answer{TextAnswer: "Penicillin"}, 1, true},
		{"case and whitespace", &Answer{TextAnswer: "  penicillin "}, 1, true},
		{"wrong drug", &Answer{TextAnswer: "Amoxicillin"}, 0, false},
		{"near miss gets nothing", &Answer{TextAnswer: "penicilin"}, 0, false},
		{"empty text", &Answer{TextAnswer: ""}, 0, false},
		{"no answer", nil, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreQuestion(q, tc.ans)
			if got.Score != tc.score || got.Correct != tc.correct {
				t.Fatalf("got score=%v correct=%v, want score=%v correct=%v",
					got.Score, got.Correct, tc.score, tc.correct)
			}
		})
	}
}

func TestScoreQuestion_OpenResponse_NoReference(t *testing.T) {
	q := Question{ID: "q1", Type: TypeOpenResponse, Options: []Option{
		{ID: "a", Text: "not the key"},
	}}
	// No reference answer means nothing can match, including empty text.
	if got := ScoreQuestion(q, &Answer{TextAnswer: ""}); got.Score != 0 || got.Correct {
		t.Fatalf("got %+v, want zero", got)
	}
}

func TestScoreQuestion_UnknownType(t *testing.T) {
	q := mcq("ESSAY", []string{"A"}, nil)
	if got := ScoreQuestion(q, picked("A")); got.Score != 0 || got.Correct {
		t.Fatalf("unknown type should score 0, got %+v", got)
	}
}

func TestScoreQuestion_Idempotent(t *testing.T) {
	q := mcq(TypePartialCredit, []string{"A", "B", "C"}, []string{"D"})
	ans := picked("A", "B", "D")
	first := ScoreQuestion(q, ans)
	for i := 0; i < 10; i++ {
		if got := ScoreQuestion(q, ans); got != first {
			t.Fatalf("call %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestScoreAttempt(t *testing.T) {
	qcma := mcq(TypeAllOrNothing, []string{"A", "B"}, []string{"C"})
	qcmp := mcq(TypePartialCredit, []string{"A", "B"}, []string{"C", "D"})
	qcs := mcq(TypeSingleChoice, []string{"A"}, []string{"B"})

	pairs := []Graded{
		{Question: qcma, Answer: picked("A", "B")}, // 1
		{Question: qcmp, Answer: picked("A")},      // 1 hit over n=2 -> 0.5
		{Question: qcs, Answer: nil},               // 0
	}

	res := ScoreAttempt(pairs)
	if res.MaxScore != 3 {
		t.Fatalf("max score: got %d, want 3", res.MaxScore)
	}
	if res.TotalScore != 1.5 {
		t.Fatalf("total: got %v, want 1.5", res.TotalScore)
	}
	if res.Percentage != 50 {
		t.Fatalf("percentage: got %v, want 50", res.Percentage)
	}
	if len(res.PerQuestion) != 3 {
		t.Fatalf("per-question results: got %d, want 3", len(res.PerQuestion))
	}
	if !res.PerQuestion[0].Correct || res.PerQuestion[1].Correct || res.PerQuestion[2].Correct {
		t.Fatalf("per-question correctness wrong: %+v", res.PerQuestion)
	}
}

func TestScoreAttempt_RoundsTotalToTwoDecimals(t *testing.T) {
	q := mcq(TypePartialCredit, []string{"A", "B", "C"}, []string{"D"})
	pairs := []Graded{{Question: q, Answer: picked("A")}} // 1/3
	res := ScoreAttempt(pairs)
	if res.TotalScore != 0.33 {
		t.Fatalf("total: got %v, want 0.33", res.TotalScore)
	}
}

func TestScoreAttempt_Empty(t *testing.T) {
	res := ScoreAttempt(nil)
	if res.TotalScore != 0 || res.MaxScore != 0 || res.Percentage != 0 {
		t.Fatalf("empty attempt: got %+v, want zeros", res)
	}
}

// Total must equal the rounded sum of individual question scores.
func TestScoreAttempt_Additivity(t *testing.T) {
	qs := []Question{
		mcq(TypeAllOrNothing, []string{"A"}, []string{"B"}),
		mcq(TypePartialCredit, []string{"A", "B", "C"}, []string{"D"}),
		mcq(TypePartialCredit, []string{"A", "B", "C"}, []string{"D"}),
		mcq(TypeSingleChoice, []string{"A"}, []string{"B"}),
	}
	answers := []*Answer{picked("A"), picked("A", "B"), picked("A", "D"), picked("B")}

	pairs := make([]Graded, len(qs))
	sum := 0.0
	for i := range qs {
		pairs[i] = Graded{Question: qs[i], Answer: answers[i]}
		sum += ScoreQuestion(qs[i], answers[i]).Score
	}
	res := ScoreAttempt(pairs)
	if res.TotalScore != Round2(sum) {
		t.Fatalf("total: got %v, want %v", res.TotalScore, Round2(sum))
	}
}
