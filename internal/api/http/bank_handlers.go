package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/quiz"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/scoring"
)

type questionReq struct {
	Text        string `json:"text" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=QCMA QCMP QCS QROC"`
	Explanation string `json:"explanation"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ModuleID    string `json:"module_id"`
	LessonID    string `json:"lesson_id"`
	Active      *bool  `json:"active"`
	Options     []struct {
		ID      string `json:"id"`
		Text    string `json:"text" validate:"required"`
		Correct bool   `json:"correct"`
	} `json:"options" validate:"required,min=1,dive"`
}

func (req *questionReq) toQuestion(id string) (quiz.Question, error) {
	q := quiz.Question{
		ID:          id,
		Text:        strings.TrimSpace(req.Text),
		Type:        req.Type,
		Explanation: req.Explanation,
		Difficulty:  req.Difficulty,
		ModuleID:    req.ModuleID,
		LessonID:    req.LessonID,
		Active:      true,
		CreatedAt:   time.Now().Unix(),
	}
	if req.Active != nil {
		q.Active = *req.Active
	}
	correct := 0
	for i, o := range req.Options {
		if o.ID == "" {
			o.ID = "opt-" + uuid.NewString()
		}
		if o.Correct {
			correct++
		}
		q.Options = append(q.Options, quiz.Option{ID: o.ID, Text: o.Text, Correct: o.Correct, Position: i + 1})
	}
	switch q.Type {
	case scoring.TypeOpenResponse:
		if len(q.Options) != 1 || !q.Options[0].Correct {
			return q, errors.New("QROC needs exactly one reference answer option")
		}
	case scoring.TypeSingleChoice:
		if len(q.Options) < 2 || correct != 1 {
			return q, errors.New("QCS needs at least two options and exactly one correct")
		}
	default:
		if len(q.Options) < 2 || correct == 0 {
			return q, errors.New("choice questions need at least two options and a correct one")
		}
	}
	return q, nil
}

func CreateQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := req.toQuestion("q-" + uuid.NewString())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

func UpdateQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		existing, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		var req questionReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := req.toQuestion(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q.CreatedAt = existing.CreatedAt
		if err := store.PutQuestion(r.Context(), q); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func GetQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func ListQuestionsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageOpts(r)
		opts := quiz.BankListOpts{
			ModuleID:   r.URL.Query().Get("module_id"),
			LessonID:   r.URL.Query().Get("lesson_id"),
			Type:       r.URL.Query().Get("type"),
			Difficulty: r.URL.Query().Get("difficulty"),
			Q:          r.URL.Query().Get("q"),
			ActiveOnly: r.URL.Query().Get("active") == "1",
			Limit:      limit,
			Offset:     offset,
		}
		qs, err := store.ListQuestions(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		total, err := store.CountQuestions(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": total, "questions": qs})
	}
}

func SetQuestionActiveHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Active bool `json:"active"`
		}
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.SetQuestionActive(r.Context(), chi.URLParam(r, "questionID"), req.Active); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
