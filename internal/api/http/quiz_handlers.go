package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/pharmaprepa/pharmaprepa-lms/internal/auth/middleware"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/quiz"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/rbac"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/scoring"
)

type quizReq struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	TimeLimitMin int      `json:"time_limit_min" validate:"gte=0,lte=480"`
	ModuleID     string   `json:"module_id"`
	QuestionIDs  []string `json:"question_ids" validate:"required,min=1,dive,required"`
}

func CreateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quizReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		qz := quiz.Quiz{
			ID:           "quiz-" + uuid.NewString(),
			Title:        req.Title,
			Description:  req.Description,
			Kind:         quiz.KindExam,
			TimeLimitMin: req.TimeLimitMin,
			ModuleID:     req.ModuleID,
			CreatedBy:    authmw.SubjectFromContext(r.Context()),
		}
		for _, id := range req.QuestionIDs {
			if _, err := store.GetQuestion(r.Context(), id); err != nil {
				writeErr(w, err)
				return
			}
			qz.Questions = append(qz.Questions, quiz.Question{ID: id})
		}
		if err := store.PutQuiz(r.Context(), qz); err != nil {
			writeErr(w, err)
			return
		}
		created, err := store.GetQuiz(r.Context(), qz.ID, true)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// GetQuizHandler returns the quiz. Answer keys and explanations are only
// included for roles allowed to manage the bank.
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withKeys := rbac.NewChecker(nil).Has(rbac.RoleFromContext(r.Context()), "bank:view")
		qz, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"), withKeys)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qz)
	}
}

func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageOpts(r)
		out, err := store.ListQuizzes(r.Context(), quiz.QuizListOpts{
			Kind:     r.URL.Query().Get("kind"),
			ModuleID: r.URL.Query().Get("module_id"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DuplicateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dup, err := store.DuplicateQuiz(r.Context(), chi.URLParam(r, "quizID"),
			authmw.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, dup)
	}
}

func QuizStatsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Stats(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		st.AvgScore = scoring.Round2(st.AvgScore)
		st.AvgPercentage = scoring.Round2(st.AvgPercentage)
		writeJSON(w, http.StatusOK, st)
	}
}
