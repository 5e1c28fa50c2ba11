package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/pharmaprepa/pharmaprepa-lms/internal/auth/middleware"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/quiz"
)

func StartAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		att, err := store.StartAttempt(r.Context(), chi.URLParam(r, "quizID"), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		qz, err := store.GetQuiz(r.Context(), att.QuizID, false)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"attempt": att, "quiz": qz})
	}
}

type submitReq struct {
	// Answers may be empty: unanswered questions score zero.
	Answers []quiz.AnswerInput `json:"answers" validate:"dive"`
}

// SubmitAttemptHandler grades and finalizes the attempt. Re-submitting a
// graded attempt returns the stored result unchanged.
func SubmitAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		res, err := store.SubmitAttempt(r.Context(), chi.URLParam(r, "attemptID"), userID, req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// AttemptOwner reports whether the caller owns the attempt in the URL.
// Routes combine it with rbac.RequireOwnerOr("attempt:view-all", ...).
func AttemptOwner(store quiz.Store) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		att, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		return err == nil && att.UserID == authmw.SubjectFromContext(r.Context())
	}
}

// GetAttemptHandler returns attempt status, deadline included so clients
// can drive their countdown.
func GetAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		att, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, att)
	}
}

func GetAttemptResultHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := store.GetAttemptResult(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ListMyAttemptsHandler lists the caller's own attempts, newest first.
func ListMyAttemptsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageOpts(r)
		out, err := store.ListAttempts(r.Context(), quiz.AttemptListOpts{
			UserID: authmw.SubjectFromContext(r.Context()),
			QuizID: r.URL.Query().Get("quiz_id"),
			Status: r.URL.Query().Get("status"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ListAttemptsHandler is the teacher view across all users.
func ListAttemptsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageOpts(r)
		out, err := store.ListAttempts(r.Context(), quiz.AttemptListOpts{
			UserID: r.URL.Query().Get("user_id"),
			QuizID: r.URL.Query().Get("quiz_id"),
			Status: r.URL.Query().Get("status"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type revisionReq struct {
	Title         string   `json:"title"`
	ModuleIDs     []string `json:"module_ids"`
	LessonIDs     []string `json:"lesson_ids"`
	Types         []string `json:"types" validate:"omitempty,dive,oneof=QCMA QCMP QCS QROC"`
	Difficulty    string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	QuestionCount int      `json:"question_count" validate:"required,gte=5,lte=50"`
	TimeLimitMin  int      `json:"time_limit_min" validate:"gte=0,lte=480"`
}

// CreateRevisionHandler builds a one-off revision quiz from the bank and
// opens an attempt on it.
func CreateRevisionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revisionReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())
		sess, err := store.GenerateRevision(r.Context(), userID, quiz.RevisionOpts{
			Title:         req.Title,
			ModuleIDs:     req.ModuleIDs,
			LessonIDs:     req.LessonIDs,
			Types:         req.Types,
			Difficulty:    req.Difficulty,
			QuestionCount: req.QuestionCount,
			TimeLimitMin:  req.TimeLimitMin,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}
