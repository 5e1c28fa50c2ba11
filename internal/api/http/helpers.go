// Package http holds the REST handlers. Routes are wired in cmd/gateway.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/content"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/quiz"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errStatus(err))
}

// decodeValid decodes JSON into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("bad json")
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound),
		errors.Is(err, quiz.ErrQuestionNotFound),
		errors.Is(err, quiz.ErrAttemptNotFound),
		errors.Is(err, content.ErrModuleNotFound),
		errors.Is(err, content.ErrLessonNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrAttemptFinished),
		errors.Is(err, quiz.ErrAttemptInProgress):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrAttemptNotScored),
		errors.Is(err, quiz.ErrNotEnoughQuestions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, key, def string) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		v = def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func pageOpts(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", "50")
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset = queryInt(r, "offset", "0")
	if offset < 0 {
		offset = 0
	}
	return
}
