package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/content"
)

type moduleReq struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	StudyYear   int    `json:"study_year" validate:"gte=0,lte=6"`
}

func CreateModuleHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moduleReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m := content.Module{Name: req.Name, Description: req.Description, StudyYear: req.StudyYear}
		if err := store.PutModule(r.Context(), &m); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func UpdateModuleHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.GetModule(r.Context(), chi.URLParam(r, "moduleID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		var req moduleReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.Name, m.Description, m.StudyYear = req.Name, req.Description, req.StudyYear
		if err := store.PutModule(r.Context(), m); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func GetModuleHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.GetModule(r.Context(), chi.URLParam(r, "moduleID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func ListModulesHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageOpts(r)
		out, err := store.ListModules(r.Context(), content.ModuleListOpts{
			StudyYear: queryInt(r, "study_year", "0"),
			Query:     r.URL.Query().Get("q"),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteModuleHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteModule(r.Context(), chi.URLParam(r, "moduleID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type lessonReq struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Position    int    `json:"position" validate:"gte=0"`
}

func CreateLessonHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lessonReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		l := content.Lesson{
			ModuleID:    chi.URLParam(r, "moduleID"),
			Title:       req.Title,
			Description: req.Description,
			Position:    req.Position,
		}
		if err := store.PutLesson(r.Context(), &l); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func UpdateLessonHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := store.GetLesson(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		var req lessonReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		l.Title, l.Description = req.Title, req.Description
		if req.Position > 0 {
			l.Position = req.Position
		}
		if err := store.PutLesson(r.Context(), l); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func ListLessonsHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := store.ListLessons(r.Context(), chi.URLParam(r, "moduleID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteLessonHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteLesson(r.Context(), chi.URLParam(r, "lessonID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReorderLessonsHandler accepts the desired lesson id order for a module.
func ReorderLessonsHandler(store *content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LessonIDs []string `json:"lesson_ids" validate:"required,min=1,dive,required"`
		}
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.ReorderLessons(r.Context(), chi.URLParam(r, "moduleID"), req.LessonIDs); err != nil {
			writeErr(w, err)
			return
		}
		out, err := store.ListLessons(r.Context(), chi.URLParam(r, "moduleID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
