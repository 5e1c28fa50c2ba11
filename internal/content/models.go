// Package content manages the course catalog: pharmacology modules and
// the lessons inside them.
package content

import "errors"

var (
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

type Module struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StudyYear   int    `json:"study_year,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	LessonCount int    `json:"lesson_count"`
}

type Lesson struct {
	ID          string `json:"id"`
	ModuleID    string `json:"module_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

type ModuleListOpts struct {
	StudyYear int // 0 = all years
	Query     string
	Limit     int
	Offset    int
}
