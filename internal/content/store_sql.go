package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store persists modules and lessons. Placeholders are $N which both
// pgx and the modernc sqlite driver accept.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) PutModule(ctx context.Context, m *Module) error {
	if m.ID == "" {
		m.ID = "mod-" + uuid.NewString()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modules (id, name, description, study_year, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
		  name=EXCLUDED.name,
		  description=EXCLUDED.description,
		  study_year=EXCLUDED.study_year`,
		m.ID, m.Name, m.Description, m.StudyYear, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("put module: %w", err)
	}
	return nil
}

func (s *Store) GetModule(ctx context.Context, id string) (*Module, error) {
	var m Module
	err := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.name, m.description, m.study_year, m.created_at,
		       (SELECT COUNT(*) FROM lessons l WHERE l.module_id=m.id)
		  FROM modules m WHERE m.id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Description, &m.StudyYear, &m.CreatedAt, &m.LessonCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrModuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	return &m, nil
}

func (s *Store) ListModules(ctx context.Context, opts ModuleListOpts) ([]Module, error) {
	q := `
		SELECT m.id, m.name, m.description, m.study_year, m.created_at,
		       (SELECT COUNT(*) FROM lessons l WHERE l.module_id=m.id)
		  FROM modules m WHERE 1=1`
	var args []any
	if opts.StudyYear > 0 {
		args = append(args, opts.StudyYear)
		q += fmt.Sprintf(" AND m.study_year=$%d", len(args))
	}
	if s := strings.TrimSpace(opts.Query); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		q += fmt.Sprintf(" AND LOWER(m.name) LIKE $%d", len(args))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)
	q += fmt.Sprintf(" ORDER BY m.study_year, m.name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	out := make([]Module, 0, 16)
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.StudyYear, &m.CreatedAt, &m.LessonCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteModule removes a module; lessons cascade via the schema.
func (s *Store) DeleteModule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrModuleNotFound
	}
	return nil
}

func (s *Store) PutLesson(ctx context.Context, l *Lesson) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM modules WHERE id=$1)`, l.ModuleID).Scan(&exists); err != nil {
		return fmt.Errorf("put lesson: %w", err)
	}
	if !exists {
		return ErrModuleNotFound
	}
	if l.ID == "" {
		l.ID = "les-" + uuid.NewString()
		// new lessons go to the end of the module
		if l.Position == 0 {
			_ = s.db.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(position), 0) + 1 FROM lessons WHERE module_id=$1`,
				l.ModuleID).Scan(&l.Position)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lessons (id, module_id, title, description, position)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
		  module_id=EXCLUDED.module_id,
		  title=EXCLUDED.title,
		  description=EXCLUDED.description,
		  position=EXCLUDED.position`,
		l.ID, l.ModuleID, l.Title, l.Description, l.Position)
	if err != nil {
		return fmt.Errorf("put lesson: %w", err)
	}
	return nil
}

func (s *Store) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	var l Lesson
	err := s.db.QueryRowContext(ctx,
		`SELECT id, module_id, title, description, position FROM lessons WHERE id=$1`, id).
		Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &l, nil
}

func (s *Store) ListLessons(ctx context.Context, moduleID string) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, module_id, title, description, position
		  FROM lessons WHERE module_id=$1
		 ORDER BY position, title`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	out := make([]Lesson, 0, 16)
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.Position); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLessonNotFound
	}
	return nil
}

// ReorderLessons rewrites positions for the module from the given id
// order. IDs not listed keep their row but are pushed after the listed
// ones in their previous relative order.
func (s *Store) ReorderLessons(ctx context.Context, moduleID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reorder lessons: %w", err)
	}
	defer tx.Rollback()

	pos := 0
	for _, id := range ids {
		pos++
		res, err := tx.ExecContext(ctx,
			`UPDATE lessons SET position=$1 WHERE id=$2 AND module_id=$3`, pos, id, moduleID)
		if err != nil {
			return fmt.Errorf("reorder lessons: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrLessonNotFound
		}
	}

	listed := make(map[string]bool, len(ids))
	for _, id := range ids {
		listed[id] = true
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM lessons WHERE module_id=$1 ORDER BY position, title`, moduleID)
	if err != nil {
		return fmt.Errorf("reorder lessons: %w", err)
	}
	var rest []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !listed[id] {
			rest = append(rest, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range rest {
		pos++
		if _, err := tx.ExecContext(ctx,
			`UPDATE lessons SET position=$1 WHERE id=$2`, pos, id); err != nil {
			return fmt.Errorf("reorder lessons: %w", err)
		}
	}
	return tx.Commit()
}
