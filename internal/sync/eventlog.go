package syncx

import (
	"context"
	"database/sql"
	"time"
)

// Event is one append-only audit record. Emitted on quiz creation and
// attempt submission; read back by the admin activity endpoint.
type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"` // e.g. AttemptSubmitted, QuizCreated
	Key       string `json:"key"`  // natural key: attempt or quiz id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// ListSince returns up to limit events after the given offset, oldest
// first, for admin activity feeds and offline sync.
func (r *EventRepo) ListSince(ctx context.Context, offset int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT "offset", site_id, typ, key, data, created_at FROM event_log
		 WHERE "offset" > $1 ORDER BY "offset" LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
