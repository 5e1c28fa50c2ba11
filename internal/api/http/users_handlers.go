package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type userRow struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	StudyYear int    `json:"study_year,omitempty"`
	Password  string `json:"password,omitempty"` // plaintext, hashed on import
}

// BulkUpsertUsersHandler imports a cohort. Accepts a JSON array in the
// body or a multipart file= upload (CSV or JSON).
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if seeker, ok := f.(io.Seeker); ok {
				_, _ = seeker.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseUsersCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(rows) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, username, role, study_year FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, username, role, study_year FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []userRow{}
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.StudyYear); err != nil {
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			out = append(out, u)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parseUsersCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"id", "username", "role"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{
			ID:       rec[idx["id"]],
			Username: rec[idx["username"]],
			Role:     strings.ToLower(rec[idx["role"]]),
		}
		if i, ok := idx["study_year"]; ok {
			row.StudyYear, _ = strconv.Atoi(rec[i])
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, r := range rows {
		if r.Role == "" {
			r.Role = "student"
		}
		if r.Role != "student" && r.Role != "teacher" && r.Role != "admin" {
			return inserted, updated, errors.New("invalid role: " + r.Role)
		}
		var phash string
		if r.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(r.Password), 12)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var exists bool
		if err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM users WHERE id=$1 OR username=$2`, r.ID, r.Username).Scan(new(int)); err == nil {
			exists = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, err
		}
		err = nil
		if exists {
			if phash != "" {
				_, err = tx.ExecContext(ctx,
					`UPDATE users SET username=$1, role=$2, study_year=$3, password_hash=$4 WHERE id=$5`,
					r.Username, r.Role, r.StudyYear, phash, r.ID)
			} else {
				_, err = tx.ExecContext(ctx,
					`UPDATE users SET username=$1, role=$2, study_year=$3 WHERE id=$4`,
					r.Username, r.Role, r.StudyYear, r.ID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		} else {
			if phash == "" {
				return inserted, updated, errors.New("password required for new user: " + r.Username)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, password_hash, role, study_year, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				r.ID, r.Username, phash, r.Role, r.StudyYear, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		}
	}
	return
}
