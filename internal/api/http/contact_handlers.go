package http

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pharmaprepa/pharmaprepa-lms/internal/notify"
	syncx "github.com/pharmaprepa/pharmaprepa-lms/internal/sync"
)

type contactReq struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required,min=10"`
}

// ContactHandler stores a contact-form message and forwards it by mail.
// Public, no auth.
func ContactHandler(db *sql.DB, mailer *notify.Mailer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := "msg-" + uuid.NewString()
		_, err := db.ExecContext(r.Context(), `
			INSERT INTO contact_messages (id, name, email, subject, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, req.Name, req.Email, req.Subject, req.Message, time.Now().Unix())
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		// Mail failures must not fail the request; the message is stored.
		if err := mailer.ContactReceived(req.Name, req.Email, req.Subject, req.Message); err != nil {
			log.Printf("contact: mail notify failed: %v", err)
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func ListContactMessagesHandler(db *sql.DB) http.HandlerFunc {
	type msg struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		Subject   string `json:"subject,omitempty"`
		Message   string `json:"message"`
		CreatedAt int64  `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageOpts(r)
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, name, email, subject, message, created_at
			  FROM contact_messages ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := make([]msg, 0, 16)
		for rows.Next() {
			var m msg
			if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			out = append(out, m)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ListEventsHandler exposes the event log for offline sync clients.
// ?since= is the last offset the caller has seen.
func ListEventsHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := int64(queryInt(r, "since", "0"))
		limit, _ := pageOpts(r)
		evs, err := events.ListSince(r.Context(), since, limit)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
