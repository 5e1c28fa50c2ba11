package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	authmw "github.com/pharmaprepa/pharmaprepa-lms/internal/auth/middleware"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/config"
)

func oauthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// GET /auth/google/login -> redirect to Google's consent screen.
// The caller may pass ?redirect= with the page to return to afterwards.
func GoogleLoginHandler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := r.URL.Query().Get("redirect")
		if next == "" && r.Referer() != "" {
			next = r.Referer()
		}
		if next == "" {
			next = strings.TrimRight(cfg.PublicURL, "/") + "/"
		}
		if !sameOriginOrLocal(next, cfg.PublicURL) {
			http.Error(w, "bad redirect", http.StatusBadRequest)
			return
		}

		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     "pp_oauth_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})
		http.SetCookie(w, &http.Cookie{
			Name:     "pp_post_auth_redirect",
			Value:    url.QueryEscape(next),
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})

		http.Redirect(w, r, oauthConfig(cfg).AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusFound)
	}
}

// GET /auth/google/callback -> exchange the code, verify the id_token,
// upsert the user and mint an internal JWT.
func GoogleCallbackHandler(a *authmw.AuthService, db *sql.DB, cfg config.Config) http.HandlerFunc {
	type tokenInfo struct {
		Iss           string `json:"iss"`
		Aud           string `json:"aud"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Name          string `json:"name"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		if c, err := r.Cookie("pp_oauth_state"); err != nil || state == "" || c.Value != state {
			http.Error(w, "bad state", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		tok, err := oauthConfig(cfg).Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, "token exchange error", http.StatusBadGateway)
			return
		}
		idToken, _ := tok.Extra("id_token").(string)
		if idToken == "" {
			http.Error(w, "bad token response", http.StatusBadGateway)
			return
		}

		// Server-side verification via Google's tokeninfo endpoint.
		tiResp, err := http.Get("https://oauth2.googleapis.com/tokeninfo?id_token=" + url.QueryEscape(idToken))
		if err != nil {
			http.Error(w, "tokeninfo fetch error", http.StatusBadGateway)
			return
		}
		defer tiResp.Body.Close()
		var ti tokenInfo
		if err := json.NewDecoder(tiResp.Body).Decode(&ti); err != nil {
			http.Error(w, "tokeninfo parse error", http.StatusBadGateway)
			return
		}
		if ti.Aud != cfg.GoogleClientID {
			http.Error(w, "invalid aud", http.StatusUnauthorized)
			return
		}
		if ti.Iss != "accounts.google.com" && ti.Iss != "https://accounts.google.com" {
			http.Error(w, "invalid iss", http.StatusUnauthorized)
			return
		}

		// New Google users become students; an existing row keeps its role.
		role := "student"
		username := ti.Email
		userID := "google|" + ti.Sub

		var existingID, existingRole string
		err = db.QueryRowContext(r.Context(),
			`SELECT id, role FROM users WHERE username=$1`, username).Scan(&existingID, &existingRole)
		switch {
		case err == sql.ErrNoRows:
			_, _ = db.ExecContext(r.Context(),
				`INSERT INTO users (id, username, role, password_hash, study_year, created_at) VALUES ($1, $2, $3, '', 0, $4)`,
				userID, username, role, time.Now().Unix())
		case err == nil:
			if existingRole != "" {
				role = existingRole
			}
			userID = existingID
		}

		jwtTok, err := a.IssueJWT(userID, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}

		target := ""
		if c, err := r.Cookie("pp_post_auth_redirect"); err == nil {
			if raw, _ := url.QueryUnescape(c.Value); raw != "" {
				target = raw
			}
		}
		if target == "" || !sameOriginOrLocal(target, cfg.PublicURL) {
			target = strings.TrimRight(cfg.PublicURL, "/") + "/"
		}

		http.SetCookie(w, &http.Cookie{Name: "pp_oauth_state", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
		http.SetCookie(w, &http.Cookie{Name: "pp_post_auth_redirect", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})

		u, _ := url.Parse(target)
		q := u.Query()
		q.Set("access_token", jwtTok)
		u.RawQuery = q.Encode()
		http.Redirect(w, r, u.String(), http.StatusFound)
	}
}

func sameOriginOrLocal(target, publicURL string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if u.Host == "" || strings.HasPrefix(u.Host, "localhost") {
		return true
	}
	base, err := url.Parse(publicURL)
	if err != nil || base.Host == "" {
		return true
	}
	return u.Scheme == base.Scheme && u.Host == base.Host
}
