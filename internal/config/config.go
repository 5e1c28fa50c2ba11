package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	AuthHMACSecret string
	SiteID         string

	CORSOrigins []string

	// Cron spec for the overdue-attempt sweeper; empty disables it.
	SweepSpec string

	EnableGoogleAuth   bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// SendGrid contact notifications; empty key disables sending.
	SendgridAPIKey string
	ContactFrom    string
	ContactTo      string
}

func FromEnv() Config {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeDev
	}
	pub := os.Getenv("PUBLIC_URL")
	return Config{
		Mode:      mode,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: pub,

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		SiteID:         envOr("SITE_ID", "local"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		SweepSpec: envOr("ATTEMPT_SWEEP_SPEC", "@every 1m"),

		EnableGoogleAuth:   envBool("ENABLE_GOOGLE_AUTH", false),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  envOr("GOOGLE_REDIRECT_URI", strings.TrimSuffix(pub, "/")+"/auth/google/callback"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		ContactFrom:    envOr("CONTACT_FROM", "noreply@pharmaprepa.local"),
		ContactTo:      os.Getenv("CONTACT_TO"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
