package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/pharmaprepa/pharmaprepa-lms/internal/api/http"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/auth"
	authmw "github.com/pharmaprepa/pharmaprepa-lms/internal/auth/middleware"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/config"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/content"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/db"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/notify"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/quiz"
	"github.com/pharmaprepa/pharmaprepa-lms/internal/rbac"
	syncx "github.com/pharmaprepa/pharmaprepa-lms/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	store := quiz.NewSQLStore(dbh, cfg.DBDriver, events)
	catalog := content.NewStore(dbh)
	mailer := notify.NewMailer(cfg.SendgridAPIKey, cfg.ContactFrom, cfg.ContactTo)
	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret)

	// Abandon timed attempts whose deadline passed.
	if cfg.SweepSpec != "" {
		sweeper, err := quiz.NewSweeper(store, cfg.SweepSpec)
		if err != nil {
			log.Fatalf("sweeper: %v", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public surface
	r.Post("/auth/login", authmw.LoginHandler(authSvc, dbh))
	if cfg.EnableGoogleAuth {
		r.Get("/auth/google/login", auth.GoogleLoginHandler(cfg))
		r.Get("/auth/google/callback", auth.GoogleCallbackHandler(authSvc, dbh, cfg))
	}
	r.Post("/contact", api.ContactHandler(dbh, mailer))

	// Protected API: JWT -> role from DB -> RBAC per route.
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		pr.Use(authmw.AttachRoleFromDB(dbh, cfg.Mode == config.ModeDev))

		// Catalog
		pr.With(rbac.Require("module:view")).Get("/modules", api.ListModulesHandler(catalog))
		pr.With(rbac.Require("module:view")).Get("/modules/{moduleID}", api.GetModuleHandler(catalog))
		pr.With(rbac.Require("bank:manage")).Post("/modules", api.CreateModuleHandler(catalog))
		pr.With(rbac.Require("bank:manage")).Put("/modules/{moduleID}", api.UpdateModuleHandler(catalog))
		pr.With(rbac.Require("bank:manage")).Delete("/modules/{moduleID}", api.DeleteModuleHandler(catalog))
		pr.With(rbac.Require("lesson:view")).Get("/modules/{moduleID}/lessons", api.ListLessonsHandler(catalog))
		pr.With(rbac.Require("bank:manage")).Post("/modules/{moduleID}/lessons", api.CreateLessonHandler(catalog))
		pr.With(rbac.Require("bank:manage")).Post("/modules/{moduleID}/lessons/reorder", api.ReorderLessonsHandler(catalog))
		pr.With(rbac.Require("bank:manage")).Put("/lessons/{lessonID}", api.UpdateLessonHandler(catalog))
		pr.With(rbac.Require("bank:manage")).Delete("/lessons/{lessonID}", api.DeleteLessonHandler(catalog))

		// Question bank (teacher)
		pr.With(rbac.Require("bank:view")).Get("/questions", api.ListQuestionsHandler(store))
		pr.With(rbac.Require("bank:view")).Get("/questions/{questionID}", api.GetQuestionHandler(store))
		pr.With(rbac.Require("bank:manage")).Post("/questions", api.CreateQuestionHandler(store))
		pr.With(rbac.Require("bank:manage")).Put("/questions/{questionID}", api.UpdateQuestionHandler(store))
		pr.With(rbac.Require("bank:manage")).Post("/questions/{questionID}/active", api.SetQuestionActiveHandler(store))
		pr.With(rbac.Require("bank:manage")).Delete("/questions/{questionID}", api.DeleteQuestionHandler(store))

		// Quizzes
		pr.With(rbac.Require("quiz:view")).Get("/quizzes", api.ListQuizzesHandler(store))
		pr.With(rbac.Require("quiz:view")).Get("/quizzes/{quizID}", api.GetQuizHandler(store))
		pr.With(rbac.Require("quiz:create")).Post("/quizzes", api.CreateQuizHandler(store))
		pr.With(rbac.Require("quiz:create")).Post("/quizzes/{quizID}/duplicate", api.DuplicateQuizHandler(store))
		pr.With(rbac.Require("quiz:delete")).Delete("/quizzes/{quizID}", api.DeleteQuizHandler(store))
		pr.With(rbac.Require("quiz:stats")).Get("/quizzes/{quizID}/stats", api.QuizStatsHandler(store))

		// Attempts
		pr.With(rbac.Require("attempt:create")).Post("/quizzes/{quizID}/attempts", api.StartAttemptHandler(store))
		pr.With(rbac.Require("attempt:submit")).Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(store))
		ownsAttempt := api.AttemptOwner(store)
		pr.With(rbac.RequireOwnerOr("attempt:view-all", ownsAttempt)).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store))
		pr.With(rbac.RequireOwnerOr("attempt:view-all", ownsAttempt)).
			Get("/attempts/{attemptID}/result", api.GetAttemptResultHandler(store))
		pr.With(rbac.Require("attempt:view-own")).Get("/me/attempts", api.ListMyAttemptsHandler(store))
		pr.With(rbac.Require("attempt:view-all")).Get("/attempts", api.ListAttemptsHandler(store))

		// Revision sessions
		pr.With(rbac.Require("revision:create")).Post("/revision", api.CreateRevisionHandler(store))

		// Users
		pr.With(rbac.Require("users:list")).Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Admin
		pr.With(rbac.Require("contact:list")).Get("/contact", api.ListContactMessagesHandler(dbh))
		pr.With(rbac.Require("events:list")).Get("/events", api.ListEventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
