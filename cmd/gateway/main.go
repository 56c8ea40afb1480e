package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/campusgrid/examgate/internal/api/http"
	"github.com/campusgrid/examgate/internal/audit"
	auth "github.com/campusgrid/examgate/internal/auth/middleware"
	"github.com/campusgrid/examgate/internal/config"
	"github.com/campusgrid/examgate/internal/db"
	"github.com/campusgrid/examgate/internal/exam"
	"github.com/campusgrid/examgate/internal/logging"
	"github.com/campusgrid/examgate/internal/rbac"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	if err := seedAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		logger.Error("seed admin failed", "err", err)
		os.Exit(1)
	}

	store := exam.NewSQLStore(dbh, cfg.DBDriver)
	events := audit.NewLog(dbh)
	lifecycle := exam.NewLifecycle(store,
		exam.WithStrictSampling(cfg.SampleStrict),
		exam.WithRecorder(events),
	)
	reporter := exam.NewReporter(store)
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

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

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, true))

		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(store))
		pr.With(rbac.Require("course:list-own")).
			Get("/courses", api.ListCoursesHandler(store))
		pr.With(rbac.Require("course:enroll")).
			Post("/courses/{courseID}/participants", api.EnrollStudentsHandler(store))
		pr.With(rbac.Require("question:create")).
			Post("/courses/{courseID}/questions", api.CreateQuestionHandler(store))

		// Teacher exam lifecycle
		pr.With(rbac.Require("exam:list")).
			Get("/courses/{courseID}/exams", api.ListExamsHandler(store))
		pr.With(rbac.Require("exam:create")).
			Post("/courses/{courseID}/exams", api.CreateExamHandler(lifecycle, store))
		pr.With(rbac.Require("exam:edit")).
			Put("/courses/{courseID}/exams/{examID}", api.UpdateExamHandler(lifecycle))
		pr.With(rbac.Require("exam:edit")).
			Delete("/courses/{courseID}/exams/{examID}", api.DeleteExamHandler(lifecycle))
		pr.With(rbac.Require("scores:view-all")).
			Get("/courses/{courseID}/exams/{examID}/scores", api.ViewScoresHandler(reporter, store))

		// Student flow
		pr.With(rbac.Require("exam:view-own")).
			Get("/courses/{courseID}/exams/{examID}", api.ViewExamHandler(reporter, store))
		pr.With(rbac.Require("exam:take")).
			Get("/courses/{courseID}/exams/{examID}/take", api.TakeExamHandler(lifecycle, store))
		pr.With(rbac.Require("exam:take")).
			Post("/courses/{courseID}/exams/{examID}/take", api.SubmitExamHandler(lifecycle, store))

		// Users
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Audit
		pr.With(rbac.Require("audit:view")).
			Get("/events", api.ListEventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	logger.Info("listening", "addr", cfg.HTTPAddr, "db", cfg.DBDriver, "strict_sampling", cfg.SampleStrict)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// seedAdmin ensures the configured admin account exists. The password hash
// comes from the environment already bcrypt-encoded.
func seedAdmin(ctx context.Context, dbh *sql.DB, user, passHash string) error {
	_, err := dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at)
		 VALUES ($1,$2,$3,'admin',$4) ON CONFLICT (username) DO NOTHING`,
		"u-"+user, user, passHash, time.Now().Unix())
	return err
}
