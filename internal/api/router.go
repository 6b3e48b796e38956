package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muaina/portal/internal/api/handlers"
	"github.com/muaina/portal/internal/api/middleware"
	"github.com/muaina/portal/internal/audit"
	"github.com/muaina/portal/internal/auth"
	"github.com/muaina/portal/internal/cache"
	"github.com/muaina/portal/internal/config"
	"github.com/muaina/portal/internal/obs"
	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/pdf"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/ratelimit"
	"github.com/muaina/portal/internal/registry"
	"github.com/muaina/portal/internal/report"
)

type Router struct {
	mux   *chi.Mux
	cfg   *config.Config
	db    *pgxpool.Pool
	store cache.Store
	queue *queue.Client
}

func NewRouter(cfg *config.Config, db *pgxpool.Pool, store cache.Store, qc *queue.Client) *Router {
	r := &Router{
		mux:   chi.NewRouter(),
		cfg:   cfg,
		db:    db,
		store: store,
		queue: qc,
	}
	r.setup()
	return r
}

func (r *Router) setup() {
	orgs := org.NewService(r.db)
	reports := report.NewService(report.NewPGStore(r.db))
	doctors := registry.NewService(r.db)
	audits := audit.NewService(r.db)
	sessions := auth.NewSessions(r.store, r.cfg.Auth.TokenTTL)
	limiter := ratelimit.New(r.store, slog.Default())

	jwtMw := auth.NewJWTMiddleware(r.cfg.Auth.JWTSecret, orgs, sessions)
	authRule := ratelimit.Rule{Window: r.cfg.RateLimit.AuthWindow, MaxRequests: r.cfg.RateLimit.AuthMaxRequests}
	apiRule := ratelimit.Rule{Window: r.cfg.RateLimit.APIWindow, MaxRequests: r.cfg.RateLimit.APIMaxRequests}

	healthHandler := handlers.NewHealthHandler(r.db, r.store)
	authHandler := handlers.NewAuthHandler(
		auth.NewHTTPProvider(r.cfg.Auth.ProviderURL),
		orgs, r.cfg.Auth.JWTSecret, r.cfg.Auth.TokenTTL, r.queue,
	)
	orgHandler := handlers.NewOrganizationHandler(orgs, r.queue)
	reportHandler := handlers.NewReportHandler(reports, pdf.NewRenderer(), r.queue, r.cfg.Export.Timeout)
	usageHandler := handlers.NewUsageHandler(reports, r.queue)
	patientHandler := handlers.NewPatientHandler(reports, r.queue)
	doctorHandler := handlers.NewDoctorHandler(doctors, r.queue)
	adminHandler := handlers.NewAdminHandler(audits, orgs, sessions, r.queue)

	r.mux.Use(chimiddleware.RequestID)
	r.mux.Use(chimiddleware.RealIP)
	r.mux.Use(middleware.Logging)
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(middleware.CORS(strings.Split(r.cfg.Server.AllowedOrigins, ",")))
	r.mux.Use(obs.Instrument)

	// Every request is counted before any handler runs. At this point no
	// principal exists yet, so the relaxed rule keys on client IP; the
	// authenticated group re-checks below keyed on the principal so a
	// NAT'd clinic doesn't share one budget.
	r.mux.Use(middleware.RateLimit(limiter, "api", apiRule))

	r.mux.Get("/healthz", healthHandler.Healthz)
	r.mux.Get("/readyz", healthHandler.Readyz)
	r.mux.Handle("/metrics", obs.Handler())

	r.mux.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/organizations", orgHandler.List)

		// Credential submission carries the strict per-IP budget.
		v1.With(middleware.RateLimit(limiter, "auth", authRule)).
			Post("/auth/login", authHandler.Login)

		v1.Group(func(protected chi.Router) {
			protected.Use(jwtMw.Authenticate)
			protected.Use(middleware.RateLimit(limiter, "api", apiRule))

			protected.Post("/organizations", orgHandler.Create)

			protected.Route("/reports", func(rr chi.Router) {
				rr.Post("/", reportHandler.Create)
				rr.Get("/", reportHandler.List)
				rr.Get("/{id}", reportHandler.Get)
				rr.Post("/{id}/review", reportHandler.Review)
				rr.Get("/{id}/pdf", reportHandler.Export)
				rr.Delete("/{id}", reportHandler.Delete)
			})

			protected.Get("/usage", usageHandler.Summary)
			protected.Get("/patients/classifications", patientHandler.Classifications)

			protected.Route("/doctors", func(dr chi.Router) {
				dr.Get("/", doctorHandler.List)
				dr.Post("/", doctorHandler.Create)
				dr.Delete("/{id}", doctorHandler.Delete)
			})

			protected.Route("/admin", func(ar chi.Router) {
				ar.Get("/audit", adminHandler.AuditLog)
				ar.Post("/users/{id}/deactivate", adminHandler.DeactivateUser)
			})
		})
	})
}

func (r *Router) Handler() http.Handler {
	return r.mux
}
