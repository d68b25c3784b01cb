package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/auth"
	"github.com/bizdir/admin-server/internal/config"
	"github.com/bizdir/admin-server/internal/handler"
	"github.com/bizdir/admin-server/internal/httputil"
	"github.com/bizdir/admin-server/internal/jobs"
	"github.com/bizdir/admin-server/internal/metrics"
	"github.com/bizdir/admin-server/internal/middleware"
	"github.com/bizdir/admin-server/internal/redis"
	"github.com/bizdir/admin-server/internal/repository"
	"github.com/bizdir/admin-server/internal/scraper"
	"github.com/bizdir/admin-server/internal/service"
	"github.com/bizdir/admin-server/internal/storage"
)

// app is the wired HTTP surface plus the background job that shares its
// repositories. Nothing is started until main does so.
type app struct {
	router    http.Handler
	expiryJob *jobs.PartnershipExpiryJob
}

func newApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, reg *prometheus.Registry) (*app, error) {
	collector := metrics.NewCollector(reg)

	accountRepo := repository.NewAccountRepository(db)
	adminLogRepo := repository.NewAdminLogRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	imageRepo := repository.NewBusinessImageRepository(db)
	partnershipRepo := repository.NewPartnershipRepository(db)

	recorder := audit.NewRecorder(adminLogRepo, collector)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	revocations := auth.NewRevocationStore(redisClient)

	imageStore, err := storage.NewImageStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	metaScraper := scraper.New(scraper.NewSafeClient(config.ScraperFetchTimeout), collector)

	authService := service.NewAuthService(accountRepo, tokens, revocations, recorder, collector)
	accountService := service.NewAccountService(accountRepo, adminLogRepo, recorder)
	businessService := service.NewBusinessService(db, businessRepo, imageRepo, partnershipRepo, imageStore, recorder)
	partnershipService := service.NewPartnershipService(partnershipRepo, businessRepo, recorder)
	clinicService := service.NewClinicService(businessRepo, recorder)
	dashboardService := service.NewDashboardService(accountRepo, businessRepo, partnershipRepo, adminLogRepo)

	authMiddleware := middleware.NewAuthMiddleware(tokens, revocations)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0).WithMultipartLimit(config.MaxUploadBodySize)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.IsProduction())

	authHandler := handler.NewAuthHandler(authService, authMiddleware.Handler)
	businessHandler := handler.NewBusinessHandler(businessService, authMiddleware.Handler)
	userHandler := handler.NewUserHandler(accountService, authMiddleware.Handler)
	partnershipHandler := handler.NewPartnershipHandler(partnershipService, authMiddleware.Handler)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, authMiddleware.Handler)
	clinicHandler := handler.NewClinicHandler(clinicService, authMiddleware.Handler)
	metaHandler := handler.NewMetaHandler(metaScraper)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(cors.Handler(corsOptions(cfg)))
	r.Use(collector.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"ok":        true,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Handle("/metrics", metrics.Handler(reg))

	r.Handle(storage.URLPrefix+"/*", http.StripPrefix(storage.URLPrefix, http.FileServer(http.Dir(imageStore.Root()))))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow()))

		r.Mount("/admin/auth", authHandler.Routes())
		r.Route("/admin/businesses", func(r chi.Router) {
			r.Mount("/clinics", clinicHandler.Routes())
			r.Mount("/", businessHandler.Routes())
		})
		r.Mount("/admin/users", userHandler.Routes())
		r.Mount("/admin/partnerships", partnershipHandler.Routes())
		r.Mount("/admin/dashboard", dashboardHandler.Routes())
		r.Mount("/clinics", metaHandler.Routes())
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})

	return &app{
		router:    r,
		expiryJob: jobs.NewPartnershipExpiryJob(partnershipRepo, recorder, collector, config.PartnershipExpiryInterval),
	}, nil
}

func corsOptions(cfg *config.Config) cors.Options {
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: len(cfg.AllowedOrigins()) > 0,
		MaxAge:           300,
	}
}
