package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matijepekovic/pricer-api/internal/catalog"
	"github.com/matijepekovic/pricer-api/internal/config"
	"github.com/matijepekovic/pricer-api/internal/events"
	"github.com/matijepekovic/pricer-api/internal/health"
	"github.com/matijepekovic/pricer-api/internal/obs"
	"github.com/matijepekovic/pricer-api/internal/prospect"
	"github.com/matijepekovic/pricer-api/internal/quote"
	"github.com/matijepekovic/pricer-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pricer")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	fileStore, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("open data dir")
	}

	bus := &events.Bus{
		Store:     fileStore,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:  fileStore,
		Logger: logger,
		DefaultSettings: catalog.Settings{
			CompanyName:    cfg.CompanyName,
			DefaultTaxRate: cfg.DefaultTaxRate,
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := &catalog.Handler{Service: catalogService}

	quoteService := &quote.Service{
		Store:   fileStore,
		Catalog: catalogService,
		Events:  bus,
		Logger:  logger,
	}
	quoteHandler := &quote.Handler{Service: quoteService}

	prospectService, err := prospect.NewService(prospect.ServiceConfig{
		Store:  fileStore,
		Events: bus,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise prospect service")
	}
	prospectHandler := &prospect.Handler{Service: prospectService}

	scheduler, err := prospect.NewScheduler(prospectService, cfg.ReminderSweepInterval, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise reminder scheduler")
	}
	scheduler.Start()
	defer scheduler.Stop()

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{store: fileStore},
		StoreTimeout: envDurationMillis("HEALTH_READY_STORE_TIMEOUT_MS", 500),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/products", func(p chi.Router) {
			p.Get("/", catalogHandler.ListProducts)
			p.Post("/", catalogHandler.CreateProduct)
			p.Patch("/{id}", catalogHandler.UpdateProduct)
			p.Delete("/{id}", catalogHandler.DeleteProduct)
		})

		v.Route("/multipliers", func(m chi.Router) {
			m.Get("/", catalogHandler.ListMultipliers)
			m.Post("/", catalogHandler.CreateMultiplier)
			m.Patch("/{id}", catalogHandler.UpdateMultiplier)
			m.Delete("/{id}", catalogHandler.DeleteMultiplier)
		})

		v.Get("/settings", catalogHandler.GetSettings)
		v.Put("/settings", catalogHandler.PutSettings)

		v.Route("/quotes", func(q chi.Router) {
			q.Post("/rebuild", quoteHandler.Rebuild)
			q.Get("/", quoteHandler.List)
			q.Get("/{id}", quoteHandler.Get)
			q.Delete("/{id}", quoteHandler.Delete)
			q.Delete("/{id}/items/{productId}", quoteHandler.RemoveItem)
			q.Get("/{id}/pdf", quoteHandler.PDF)
		})

		v.Route("/prospects", func(p chi.Router) {
			p.Get("/", prospectHandler.List)
			p.Post("/", prospectHandler.Create)
			p.Get("/{id}", prospectHandler.Get)
			p.Patch("/{id}", prospectHandler.Update)
			p.Delete("/{id}", prospectHandler.Delete)
			p.Put("/{id}/phase", prospectHandler.SetPhase)
			p.Post("/{id}/quotes", prospectHandler.AttachQuote)
			p.Post("/{id}/reminders", prospectHandler.AddReminder)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	store store.Store
}

func (c readinessChecker) PingStore(ctx context.Context, timeout time.Duration) error {
	if c.store == nil {
		return errors.New("store not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.store.Ping(ctx)
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
