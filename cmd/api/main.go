package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"catalog-analytics-api/internal/cache"
	"catalog-analytics-api/internal/config"
	"catalog-analytics-api/internal/database"
	"catalog-analytics-api/internal/events"
	"catalog-analytics-api/internal/features"
	"catalog-analytics-api/internal/handler"
	"catalog-analytics-api/internal/middleware"
	"catalog-analytics-api/internal/notify"
	"catalog-analytics-api/internal/service"
	"catalog-analytics-api/internal/tracing"
	"catalog-analytics-api/internal/visits"
)

func main() {
	configFile := flag.String("config", "", "Path to JSON config file (env vars take precedence)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize tracing
	if err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
	}); err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracing: %v", err)
		}
	}()

	// Visit dedup cache: Redis when configured, in-memory otherwise
	var dedupCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		dedupCache = redisCache
		log.Printf("Visit dedup cache: redis (%s)", cfg.Redis.Addr)
	} else {
		dedupCache = cache.NewInMemoryCache()
		log.Printf("Visit dedup cache: in-memory")
	}

	// Feature flags
	flags := features.NewManager()
	flags.Register(features.FeatureVisitTracking, true, "Record per-tab site visits")
	flags.Register(features.FeatureNotifications, cfg.Notify.Enabled, "Send admin notifications on form submissions")

	// Notification fan-out
	eventManager := events.NewManager(flags.IsEnabled(features.FeatureNotifications))
	defer eventManager.Shutdown()
	notifier := notify.NewNotifier(
		notify.TelegramConfig{
			BotToken: cfg.Notify.TelegramBotToken,
			ChatID:   cfg.Notify.TelegramChatID,
		},
		notify.EmailConfig{
			Host:       cfg.Notify.SMTPHost,
			Port:       cfg.Notify.SMTPPort,
			From:       cfg.Notify.SMTPFrom,
			Password:   cfg.Notify.SMTPPassword,
			Recipients: cfg.Notify.Recipients(),
		},
	)
	notifier.Register(eventManager)

	// Initialize service
	recorder := visits.NewRecorder(db, dedupCache)
	svc := service.NewService(db, eventManager, recorder, flags)

	// Initialize handlers
	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
	})

	// Initialize rate limiter
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second)
		defer rateLimiter.Stop()
	}

	// Setup router
	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware())
	}
	if rateLimiter != nil {
		r.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.Security.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{key}", h.GetCategory)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{id}", h.GetProduct)
	})

	r.Post("/offers", h.SubmitOffer)
	r.Post("/contact-messages", h.SubmitContactMessage)

	r.Route("/visit", func(r chi.Router) {
		r.Post("/track", h.TrackVisit)
		r.Get("/debug", h.VisitDebug)
	})

	r.Route("/about", func(r chi.Router) {
		r.Get("/", h.GetAboutPage)
		r.Put("/{id}/activate", h.ActivateAboutPage)
	})
	r.Route("/contact", func(r chi.Router) {
		r.Get("/", h.GetContactPage)
		r.Put("/{id}/activate", h.ActivateContactPage)
	})
	r.Route("/footer", func(r chi.Router) {
		r.Get("/", h.GetFooterSettings)
		r.Put("/{id}/activate", h.ActivateFooterSettings)
	})

	r.Get("/dashboard/analytics/stats", h.AnalyticsStats)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Database: %s", cfg.Database.Path)
	if cfg.RateLimit.Enabled {
		log.Printf("Rate limit: %d requests per %d seconds", cfg.RateLimit.Rate, cfg.RateLimit.Window)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
