package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/config"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/handlers"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/logger"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/parsers/priceworkbook"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/processors"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/services"
	"github.com/xuefeiwang001/waste-cost-trend-dashboard/src/sources"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Waste cost dashboard backend starting...", "mode", config.Cfg.Mode)

	limiter = rate.NewLimiter(rate.Limit(config.Cfg.RateLimitRPS), config.Cfg.RateLimitBurst)

	reportCache := cache.New(config.Cfg.DashboardCacheTTL, config.Cfg.CacheCleanupInterval)

	weightSource, err := sources.NewSource(config.Cfg)
	if err != nil {
		logger.L.Error("Failed to initialize weight source", "mode", config.Cfg.Mode, "error", err)
		os.Exit(1)
	}

	workbookParser := priceworkbook.NewParser()
	priceProcessor := processors.NewPriceProcessor()
	weightProcessor := processors.NewWeightProcessor()
	shareProcessor := processors.NewShareProcessor()
	mergeProcessor := processors.NewMergeProcessor()

	dashboardService := services.NewDashboardService(
		workbookParser,
		priceProcessor,
		weightProcessor,
		shareProcessor,
		mergeProcessor,
		weightSource,
		reportCache,
		config.Cfg.DashboardCacheTTL,
		config.Cfg.WeightsCacheTTL,
	)

	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	weightHandler := handlers.NewWeightHandler(dashboardService)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: config.Cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-Requested-With"},
		MaxAge:         300,
	})

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(corsHandler.Handler)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Waste cost dashboard backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "ok", "mode": config.Cfg.Mode})
		})

		r.Post("/dashboard/upload", dashboardHandler.HandleUpload)
		r.Get("/dashboard/{uploadID}", dashboardHandler.HandleGetDashboard)
		r.Get("/dashboard/{uploadID}/charts/combined", dashboardHandler.HandleGetCombinedChart)
		r.Get("/dashboard/{uploadID}/charts/month/{month}", dashboardHandler.HandleGetMonthChart)

		r.Get("/weights/summary", weightHandler.HandleGetWeightSummary)
		r.Get("/weights/shares", weightHandler.HandleGetWeightShares)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
