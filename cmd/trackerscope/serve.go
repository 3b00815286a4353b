package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"trackerscope/internal/classifier"
	"trackerscope/internal/config"
	"trackerscope/internal/db"
	"trackerscope/internal/dnsclient"
	"trackerscope/internal/handlers"
	"trackerscope/internal/middleware"
	"trackerscope/internal/telemetry"
	"trackerscope/internal/trackerdb"
)

const maxRequestBody = 8 << 20

func serveCmd(root *rootOptions) *cobra.Command {
	var uncloak bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classifiers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				slog.Error("Failed to load config", "error", err)
				return err
			}
			return serve(cmd.Context(), cfg, uncloak)
		},
	}

	c.Flags().BoolVar(&uncloak, "uncloak", false, "follow CNAME chains of unmatched script hosts")
	return c
}

type server struct {
	router   *gin.Engine
	database *db.Database
}

func newServer(ctx context.Context, cfg *config.Config, uncloak bool) (*server, error) {
	reg := telemetry.NewRegistry()
	metrics := telemetry.NewMetrics()
	fetcher := newFetcher(cfg, reg, metrics)

	ref, err := trackerdb.Load(ctx, fetcher, cfg.TrackerDBURL, cfg.Paths.TrackerDB)
	if err != nil {
		return nil, err
	}
	domains, err := loadBlocklist(ctx, cfg, fetcher)
	if err != nil {
		return nil, err
	}
	patterns, err := config.LoadCookiePatterns(cfg.CookiePatternsFile)
	if err != nil {
		return nil, err
	}

	dnsClient := newDNSClient(cfg, reg)
	events := classifier.NewEventClassifier(ref)
	events.Workers = cfg.Workers
	events.Metrics = metrics
	if uncloak {
		events.Uncloaker = dnsClient
	}
	cookies := classifier.NewCookieClassifier(patterns)
	cookies.Metrics = metrics

	srv := &server{}
	var store handlers.RunStore
	health := handlers.NewHealthHandler(nil, reg, dnsClient, cfg.AppVersion)
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		srv.database = database
		store = database
		health.DB = database
	} else {
		slog.Info("DATABASE_URL not set, run persistence disabled")
	}
	health.ReferenceSizes[telemetry.SourceTrackerDB] = ref.Len()
	health.ReferenceSizes[telemetry.SourceEasyPrivacy] = len(domains)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery(cfg.AppVersion))
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(middleware.RequestContext())
	router.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewInMemoryRateLimiter(middleware.RateLimitPerMinute, middleware.RateLimitBurst)
	slog.Info("Rate limiter initialized", "backend", "in-memory", "per_minute", middleware.RateLimitPerMinute, "burst", middleware.RateLimitBurst)

	classifyHandler := handlers.NewClassifyHandler(events, cookies, domains, store)
	registrableHandler := handlers.NewRegistrableHandler(dnsclient.NewRegistrable(true))

	api := router.Group("/api")
	api.GET("/health", health.HealthCheck)
	api.GET("/registrable/:domain", registrableHandler.Lookup)

	classify := api.Group("", middleware.ClassifyRateLimit(rateLimiter), middleware.MaxBodySize(maxRequestBody))
	classify.POST("/events/classify", classifyHandler.ClassifyEvents)
	classify.POST("/cookies/classify", classifyHandler.ClassifyCookies)

	if srv.database != nil {
		runsHandler := handlers.NewRunsHandler(srv.database)
		api.GET("/runs/:id", runsHandler.GetRun)
		router.GET("/export/runs", runsHandler.ExportNDJSON)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	srv.router = router
	return srv, nil
}

func (s *server) Close() {
	if s.database != nil {
		s.database.Close()
	}
}

func serve(ctx context.Context, cfg *config.Config, uncloak bool) error {
	srv, err := newServer(ctx, cfg, uncloak)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		return err
	}
	defer srv.Close()

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting trackerscope server", "address", addr, "version", cfg.AppVersion)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("Shutting down server")
	return httpServer.Shutdown(shutdownCtx)
}
