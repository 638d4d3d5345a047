package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/IlTetta/Climate-Monitoring-App/internal/config"
	"github.com/IlTetta/Climate-Monitoring-App/internal/handlers"
	"github.com/IlTetta/Climate-Monitoring-App/internal/migrations"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository/memory"
	"github.com/IlTetta/Climate-Monitoring-App/internal/services"
	"github.com/IlTetta/Climate-Monitoring-App/internal/session"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/database"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/logging"
	"github.com/IlTetta/Climate-Monitoring-App/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("climate-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[STARTUP] Starting climate monitoring API server", logging.Fields{
		"version":      version,
		"server_host":  cfg.Server.Host,
		"server_port":  cfg.Server.Port,
		"store_driver": cfg.Store.Driver,
	})

	metricsCollector := metrics.NewCollector("climate_monitoring")

	store, closeStore, err := openStore(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open record store", logging.Fields{
			"store_driver": cfg.Store.Driver,
		}, err)
	}
	defer closeStore()

	sessions := session.NewManager(cfg.Session.TTL, cfg.Session.CleanupInterval, clockwork.NewRealClock(), metricsCollector)

	handler := handlers.NewHandler(
		services.NewOperatorService(store, logger, metricsCollector),
		services.NewCenterService(store, logger, metricsCollector),
		services.NewCityService(store, logger, metricsCollector),
		sessions,
		store,
		logger,
		metricsCollector,
	)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "[SHUTDOWN] Shutting down server...", logging.Fields{})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "[SHUTDOWN_ERROR] Server stopped with error", logging.Fields{}, err)
		closeStore()
		os.Exit(1)
	}

	logger.Info(context.Background(), "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

// openStore builds the configured record store. The postgres store is
// migrated on startup and fronted by the city cache.
func openStore(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (repository.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn(ctx, "[STORE_MEMORY] Using in-memory store; data is lost on exit", logging.Fields{})
		return memory.New(), func() {}, nil
	}

	db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, metricsCollector)
	if err != nil {
		return nil, nil, err
	}

	if err := migrations.Run(db.DB().DB); err != nil {
		db.Close()
		return nil, nil, err
	}

	store := repository.NewPostgresStore(db, logger, metricsCollector)
	if cfg.Cache.CityTTL > 0 {
		store = repository.NewCachedStore(store, cfg.Cache.CityTTL, metricsCollector)
	}

	return store, func() { db.Close() }, nil
}
