package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/staffdir/staffdir-backend/internal/directory/events"
	"github.com/staffdir/staffdir-backend/internal/directory/handler"
	"github.com/staffdir/staffdir-backend/internal/directory/repository"
	"github.com/staffdir/staffdir-backend/internal/directory/service"
	"github.com/staffdir/staffdir-backend/internal/directory/validation"
	"github.com/staffdir/staffdir-backend/pkg/config"
	"github.com/staffdir/staffdir-backend/pkg/database"
	"github.com/staffdir/staffdir-backend/pkg/httputil"
	"github.com/staffdir/staffdir-backend/pkg/logger"
	"github.com/staffdir/staffdir-backend/pkg/messaging"
)

const serviceName = "employee-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		logger.New(serviceName, config.GetEnvironment()).Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Str("storage", cfg.Storage.Driver).Msg("starting Employee Service")

	// Initialize storage
	var store repository.Store
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		pg := repository.NewPostgresStore(db)
		if err := pg.Migrate(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		store = pg
	default:
		fs, err := repository.NewFileStore(cfg.Storage.DataDir, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open data directory")
		}
		log.Info().Str("dir", cfg.Storage.DataDir).Msg("using file storage")
		store = fs
	}

	// Connect to RabbitMQ when enabled
	var publisher *events.EmployeePublisher
	var broker handler.BrokerHealth
	if cfg.RabbitMQ.Enabled {
		rmq, err := messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()
		broker = rmq

		publisher, err = events.NewEmployeePublisher(rmq, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	// Initialize service and handlers
	directoryService := service.NewDirectoryService(store, validation.New(), publisher, service.NewIDGenerator(), log)
	employeeHandler := handler.NewEmployeeHandler(directoryService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", handler.Health(directoryService, broker))
	r.Route("/employees", employeeHandler.Routes)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let pending detail cleanups from deletes finish before storage closes
	directoryService.Wait()

	log.Info().Msg("server stopped")
}
