package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/finlock/financing-engine/internal/config"
	"github.com/finlock/financing-engine/internal/handler"
	"github.com/finlock/financing-engine/internal/repository"
	"github.com/finlock/financing-engine/internal/service"
	"github.com/finlock/financing-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)
	logger.Info().Str("storage_driver", cfg.Storage.Driver).Msg("starting financing engine")

	var db *sqlx.DB
	var store repository.Store

	switch cfg.Storage.Driver {
	case "postgres":
		db, err = initDB(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize database")
		}
		defer db.Close()
		store = repository.NewPostgresStore(db)
	default:
		store = repository.NewSeededMemoryStore()
	}

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	financingService := service.NewFinancingService(store, redisClient, cfg, logger)
	financingHandler := handler.NewFinancingHandler(financingService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout)

	router := setupRoutes(financingHandler, healthHandler, logger)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", "financing-engine").
		Logger()

	if cfg.Logging.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(financingHandler *handler.FinancingHandler, healthHandler *handler.HealthHandler, logger zerolog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/customers", financingHandler.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers", financingHandler.ListCustomers).Methods("GET")
	api.HandleFunc("/customers/{id}", financingHandler.GetCustomer).Methods("GET")
	api.HandleFunc("/customers/{id}/devices", financingHandler.ListCustomerDevices).Methods("GET")
	api.HandleFunc("/customers/{id}/loans", financingHandler.ListCustomerLoans).Methods("GET")

	api.HandleFunc("/financings", financingHandler.CreateFinancing).Methods("POST")
	api.HandleFunc("/financings/suggestions", financingHandler.FinancingSuggestions).Methods("GET")

	api.HandleFunc("/devices", financingHandler.ListDevices).Methods("GET")
	api.HandleFunc("/devices/{id}", financingHandler.GetDevice).Methods("GET")
	api.HandleFunc("/devices/{id}/lock", financingHandler.LockDevice).Methods("POST")
	api.HandleFunc("/devices/{id}/unlock", financingHandler.UnlockDevice).Methods("POST")

	api.HandleFunc("/loans", financingHandler.ListLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", financingHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/status", financingHandler.GetLoanStatus).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", financingHandler.ListLoanPayments).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", financingHandler.RecordPayment).Methods("POST")

	api.HandleFunc("/dashboard/stats", financingHandler.DashboardStats).Methods("GET")
	api.HandleFunc("/activity", financingHandler.ListActivity).Methods("GET")

	return router
}
